// SPDX-License-Identifier: MPL-2.0

package types

import "testing"

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code   ExitCode
		name   string
		failed bool
	}{
		{ExitOK, "ok", false},
		{ExitFindings, "findings", true},
		{ExitUsage, "usage", true},
		{ExitCode(42), "42", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.code.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := tt.code.Failed(); got != tt.failed {
				t.Errorf("Failed() = %v, want %v", got, tt.failed)
			}
		})
	}
}
