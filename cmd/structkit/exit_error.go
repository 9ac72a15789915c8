// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/structkit/structkit/pkg/types"

// ExitError ends a command with Code. When Err is set it has already been
// printed; a nil Err means the command rendered its own findings.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit: " + e.Code.String()
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
