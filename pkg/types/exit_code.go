// SPDX-License-Identifier: MPL-2.0

package types

import "strconv"

const (
	// ExitOK means every requested operation succeeded.
	ExitOK ExitCode = 0
	// ExitFindings means the input was processed but diagnostics were reported
	// or a format check found differences.
	ExitFindings ExitCode = 1
	// ExitUsage covers invalid flags, unreadable configuration and apply failures.
	ExitUsage ExitCode = 2
)

// ExitCode is the process status structkit exits with. The zero value is success.
type ExitCode int

// Failed reports whether the status is non-zero.
func (c ExitCode) Failed() bool { return c != ExitOK }

// String names the status, falling back to the number for unknown values.
func (c ExitCode) String() string {
	switch c {
	case ExitOK:
		return "ok"
	case ExitFindings:
		return "findings"
	case ExitUsage:
		return "usage"
	default:
		return strconv.Itoa(int(c))
	}
}
