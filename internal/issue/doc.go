// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable error handling with user-friendly messages.
//
// ActionableError carries the failed operation, the resource involved and hints
// for fixing the problem. The catalog documents every diagnostic code and every
// application failure as Markdown, rendered by `structkit explain`.
package issue
