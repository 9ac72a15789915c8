// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// ActionableError is a user-facing error that says what failed, on which
	// resource, and what to do about it.
	//
	//	err := issue.NewErrorContext().
	//		WithOperation("read structure file").
	//		WithResource("./structure.txt").
	//		WithSuggestion("Pass the file path as the first argument").
	//		WithIssue(issue.StructureNotFoundId).
	//		Wrap(cause).
	//		BuildError()
	ActionableError struct {
		// Operation is a verb phrase such as "apply structure".
		Operation   string
		Resource    string
		Suggestions []string
		// Issue names the catalog entry `structkit explain` shows.
		Issue Id
		Cause error
	}

	// ErrorContext builds an ActionableError step by step. Each Build returns
	// a fresh copy, so a context can be reused for several causes.
	ErrorContext struct {
		err ActionableError
	}
)

// NewErrorContext starts an empty builder.
func NewErrorContext() *ErrorContext {
	return &ErrorContext{}
}

// Error renders "failed to <operation>[: <resource>][: <cause>]".
func (e *ActionableError) Error() string {
	parts := []string{"failed to " + e.Operation}
	if e.Resource != "" {
		parts = append(parts, e.Resource)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *ActionableError) Unwrap() error { return e.Cause }

// Hints returns the suggestions followed by a pointer to the catalog entry.
func (e *ActionableError) Hints() []string {
	hints := make([]string, 0, len(e.Suggestions)+1)
	hints = append(hints, e.Suggestions...)
	if e.Issue != "" {
		hints = append(hints, fmt.Sprintf("Run 'structkit explain %s' for details", e.Issue))
	}
	return hints
}

// Format renders the message with one bulleted line per hint. Verbose output
// adds the numbered chain of wrapped causes.
func (e *ActionableError) Format(verbose bool) string {
	var b strings.Builder
	b.WriteString(e.Error())

	if hints := e.Hints(); len(hints) > 0 {
		b.WriteString("\n")
		for _, h := range hints {
			b.WriteString("\n  • " + h)
		}
	}

	if verbose && e.Cause != nil {
		b.WriteString("\n\nError chain:")
		for i, err := 1, e.Cause; err != nil; i, err = i+1, errors.Unwrap(err) {
			fmt.Fprintf(&b, "\n  %d. %s", i, err)
		}
	}

	return b.String()
}

func (c *ErrorContext) WithOperation(op string) *ErrorContext {
	c.err.Operation = op
	return c
}

func (c *ErrorContext) WithResource(res string) *ErrorContext {
	c.err.Resource = res
	return c
}

// WithSuggestion appends one suggestion.
func (c *ErrorContext) WithSuggestion(sug string) *ErrorContext {
	c.err.Suggestions = append(c.err.Suggestions, sug)
	return c
}

func (c *ErrorContext) WithIssue(id Id) *ErrorContext {
	c.err.Issue = id
	return c
}

// Wrap sets the underlying cause, replacing any earlier one.
func (c *ErrorContext) Wrap(err error) *ErrorContext {
	c.err.Cause = err
	return c
}

// Build returns the error, or nil when no operation was set.
func (c *ErrorContext) Build() *ActionableError {
	if c.err.Operation == "" {
		return nil
	}
	out := c.err
	out.Suggestions = append([]string(nil), c.err.Suggestions...)
	return &out
}

// BuildError is Build as an error value. It returns an untyped nil when no
// operation was set.
func (c *ErrorContext) BuildError() error {
	if ae := c.Build(); ae != nil {
		return ae
	}
	return nil
}
