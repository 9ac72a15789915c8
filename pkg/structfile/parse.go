// SPDX-License-Identifier: MPL-2.0

package structfile

import (
	"errors"
	"fmt"
)

const (
	// PolicyCollect records every problem as a diagnostic and never fails.
	PolicyCollect Policy = iota
	// PolicyFailFast stops at the first error-severity diagnostic.
	PolicyFailFast
)

const (
	// DefaultIndentStep is the number of spaces per nesting level.
	DefaultIndentStep = 2

	defaultFilename = "<input>"
)

// ErrInvalidStructure is the sentinel error wrapped by ParseError.
var ErrInvalidStructure = errors.New("invalid structure")

type (
	// Policy selects how structural violations are handled.
	Policy int

	// Options are the effective settings of a parse.
	Options struct {
		IndentStep int
		Policy     Policy
		// Filename is used in fail-fast errors only.
		Filename string
	}

	// Option configures Parse.
	Option func(*Options)

	// ParseError is returned by a fail-fast parse at the first violation.
	// It wraps ErrInvalidStructure for errors.Is() compatibility.
	ParseError struct {
		Filename string
		Line     int
		Code     Code
		Message  string
	}

	// Result is the outcome of a parse: the node tree, the classified lines and
	// every diagnostic in source order.
	Result struct {
		Roots       []*Node
		Lines       []Line
		Diagnostics []Diagnostic
		Options     Options
	}
)

// DefaultOptions returns the settings Parse uses before applying options.
func DefaultOptions() Options {
	return Options{IndentStep: DefaultIndentStep, Policy: PolicyCollect, Filename: defaultFilename}
}

// WithIndentStep sets the number of spaces per level. Values below 1 are ignored.
func WithIndentStep(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.IndentStep = n
		}
	}
}

// WithPolicy sets the error policy.
func WithPolicy(p Policy) Option {
	return func(o *Options) { o.Policy = p }
}

// WithFilename sets the file name reported by fail-fast errors.
func WithFilename(name string) Option {
	return func(o *Options) {
		if name != "" {
			o.Filename = name
		}
	}
}

// String returns "collect" or "fail-fast".
func (p Policy) String() string {
	if p == PolicyFailFast {
		return "fail-fast"
	}
	return "collect"
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s: %s", e.Filename, e.Line, e.Code, e.Message)
}

// Unwrap returns ErrInvalidStructure so callers can use errors.Is for programmatic detection.
func (e *ParseError) Unwrap() error { return ErrInvalidStructure }

// Parse parses a structure file.
//
// Under PolicyCollect the returned error is always nil and the result holds a
// complete best-effort tree. Under PolicyFailFast the first error-severity
// diagnostic aborts the parse with a *ParseError and no result.
func Parse(src string, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	lines := classifyLines(src, o.IndentStep)
	c := &collector{policy: o.Policy}
	b := &builder{policy: o.Policy}

	var (
		st       depthState
		prevName string
	)
	for _, ln := range lines {
		if ln.Kind != LineEntry {
			continue
		}

		if ln.Tabs > 0 {
			c.report(ln.Number, CodeIndentTabs, "leading whitespace contains %d tab(s), each counted as %d spaces", ln.Tabs, o.IndentStep)
		}

		e := parseEntry(ln.Content, ln.Number, c)

		prev := st
		var (
			depth int
			found anomaly
		)
		st, depth, found = st.next(ln.IndentWidth, !e.dir, o.IndentStep)
		switch found {
		case anomalySkipLevel:
			c.report(ln.Number, CodeIndentSkipLevel, "indentation grows by %d spaces, more than one level of %d; treated as one level deeper", ln.IndentWidth-prev.width, o.IndentStep)
		case anomalyMisaligned:
			c.report(ln.Number, CodeIndentMisaligned, "indentation shrinks by %d spaces, which is not a multiple of %d", prev.width-ln.IndentWidth, o.IndentStep)
		case anomalyChildOfFile:
			c.report(ln.Number, childOfFileCode(o.Policy), "entry is indented under file %q, which cannot have children; treated as its sibling", prevName)
		}

		b.attach(e, depth, ln.Number, c)
		prevName = e.token

		if c.hasFatal {
			return nil, &ParseError{
				Filename: o.Filename,
				Line:     c.fatal.Line,
				Code:     c.fatal.Code,
				Message:  c.fatal.Message,
			}
		}
	}

	return &Result{
		Roots:       b.roots,
		Lines:       lines,
		Diagnostics: c.diags,
		Options:     o,
	}, nil
}

// Flatten returns every node depth-first in source order with its tree level.
func (r *Result) Flatten() []FlatNode {
	var out []FlatNode
	for _, root := range r.Roots {
		root.Walk(func(n *Node, level int) bool {
			out = append(out, FlatNode{Node: n, Level: level})
			return true
		})
	}
	return out
}

// EntryLines returns the number of lines classified as entries.
func (r *Result) EntryLines() int {
	n := 0
	for _, ln := range r.Lines {
		if ln.Kind == LineEntry {
			n++
		}
	}
	return n
}

// Count returns the number of diagnostics with severity s.
func (r *Result) Count(s Severity) int {
	n := 0
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			n++
		}
	}
	return n
}

// HasErrors reports whether any diagnostic has error severity.
func (r *Result) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Max returns the highest severity among the diagnostics and false when there
// are none.
func (r *Result) Max() (Severity, bool) {
	if len(r.Diagnostics) == 0 {
		return SeverityInfo, false
	}
	highest := SeverityInfo
	for _, d := range r.Diagnostics {
		highest = max(highest, d.Severity)
	}
	return highest, true
}
