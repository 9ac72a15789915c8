// SPDX-License-Identifier: MPL-2.0

package structfile

import (
	"strings"
	"unicode"
)

type (
	// FormatOptions control canonical re-printing.
	FormatOptions struct {
		IndentStep int
		// NormalizeAnnotations reorders annotations as @stub, @include, @exclude.
		NormalizeAnnotations bool
		// TrimTrailingWhitespace strips trailing whitespace from non-entry lines.
		TrimTrailingWhitespace bool
		// RawLineEndings keeps every line's own terminator instead of the dominant one.
		RawLineEndings bool
	}

	// FormatOption configures Format.
	FormatOption func(*FormatOptions)

	// FormatResult is the outcome of Format.
	FormatResult struct {
		Text string
		// Changed reports whether Text differs from the input.
		Changed bool
		// Structural is false when entries could not be matched to nodes and only
		// whitespace and line endings were normalized.
		Structural  bool
		Diagnostics []Diagnostic
	}
)

// WithFormatIndentStep sets the spaces per level used for both parsing and output.
func WithFormatIndentStep(n int) FormatOption {
	return func(o *FormatOptions) {
		if n > 0 {
			o.IndentStep = n
		}
	}
}

// WithAnnotationNormalization toggles canonical annotation order.
func WithAnnotationNormalization(on bool) FormatOption {
	return func(o *FormatOptions) { o.NormalizeAnnotations = on }
}

// WithTrailingWhitespaceTrim toggles trimming of non-entry lines.
func WithTrailingWhitespaceTrim(on bool) FormatOption {
	return func(o *FormatOptions) { o.TrimTrailingWhitespace = on }
}

// WithRawLineEndings keeps original line terminators.
func WithRawLineEndings(on bool) FormatOption {
	return func(o *FormatOptions) { o.RawLineEndings = on }
}

// Format re-prints src in canonical form. Formatting canonical text returns it
// unchanged.
func Format(src string, opts ...FormatOption) FormatResult {
	o := FormatOptions{
		IndentStep:             DefaultIndentStep,
		NormalizeAnnotations:   true,
		TrimTrailingWhitespace: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	// A collect-policy parse never fails.
	res, _ := Parse(src, WithIndentStep(o.IndentStep))
	eol := dominantEOL(res.Lines)

	text, structural := formatStructural(res, eol, o)
	if !structural {
		text = formatContent(res.Lines, eol, o)
	}

	return FormatResult{
		Text:        text,
		Changed:     text != src,
		Structural:  structural,
		Diagnostics: res.Diagnostics,
	}
}

func formatStructural(res *Result, eol string, o FormatOptions) (string, bool) {
	flat := res.Flatten()
	if len(flat) != res.EntryLines() {
		return "", false
	}
	byLine := make(map[int]FlatNode, len(flat))
	for _, fn := range flat {
		byLine[fn.Node.Line] = fn
	}

	var sb strings.Builder
	for _, ln := range res.Lines {
		if ln.Kind == LineEntry {
			fn, ok := byLine[ln.Number]
			if !ok {
				return "", false
			}
			sb.WriteString(formatEntryLine(ln, fn, o))
		} else {
			sb.WriteString(passThrough(ln, o))
		}
		sb.WriteString(terminator(ln, eol, o))
	}
	return sb.String(), true
}

// formatContent is the fallback pass: no structural changes, only trailing
// whitespace and line endings.
func formatContent(lines []Line, eol string, o FormatOptions) string {
	var sb strings.Builder
	for _, ln := range lines {
		sb.WriteString(passThrough(ln, o))
		sb.WriteString(terminator(ln, eol, o))
	}
	return sb.String()
}

func formatEntryLine(ln Line, fn FlatNode, o FormatOptions) string {
	e := parseEntry(ln.Content, ln.Number, &collector{})
	n := fn.Node

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", o.IndentStep*fn.Level))
	sb.WriteString(n.Name)
	if n.IsDir() {
		sb.WriteString("/")
	}

	tokens := e.tokens
	if o.NormalizeAnnotations {
		tokens = canonicalAnnotations(n, e.extras)
	}
	for _, tok := range tokens {
		sb.WriteString(" ")
		sb.WriteString(tok)
	}

	if e.comment != "" {
		sb.WriteString(" ")
		sb.WriteString(e.comment)
	}
	return sb.String()
}

func canonicalAnnotations(n *Node, extras []string) []string {
	var out []string
	if n.Stub != "" {
		out = append(out, stubPrefix+n.Stub)
	}
	if len(n.Include) > 0 {
		out = append(out, includePrefix+strings.Join(n.Include, ","))
	}
	if len(n.Exclude) > 0 {
		out = append(out, excludePrefix+strings.Join(n.Exclude, ","))
	}
	return append(out, extras...)
}

func passThrough(ln Line, o FormatOptions) string {
	if o.TrimTrailingWhitespace {
		return strings.TrimRightFunc(ln.Raw, unicode.IsSpace)
	}
	return ln.Raw
}

func terminator(ln Line, eol string, o FormatOptions) string {
	if ln.Terminator == "" || o.RawLineEndings {
		return ln.Terminator
	}
	return eol
}

// dominantEOL returns "\r\n" when CRLF terminators outnumber LF ones, else "\n".
func dominantEOL(lines []Line) string {
	crlf, lf := 0, 0
	for _, ln := range lines {
		switch ln.Terminator {
		case "\r\n":
			crlf++
		case "\n":
			lf++
		}
	}
	if crlf > lf {
		return "\r\n"
	}
	return "\n"
}
