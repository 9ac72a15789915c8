// SPDX-License-Identifier: MPL-2.0

package structfile

import (
	"strings"
	"unicode"
)

const (
	// LineBlank is an empty or whitespace-only line.
	LineBlank LineKind = iota
	// LineComment is a full-line comment starting with "#" or "//".
	LineComment
	// LineEntry declares a file or a directory.
	LineEntry
)

type (
	// LineKind classifies a physical source line.
	LineKind int

	// Line is one physical line of a structure file. Lines are produced once per
	// parse and never mutated.
	Line struct {
		// Index is the 0-based position of the line in the source.
		Index int
		// Number is the 1-based line number used in diagnostics.
		Number int
		// Raw is the original text without its terminator.
		Raw string
		// Terminator is "\n", "\r\n", or "" for an unterminated last line.
		Terminator string
		// Kind is the classification of the line.
		Kind LineKind
		// IndentWidth is the width of the leading whitespace; tabs count as one indent step.
		IndentWidth int
		// Tabs is the number of tab characters in the leading whitespace.
		Tabs int
		// Content is the text after the leading whitespace with trailing whitespace removed.
		Content string
	}
)

// String returns the lowercase name of the kind.
func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineComment:
		return "comment"
	case LineEntry:
		return "entry"
	default:
		return "unknown"
	}
}

// classifyLines splits src into physical lines and classifies each one.
// A newline terminates a line; a trailing newline does not start a new one.
func classifyLines(src string, step int) []Line {
	var lines []Line
	rest := src
	for idx := 0; rest != ""; idx++ {
		raw, term := rest, ""
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			raw, term, rest = rest[:i], "\n", rest[i+1:]
			if strings.HasSuffix(raw, "\r") {
				raw, term = raw[:len(raw)-1], "\r\n"
			}
		} else {
			rest = ""
		}
		lines = append(lines, classifyLine(idx, raw, term, step))
	}
	return lines
}

func classifyLine(idx int, raw, term string, step int) Line {
	ln := Line{
		Index:      idx,
		Number:     idx + 1,
		Raw:        raw,
		Terminator: term,
	}

	i := 0
scan:
	for ; i < len(raw); i++ {
		switch raw[i] {
		case ' ':
			ln.IndentWidth++
		case '\t':
			ln.IndentWidth += step
			ln.Tabs++
		default:
			break scan
		}
	}

	ln.Content = strings.TrimRightFunc(raw[i:], unicode.IsSpace)
	switch {
	case ln.Content == "":
		ln.Kind = LineBlank
	case isCommentStart(ln.Content):
		ln.Kind = LineComment
	default:
		ln.Kind = LineEntry
	}
	return ln
}

func isCommentStart(s string) bool {
	return strings.HasPrefix(s, "#") || strings.HasPrefix(s, "//")
}
