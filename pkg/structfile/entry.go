// SPDX-License-Identifier: MPL-2.0

package structfile

import (
	"path"
	"strings"
)

const (
	stubPrefix    = "@stub:"
	includePrefix = "@include:"
	excludePrefix = "@exclude:"
)

// entry is one parsed entry line. It is transient: the tree keeps only what a
// Node needs, and the formatter re-derives the rest from the line.
type entry struct {
	token   string
	name    string
	dir     bool
	stub    string
	include []string
	exclude []string
	// tokens holds everything after the path token as written.
	tokens []string
	// extras holds tokens that are not recognised annotations, in order.
	extras  []string
	comment string
}

// parseEntry parses the content of an entry line (indentation already removed).
// Diagnostics are reported to c against line.
func parseEntry(content string, line int, c *collector) entry {
	structural, comment := splitInlineComment(content)
	fields := strings.Fields(structural)

	var e entry
	e.comment = comment
	if len(fields) == 0 {
		return e
	}

	e.token = fields[0]
	e.dir = strings.HasSuffix(e.token, "/")
	e.name = normalizeSegment(e.token)
	if strings.Contains(e.token, ":") {
		c.report(line, CodePathColon, "path %q contains ':', which is reserved for annotations", e.token)
	}

	for _, tok := range fields[1:] {
		e.tokens = append(e.tokens, tok)
		switch {
		case strings.HasPrefix(tok, stubPrefix) && len(tok) > len(stubPrefix):
			// Repeated stubs: the last one wins.
			e.stub = tok[len(stubPrefix):]
		case strings.HasPrefix(tok, includePrefix):
			e.include = append(e.include, splitGlobs(tok[len(includePrefix):])...)
		case strings.HasPrefix(tok, excludePrefix):
			e.exclude = append(e.exclude, splitGlobs(tok[len(excludePrefix):])...)
		case tok == stubPrefix:
			c.report(line, CodeUnknownAnnotation, "annotation %q has no stub name and is ignored", tok)
			e.extras = append(e.extras, tok)
		case strings.HasPrefix(tok, "@"):
			c.report(line, CodeUnknownAnnotation, "unknown annotation %q is ignored", tok)
			e.extras = append(e.extras, tok)
		default:
			c.report(line, CodeUnknownAnnotation, "unexpected token %q after path is ignored", tok)
			e.extras = append(e.extras, tok)
		}
	}
	return e
}

// splitInlineComment separates structural content from an inline comment. A
// marker counts only when preceded by whitespace and not at position 0; "//"
// must also be followed by whitespace or the end of the line.
func splitInlineComment(content string) (structural, comment string) {
	for i := 1; i < len(content); i++ {
		if !isBlank(content[i-1]) {
			continue
		}
		if content[i] == '#' {
			return strings.TrimRight(content[:i], " \t"), content[i:]
		}
		if strings.HasPrefix(content[i:], "//") && (i+2 == len(content) || isBlank(content[i+2])) {
			return strings.TrimRight(content[:i], " \t"), content[i:]
		}
	}
	return content, ""
}

// splitGlobs splits a comma-separated annotation value, trimming entries and
// dropping empty ones while keeping order.
func splitGlobs(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// normalizeSegment returns the path token as a clean forward-slash path without
// a trailing slash.
func normalizeSegment(token string) string {
	s := strings.ReplaceAll(token, `\`, "/")
	s = strings.TrimRight(s, "/")
	if s == "" {
		return ""
	}
	return path.Clean(s)
}

func isBlank(b byte) bool {
	return b == ' ' || b == '\t'
}
