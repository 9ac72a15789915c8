// SPDX-License-Identifier: MPL-2.0

package structfile

import (
	"fmt"
	"strings"
)

const (
	// SeverityInfo marks a purely informational diagnostic.
	SeverityInfo Severity = iota
	// SeverityWarning marks a problem that was repaired.
	SeverityWarning
	// SeverityError marks a violation that stops a fail-fast parse.
	SeverityError
)

const (
	// CodeIndentTabs reports tab characters in leading whitespace.
	CodeIndentTabs Code = "indent-tabs"
	// CodeIndentSkipLevel reports an indent increase of more than one step.
	CodeIndentSkipLevel Code = "indent-skip-level"
	// CodeIndentMisaligned reports an indent decrease that is not a multiple of the step.
	CodeIndentMisaligned Code = "indent-misaligned"
	// CodeChildOfFileLoose reports an entry indented under a file (collect policy).
	CodeChildOfFileLoose Code = "child-of-file-loose"
	// CodeChildOfFile reports an entry indented under a file (fail-fast policy).
	CodeChildOfFile Code = "child-of-file"
	// CodePathColon reports a ':' inside a path token.
	CodePathColon Code = "path-colon"
	// CodeMissingParent reports an indented entry without an open ancestor directory.
	CodeMissingParent Code = "missing-parent"
	// CodeUnknownAnnotation reports a token after the path that is not a known annotation.
	CodeUnknownAnnotation Code = "unknown-annotation"
)

type (
	// Severity ranks a diagnostic.
	Severity int

	// Code identifies a class of diagnostic. Codes are stable and safe to match on.
	Code string

	// Diagnostic is one anomaly found while parsing.
	Diagnostic struct {
		Line     int      `json:"line" yaml:"line"`
		Severity Severity `json:"severity" yaml:"severity"`
		Code     Code     `json:"code" yaml:"code"`
		Message  string   `json:"message" yaml:"message"`
	}

	severities struct {
		collect  Severity
		failFast Severity
	}

	// collector accumulates diagnostics in source order and remembers the first
	// one that is fatal under the fail-fast policy.
	collector struct {
		policy   Policy
		diags    []Diagnostic
		fatal    Diagnostic
		hasFatal bool
	}
)

// codeOrder lists codes in documentation order.
var codeOrder = []Code{
	CodeIndentTabs,
	CodeIndentSkipLevel,
	CodeIndentMisaligned,
	CodeChildOfFileLoose,
	CodeChildOfFile,
	CodePathColon,
	CodeMissingParent,
	CodeUnknownAnnotation,
}

var severityTable = map[Code]severities{
	CodeIndentTabs:        {collect: SeverityInfo, failFast: SeverityWarning},
	CodeIndentSkipLevel:   {collect: SeverityWarning, failFast: SeverityError},
	CodeIndentMisaligned:  {collect: SeverityWarning, failFast: SeverityError},
	CodeChildOfFileLoose:  {collect: SeverityWarning, failFast: SeverityError},
	CodeChildOfFile:       {collect: SeverityWarning, failFast: SeverityError},
	CodePathColon:         {collect: SeverityWarning, failFast: SeverityError},
	CodeMissingParent:     {collect: SeverityWarning, failFast: SeverityError},
	CodeUnknownAnnotation: {collect: SeverityInfo, failFast: SeverityInfo},
}

// Codes returns every diagnostic code.
func Codes() []Code {
	out := make([]Code, len(codeOrder))
	copy(out, codeOrder)
	return out
}

// Known reports whether c is a code produced by this package.
func (c Code) Known() bool {
	_, ok := severityTable[c]
	return ok
}

// Severity returns the severity of c under policy p. Unknown codes are errors.
func (c Code) Severity(p Policy) Severity {
	s, ok := severityTable[c]
	if !ok {
		return SeverityError
	}
	if p == PolicyFailFast {
		return s.failFast
	}
	return s.collect
}

// String returns the code itself.
func (c Code) String() string { return string(c) }

// childOfFileCode returns the code used for entries indented under a file.
func childOfFileCode(p Policy) Code {
	if p == PolicyFailFast {
		return CodeChildOfFile
	}
	return CodeChildOfFileLoose
}

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a severity name.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity parses "info", "warning" or "error" (case-insensitive).
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", name)
	}
}

// String formats the diagnostic as "line N: severity code: message".
func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s %s: %s", d.Line, d.Severity, d.Code, d.Message)
}

func (c *collector) report(line int, code Code, format string, args ...any) {
	d := Diagnostic{
		Line:     line,
		Severity: code.Severity(c.policy),
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	}
	c.diags = append(c.diags, d)
	if c.policy == PolicyFailFast && d.Severity == SeverityError && !c.hasFatal {
		c.fatal = d
		c.hasFatal = true
	}
}
