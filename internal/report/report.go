// SPDX-License-Identifier: MPL-2.0

// Package report renders structure diagnostics for people and for tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/structkit/structkit/pkg/structfile"
)

const (
	// FormatText is styled terminal output.
	FormatText Format = "text"
	// FormatJSON is an indented JSON document.
	FormatJSON Format = "json"
	// FormatYAML is a YAML document.
	FormatYAML Format = "yaml"
)

// ErrUnknownFormat is returned by ParseFormat.
var ErrUnknownFormat = errors.New("unknown output format")

type (
	// Format selects a renderer.
	Format string

	// Summary counts diagnostics by severity.
	Summary struct {
		Entries  int `json:"entries" yaml:"entries"`
		Errors   int `json:"errors" yaml:"errors"`
		Warnings int `json:"warnings" yaml:"warnings"`
		Infos    int `json:"infos" yaml:"infos"`
	}

	// Document is the machine-readable report of one structure file.
	Document struct {
		File        string                  `json:"file" yaml:"file"`
		Summary     Summary                 `json:"summary" yaml:"summary"`
		Diagnostics []structfile.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
	}

	// Styles color the text renderer.
	Styles struct {
		Location lipgloss.Style
		Code     lipgloss.Style
		Info     lipgloss.Style
		Warning  lipgloss.Style
		Error    lipgloss.Style
		Clean    lipgloss.Style
		Summary  lipgloss.Style
	}
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML}
}

// ParseFormat accepts a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q (want text, json or yaml)", ErrUnknownFormat, s)
	}
}

// New builds the document for a parse of file.
func New(file string, res *structfile.Result) Document {
	doc := Document{
		File:        file,
		Diagnostics: res.Diagnostics,
		Summary: Summary{
			Entries:  res.EntryLines(),
			Errors:   res.Count(structfile.SeverityError),
			Warnings: res.Count(structfile.SeverityWarning),
			Infos:    res.Count(structfile.SeverityInfo),
		},
	}
	if doc.Diagnostics == nil {
		doc.Diagnostics = []structfile.Diagnostic{}
	}
	return doc
}

// Write renders doc to w. Styles are used by FormatText only.
func Write(w io.Writer, f Format, doc Document, st Styles) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, Text(doc, st))
		return err
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}

// Text renders doc one diagnostic per line, followed by a summary line.
func Text(doc Document, st Styles) string {
	var sb strings.Builder
	for _, d := range doc.Diagnostics {
		fmt.Fprintf(&sb, "%s %s %s %s\n",
			st.Location.Render(fmt.Sprintf("%s:%d:", doc.File, d.Line)),
			st.severity(d.Severity).Render(d.Severity.String()),
			st.Code.Render(string(d.Code)),
			d.Message,
		)
	}

	s := doc.Summary
	if len(doc.Diagnostics) == 0 {
		sb.WriteString(st.Clean.Render(fmt.Sprintf("%s: no problems in %s", doc.File, plural(s.Entries, "entry", "entries"))))
	} else {
		var parts []string
		for _, p := range []struct {
			n    int
			one  string
			many string
		}{
			{s.Errors, "error", "errors"},
			{s.Warnings, "warning", "warnings"},
			{s.Infos, "info", "infos"},
		} {
			if p.n > 0 {
				parts = append(parts, plural(p.n, p.one, p.many))
			}
		}
		sb.WriteString(st.Summary.Render(fmt.Sprintf("%s: %s in %s", doc.File, strings.Join(parts, ", "), plural(s.Entries, "entry", "entries"))))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (st Styles) severity(s structfile.Severity) lipgloss.Style {
	switch s {
	case structfile.SeverityError:
		return st.Error
	case structfile.SeverityWarning:
		return st.Warning
	default:
		return st.Info
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
