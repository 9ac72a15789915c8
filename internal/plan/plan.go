// SPDX-License-Identifier: MPL-2.0

// Package plan turns a parsed structure into the ordered list of paths an
// apply creates, resolving which stub fills each file.
package plan

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/structkit/structkit/pkg/structfile"
)

// ErrBadPattern is returned when an @include or @exclude glob is malformed.
var ErrBadPattern = errors.New("invalid glob pattern")

type (
	// Entry is one path to reconcile.
	Entry struct {
		// Path is forward-slash and relative to the destination, without a trailing slash.
		Path string
		Dir  bool
		// Line is the declaring source line.
		Line int
		// DeclaredStub is the stub written on the entry's own line.
		DeclaredStub string
		// Stub is the effective stub after inheritance. Directories never inherit.
		Stub string
		// StubFrom is the path of the directory the stub was inherited from.
		StubFrom string
		Include  []string
		Exclude  []string
	}

	// Plan is the depth-first list of entries, parents before children.
	Plan struct {
		Entries []Entry
		// Duplicates lists entries dropped because an earlier line declared the same path.
		Duplicates []Entry
	}

	// PatternError reports a malformed glob on a directory entry.
	PatternError struct {
		Line    int
		Pattern string
	}
)

func (e *PatternError) Error() string {
	return fmt.Sprintf("line %d: invalid glob pattern %q", e.Line, e.Pattern)
}

func (e *PatternError) Unwrap() error { return ErrBadPattern }

// Build flattens res and resolves stub inheritance. A file without its own
// @stub takes the stub of the nearest ancestor directory whose @include globs
// (when present) match and whose @exclude globs do not, both evaluated on the
// file path relative to that directory.
func Build(res *structfile.Result) (Plan, error) {
	var p Plan
	seen := make(map[string]bool)

	for _, fn := range res.Flatten() {
		n := fn.Node
		if err := validatePatterns(n); err != nil {
			return Plan{}, err
		}

		e := Entry{
			Path:         strings.TrimSuffix(n.Path, "/"),
			Dir:          n.IsDir(),
			Line:         n.Line,
			DeclaredStub: n.Stub,
			Stub:         n.Stub,
			Include:      n.Include,
			Exclude:      n.Exclude,
		}
		if !e.Dir && e.Stub == "" {
			e.Stub, e.StubFrom = inherit(n)
		}

		if seen[e.Path] {
			slog.Debug("duplicate structure entry", "path", e.Path, "line", e.Line)
			p.Duplicates = append(p.Duplicates, e)
			continue
		}
		seen[e.Path] = true
		p.Entries = append(p.Entries, e)
	}

	return p, nil
}

func validatePatterns(n *structfile.Node) error {
	for _, list := range [][]string{n.Include, n.Exclude} {
		for _, pat := range list {
			if !doublestar.ValidatePattern(pat) {
				return &PatternError{Line: n.Line, Pattern: pat}
			}
		}
	}
	return nil
}

func inherit(n *structfile.Node) (stub, from string) {
	for _, dir := range n.Ancestors() {
		if dir.Stub == "" {
			continue
		}
		rel := strings.TrimPrefix(n.Path, dir.Path)
		if Selects(dir.Include, dir.Exclude, rel) {
			return dir.Stub, strings.TrimSuffix(dir.Path, "/")
		}
	}
	return "", ""
}

// Selects reports whether rel passes the include and exclude globs. An empty
// include list selects everything. Patterns must already be valid.
func Selects(include, exclude []string, rel string) bool {
	if len(include) > 0 && !matchAny(include, rel) {
		return false
	}
	return !matchAny(exclude, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if doublestar.MatchUnvalidated(pat, rel) {
			return true
		}
	}
	return false
}

// Files returns the paths of the file entries.
func (p Plan) Files() []string {
	var out []string
	for _, e := range p.Entries {
		if !e.Dir {
			out = append(out, e.Path)
		}
	}
	return out
}
