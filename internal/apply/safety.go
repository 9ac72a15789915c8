// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned for paths that are absolute, contain ".." or
// otherwise resolve outside the destination root.
var ErrPathEscape = errors.New("path escapes destination")

// PathError names the offending relative path.
type PathError struct {
	Path string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %q", ErrPathEscape.Error(), e.Path)
}

func (e *PathError) Unwrap() error { return ErrPathEscape }

// SafeJoin joins the forward-slash relative path rel under root and verifies
// the result stays inside root.
func SafeJoin(root, rel string) (string, error) {
	if rel == "" || rel == "." || path.IsAbs(rel) || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", &PathError{Path: rel}
	}
	for _, seg := range strings.Split(rel, "/") {
		if seg == ".." {
			return "", &PathError{Path: rel}
		}
	}

	cleanRoot := filepath.Clean(root)
	joined := filepath.Join(cleanRoot, filepath.FromSlash(rel))

	r, err := filepath.Rel(cleanRoot, joined)
	if err != nil {
		return "", &PathError{Path: rel}
	}
	r = filepath.ToSlash(r)
	if r == "." || r == ".." || strings.HasPrefix(r, "../") {
		return "", &PathError{Path: rel}
	}
	return joined, nil
}
