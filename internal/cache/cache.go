// SPDX-License-Identifier: MPL-2.0

// Package cache records which paths previous applies created, so that later
// applies can remove paths that left the structure without touching anything
// the user made or edited.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	// Version is the document version written by Save.
	Version = 1

	digestPrefix = "sha256:"
)

// ErrUnsupportedVersion is returned by Load for documents from a newer structkit.
var ErrUnsupportedVersion = errors.New("unsupported cache version")

type (
	// Entry is one created path.
	Entry struct {
		// Path is forward-slash and relative to the destination.
		Path string `toml:"path"`
		Dir  bool   `toml:"dir"`
		// Digest is "sha256:<hex>" of the content written at creation. Empty for directories.
		Digest string `toml:"digest,omitempty"`
	}

	document struct {
		Version int     `toml:"version"`
		Entries []Entry `toml:"entries"`
	}

	// Store is the in-memory cache, keyed by path.
	Store struct {
		entries map[string]Entry
	}
)

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]Entry)}
}

// Load reads the cache at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}

	var doc document
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode cache %s: %w", path, err)
	}
	if doc.Version > Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	s := New()
	for _, e := range doc.Entries {
		s.entries[e.Path] = e
	}
	return s, nil
}

// Save writes the store to path atomically, creating the parent directory.
func (s *Store) Save(path string, dirPerm fs.FileMode) error {
	doc := document{Version: Version, Entries: s.Entries()}
	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cache-*.toml")
	if err != nil {
		return fmt.Errorf("create temp cache: %w", err)
	}
	renamed := false
	defer func() {
		if !renamed {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	renamed = true
	return nil
}

// Put records e, replacing any entry for the same path.
func (s *Store) Put(e Entry) {
	s.entries[e.Path] = e
}

// Get returns the entry for path.
func (s *Store) Get(path string) (Entry, bool) {
	e, ok := s.entries[path]
	return e, ok
}

// Delete forgets path.
func (s *Store) Delete(path string) {
	delete(s.entries, path)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Entries returns every entry sorted by path.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// Digest returns the digest string for content.
func Digest(content []byte) string {
	sum := sha256.Sum256(content)
	return digestPrefix + hex.EncodeToString(sum[:])
}

// FileDigest hashes the file at path.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return digestPrefix + hex.EncodeToString(h.Sum(nil)), nil
}
