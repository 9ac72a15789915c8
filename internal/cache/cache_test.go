// SPDX-License-Identifier: MPL-2.0

package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".structkit", "cache.toml")

	s := New()
	s.Put(Entry{Path: "src", Dir: true})
	s.Put(Entry{Path: "src/main.go", Digest: Digest([]byte("package main\n"))})
	if err := s.Save(path, 0o755); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	for _, want := range []string{"version = 1", "[[entries]]", "path = 'src/main.go'", "digest = 'sha256:"} {
		if !strings.Contains(text, want) {
			t.Errorf("cache file missing %q:\n%s", want, text)
		}
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", loaded.Len())
	}
	e, ok := loaded.Get("src/main.go")
	if !ok || e.Dir || e.Digest != Digest([]byte("package main\n")) {
		t.Errorf("Get(src/main.go) = %+v, %v", e, ok)
	}
	if d, _ := loaded.Get("src"); !d.Dir || d.Digest != "" {
		t.Errorf("Get(src) = %+v", d)
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.toml")
	if err := os.WriteFile(bad, []byte("version = ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected decode error")
	}

	future := filepath.Join(dir, "future.toml")
	if err := os.WriteFile(future, []byte("version = 9\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(future); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Load(future) = %v, want ErrUnsupportedVersion", err)
	}
}

func TestStore_EntriesSortedAndDelete(t *testing.T) {
	t.Parallel()

	s := New()
	s.Put(Entry{Path: "b"})
	s.Put(Entry{Path: "a/x"})
	s.Put(Entry{Path: "a", Dir: true})
	s.Delete("b")

	got := s.Entries()
	if len(got) != 2 || got[0].Path != "a" || got[1].Path != "a/x" {
		t.Errorf("Entries() = %+v", got)
	}
}

func TestFileDigest(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := FileDigest(path)
	if err != nil {
		t.Fatalf("FileDigest() error: %v", err)
	}
	const want = "sha256:2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want || Digest([]byte("hello")) != want {
		t.Errorf("FileDigest() = %q, want %q", got, want)
	}
}
