// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// ErrStubNotFound is returned when a referenced stub does not exist.
var ErrStubNotFound = errors.New("stub not found")

// StubError names the missing stub and the entry that referenced it.
type StubError struct {
	Stub string
	Path string
	Err  error
}

func (e *StubError) Error() string {
	return fmt.Sprintf("stub %q for %s: %v", e.Stub, e.Path, e.Err)
}

func (e *StubError) Unwrap() error { return e.Err }

// stubSource reads stub files from one directory, memoizing contents.
type stubSource struct {
	dir    string
	loaded map[string][]byte
}

func newStubSource(dir string) *stubSource {
	return &stubSource{dir: dir, loaded: make(map[string][]byte)}
}

// content returns the stub named name, trying "<dir>/<name>" then "<dir>/<name>.stub".
func (s *stubSource) content(name string) ([]byte, error) {
	if data, ok := s.loaded[name]; ok {
		return data, nil
	}

	for _, candidate := range []string{name, name + ".stub"} {
		p, err := SafeJoin(s.dir, candidate)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			continue
		}
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		s.loaded[name] = data
		return data, nil
	}

	return nil, ErrStubNotFound
}
