// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Schema is one compiled CUE definition that documents are validated against.
// Values of one cue.Context must not be used concurrently, so Decode
// serializes on the schema.
type Schema struct {
	mu  sync.Mutex
	ctx *cue.Context
	def cue.Value
}

// CompileSchema compiles src and selects the definition at path, e.g. "#Config".
func CompileSchema(src, path string) (*Schema, error) {
	ctx := cuecontext.New()

	compiled := ctx.CompileString(src, cue.Filename("schema.cue"))
	if err := compiled.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	def := compiled.LookupPath(cue.ParsePath(path))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("schema has no definition %s: %w", path, err)
	}

	return &Schema{ctx: ctx, def: def}, nil
}

// Decode compiles data, unifies it with the schema definition, validates the
// result and decodes it into T. Errors name the offending field path.
func Decode[T any](s *Schema, data []byte, opts ...Option) (T, error) {
	var out T

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := CheckFileSize(data, o.maxFileSize, o.filename); err != nil {
		return out, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.ctx.CompileBytes(data, cue.Filename(o.filename))
	if err := doc.Err(); err != nil {
		return out, FormatError(err, o.filename)
	}

	unified := s.def.Unify(doc)
	if err := unified.Validate(cue.Concrete(o.concrete)); err != nil {
		return out, FormatError(err, o.filename)
	}
	if err := unified.Decode(&out); err != nil {
		return out, FormatError(err, o.filename)
	}
	return out, nil
}
