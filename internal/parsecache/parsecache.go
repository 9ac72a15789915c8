// SPDX-License-Identifier: MPL-2.0

// Package parsecache memoizes structure file parses.
//
// Watch loops re-read the structure file on every event, and most events
// (touches, saves without edits, changes to sibling files) leave the content
// unchanged. Results are keyed by a digest of the content and the effective
// parse options, so a hit is always identical to a fresh parse.
package parsecache

import (
	"crypto/sha256"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/structkit/structkit/pkg/structfile"
)

// DefaultSize is the number of parses kept by New(0).
const DefaultSize = 64

type (
	key struct {
		digest [sha256.Size]byte
		opts   structfile.Options
	}

	entry struct {
		res *structfile.Result
		err error
	}

	// Cache is a bounded, concurrency-safe memo of structfile.Parse.
	// Returned results are shared between callers and must not be modified.
	Cache struct {
		lru    *lru.Cache[key, entry]
		hits   atomic.Uint64
		misses atomic.Uint64
	}

	// Stats reports cache effectiveness.
	Stats struct {
		Hits   uint64
		Misses uint64
		Len    int
	}
)

// New returns a cache holding up to size parses. Sizes below 1 use DefaultSize.
func New(size int) (*Cache, error) {
	if size < 1 {
		size = DefaultSize
	}
	l, err := lru.New[key, entry](size)
	if err != nil {
		return nil, fmt.Errorf("create parse cache: %w", err)
	}
	return &Cache{lru: l}, nil
}

// Parse behaves like structfile.Parse. Fail-fast errors are memoized along
// with results.
func (c *Cache) Parse(src string, opts ...structfile.Option) (*structfile.Result, error) {
	k := key{digest: sha256.Sum256([]byte(src)), opts: effective(opts)}

	if e, ok := c.lru.Get(k); ok {
		c.hits.Add(1)
		return e.res, e.err
	}
	c.misses.Add(1)

	res, err := structfile.Parse(src, opts...)
	c.lru.Add(k, entry{res: res, err: err})
	return res, err
}

// Stats returns the counters since creation or the last Purge.
func (c *Cache) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Len: c.lru.Len()}
}

// Purge drops every entry and resets the counters.
func (c *Cache) Purge() {
	c.lru.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}

// effective resolves opts the way Parse does, so equivalent option lists
// share a key.
func effective(opts []structfile.Option) structfile.Options {
	o := structfile.DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
