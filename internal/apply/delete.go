// SPDX-License-Identifier: MPL-2.0

package apply

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/structkit/structkit/internal/cache"
)

// removeStale deletes cached paths that are no longer declared, deepest first.
// Files are removed only while their digest matches the recorded one and
// directories only once empty.
func (a *applier) removeStale(ctx context.Context, declared map[string]bool) error {
	var stale []cache.Entry
	for _, e := range a.prev.Entries() {
		if !declared[e.Path] {
			stale = append(stale, e)
		}
	}
	slices.SortStableFunc(stale, func(x, y cache.Entry) int {
		if dx, dy := depth(x.Path), depth(y.Path); dx != dy {
			return dy - dx
		}
		return strings.Compare(x.Path, y.Path)
	})

	// removed tracks deletions so a dry run can judge directory emptiness.
	removed := make(map[string]bool)

	for _, e := range stale {
		if err := ctx.Err(); err != nil {
			return err
		}

		target, err := SafeJoin(a.root, e.Path)
		if err != nil {
			return err
		}

		info, err := os.Lstat(target)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("stat %s: %w", e.Path, err)
		}

		if e.Dir {
			if !info.IsDir() {
				continue
			}
			empty, err := a.emptyAfterRemoval(target, e.Path, removed)
			if err != nil {
				return err
			}
			if !empty {
				a.record(Change{Action: ActionKeepNonEmpty, Path: e.Path, Dir: true})
				continue
			}
		} else {
			if info.IsDir() {
				continue
			}
			digest, err := cache.FileDigest(target)
			if err != nil {
				return err
			}
			if digest != e.Digest {
				a.record(Change{Action: ActionKeepModified, Path: e.Path})
				continue
			}
		}

		if !a.req.DryRun {
			if err := os.Remove(target); err != nil {
				return fmt.Errorf("remove %s: %w", e.Path, err)
			}
		}
		removed[e.Path] = true
		a.record(Change{Action: ActionDelete, Path: e.Path, Dir: e.Dir})
	}

	return nil
}

func (a *applier) emptyAfterRemoval(target, rel string, removed map[string]bool) (bool, error) {
	children, err := os.ReadDir(target)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", rel, err)
	}
	for _, c := range children {
		if !removed[path.Join(rel, c.Name())] {
			return false, nil
		}
	}
	return true, nil
}

func depth(p string) int {
	return strings.Count(p, "/")
}
