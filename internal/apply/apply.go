// SPDX-License-Identifier: MPL-2.0

// Package apply reconciles a destination directory with a structure plan.
//
// Directories and files missing from the destination are created, files are
// filled from stubs, and paths an earlier apply created that are no longer
// declared are removed when they are unchanged. Nothing outside the
// destination root is ever touched.
package apply

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/structkit/structkit/internal/cache"
	"github.com/structkit/structkit/internal/plan"
)

const (
	// ActionCreate creates a missing path.
	ActionCreate Action = iota
	// ActionOverwrite rewrites an existing file (Force).
	ActionOverwrite
	// ActionExists leaves an existing path alone.
	ActionExists
	// ActionDelete removes a path an earlier apply created.
	ActionDelete
	// ActionKeepModified keeps a stale file whose content changed since it was created.
	ActionKeepModified
	// ActionKeepNonEmpty keeps a stale directory that still has content.
	ActionKeepNonEmpty
)

// ErrConflict is returned when a directory is declared where a file exists or
// the other way around.
var ErrConflict = errors.New("path conflict")

type (
	// Action is what happened, or would happen in a dry run, to one path.
	Action int

	// Request describes one apply.
	Request struct {
		// Root is the destination directory. It is created when missing.
		Root string
		Plan plan.Plan
		// StubsDir holds stub files. Relative paths resolve against Root.
		StubsDir string
		// CachePath is the cache file. Relative paths resolve against Root.
		CachePath string
		DirPerm   fs.FileMode
		FilePerm  fs.FileMode
		// Force rewrites existing files with their stub content.
		Force bool
		// DeleteRemoved removes cached paths no longer in the plan.
		DeleteRemoved bool
		// DryRun reports the actions without writing anything.
		DryRun bool
	}

	// Change records one action.
	Change struct {
		Action Action
		Path   string
		Dir    bool
		Stub   string
	}

	// Report lists every change in the order it was made.
	Report struct {
		Changes []Change
	}

	// ConflictError names a path whose kind on disk differs from the plan.
	ConflictError struct {
		Path    string
		WantDir bool
	}

	applier struct {
		req   Request
		root  string
		stubs *stubSource
		prev  *cache.Store
		next  *cache.Store
		rep   Report
	}
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionOverwrite:
		return "overwrite"
	case ActionExists:
		return "exists"
	case ActionDelete:
		return "delete"
	case ActionKeepModified:
		return "keep-modified"
	case ActionKeepNonEmpty:
		return "keep-non-empty"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// MarshalText renders the action by name.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (e *ConflictError) Error() string {
	if e.WantDir {
		return fmt.Sprintf("%s: declared as a directory but a file exists", e.Path)
	}
	return fmt.Sprintf("%s: declared as a file but a directory exists", e.Path)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// Created returns the paths created or rewritten by the run.
func (r Report) Created() []string {
	var out []string
	for _, c := range r.Changes {
		if c.Action == ActionCreate || c.Action == ActionOverwrite {
			out = append(out, c.Path)
		}
	}
	return out
}

// Count returns the number of changes with action a.
func (r Report) Count(a Action) int {
	n := 0
	for _, c := range r.Changes {
		if c.Action == a {
			n++
		}
	}
	return n
}

// Apply reconciles req.Root with req.Plan. The cache is updated even when an
// entry fails, so that paths created before the failure are still tracked.
func Apply(ctx context.Context, req Request) (rep Report, err error) {
	root, err := filepath.Abs(req.Root)
	if err != nil {
		return Report{}, fmt.Errorf("resolve destination: %w", err)
	}

	a := &applier{
		req:   req,
		root:  root,
		stubs: newStubSource(resolve(root, req.StubsDir)),
		next:  cache.New(),
	}

	cachePath := resolve(root, req.CachePath)
	if a.prev, err = cache.Load(cachePath); err != nil {
		return Report{}, err
	}

	if !req.DryRun {
		if err := os.MkdirAll(root, req.DirPerm); err != nil {
			return Report{}, fmt.Errorf("create destination: %w", err)
		}
		defer func() {
			if saveErr := a.next.Save(cachePath, req.DirPerm); saveErr != nil && err == nil {
				err = saveErr
			}
			rep = a.rep
		}()
	}

	declared := make(map[string]bool, len(req.Plan.Entries))
	for _, e := range req.Plan.Entries {
		if err := ctx.Err(); err != nil {
			return a.rep, err
		}
		declared[e.Path] = true

		if err := a.entry(e); err != nil {
			return a.rep, err
		}
	}

	if req.DeleteRemoved {
		if err := a.removeStale(ctx, declared); err != nil {
			return a.rep, err
		}
	} else {
		// Without deletion, stale paths stay tracked for a later run.
		for _, e := range a.prev.Entries() {
			if !declared[e.Path] {
				a.next.Put(e)
			}
		}
	}

	return a.rep, nil
}

func resolve(root, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}

func (a *applier) record(c Change) {
	slog.Debug("apply", "action", c.Action.String(), "path", c.Path, "dry_run", a.req.DryRun)
	a.rep.Changes = append(a.rep.Changes, c)
}

func (a *applier) entry(e plan.Entry) error {
	target, err := SafeJoin(a.root, e.Path)
	if err != nil {
		return err
	}
	if e.Dir {
		return a.dir(e, target)
	}
	return a.file(e, target)
}

func (a *applier) dir(e plan.Entry, target string) error {
	info, err := os.Lstat(target)
	switch {
	case err == nil && info.IsDir():
		a.keepTracked(e.Path)
		a.record(Change{Action: ActionExists, Path: e.Path, Dir: true})
		return nil

	case err == nil:
		return &ConflictError{Path: e.Path, WantDir: true}

	case errors.Is(err, fs.ErrNotExist):
		if !a.req.DryRun {
			if err := os.MkdirAll(target, a.req.DirPerm); err != nil {
				return fmt.Errorf("mkdir %s: %w", e.Path, err)
			}
			a.next.Put(cache.Entry{Path: e.Path, Dir: true})
		}
		a.record(Change{Action: ActionCreate, Path: e.Path, Dir: true})
		return nil

	default:
		return fmt.Errorf("stat %s: %w", e.Path, err)
	}
}

func (a *applier) file(e plan.Entry, target string) error {
	info, err := os.Lstat(target)
	action := ActionCreate
	switch {
	case err == nil && info.IsDir():
		return &ConflictError{Path: e.Path, WantDir: false}

	case err == nil && !a.req.Force:
		a.keepTracked(e.Path)
		a.record(Change{Action: ActionExists, Path: e.Path, Stub: e.Stub})
		return nil

	case err == nil:
		action = ActionOverwrite

	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %s: %w", e.Path, err)
	}

	var content []byte
	if e.Stub != "" {
		if content, err = a.stubs.content(e.Stub); err != nil {
			return &StubError{Stub: e.Stub, Path: e.Path, Err: err}
		}
	}

	if !a.req.DryRun {
		if err := os.MkdirAll(filepath.Dir(target), a.req.DirPerm); err != nil {
			return fmt.Errorf("mkdir %s: %w", filepath.Dir(e.Path), err)
		}
		if err := os.WriteFile(target, content, a.req.FilePerm); err != nil {
			return fmt.Errorf("write %s: %w", e.Path, err)
		}
		a.next.Put(cache.Entry{Path: e.Path, Digest: cache.Digest(content)})
	}
	a.record(Change{Action: action, Path: e.Path, Stub: e.Stub})
	return nil
}

// keepTracked carries a previous cache entry over when the path is still declared.
func (a *applier) keepTracked(p string) {
	if prev, ok := a.prev.Get(p); ok {
		a.next.Put(prev)
	}
}
