// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs a callback when structure files change.
//
// Files are watched through their parent directories so that editors which
// save by writing a temporary file and renaming it over the original are
// still seen. Extra doublestar patterns, relative to BaseDir, widen the set
// to whole trees such as a stubs directory. Bursts of events are coalesced
// into one callback after a quiet period.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

var (
	// ErrNothingToWatch is returned by New when neither Files nor Patterns is set.
	ErrNothingToWatch = errors.New("watch: no files or patterns")
	// ErrAlreadyRunning is returned by a second call to Run.
	ErrAlreadyRunning = errors.New("watch: Run called more than once")

	// editorNoise matches the base names of swap and backup files.
	editorNoise = []string{"*.swp", "*.swo", "*~", ".#*", "4913"}
	// skipDirs are never descended into when walking for patterns.
	skipDirs = []string{"**/.git", "**/node_modules"}
)

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// BaseDir anchors relative Files and Patterns. Empty means the working directory.
		BaseDir string
		// Files are watched individually.
		Files []string
		// Patterns are doublestar globs matched against slash-separated paths
		// relative to BaseDir.
		Patterns []string
		// Debounce is the quiet period after the last event.
		Debounce time.Duration
		// ClearScreen writes an ANSI clear sequence to Stdout before each callback.
		ClearScreen bool
		// OnChange receives the sorted changed paths relative to BaseDir.
		// A returned error is reported on Stderr and watching continues.
		OnChange func(ctx context.Context, changed []string) error
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// Watcher dispatches debounced change notifications. Run may be called once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		base     string
		files    map[string]struct{}
		debounce time.Duration
		stdout   io.Writer
		stderr   io.Writer
		started  atomic.Bool
	}
)

// Validate checks the patterns and that something is watched.
func (c Config) Validate() error {
	if len(c.Files) == 0 && len(c.Patterns) == 0 {
		return ErrNothingToWatch
	}
	var errs []error
	for _, pat := range c.Patterns {
		if !doublestar.ValidatePattern(pat) {
			errs = append(errs, fmt.Errorf("watch: invalid pattern %q: %w", pat, doublestar.ErrBadPattern))
		}
	}
	return errors.Join(errs...)
}

// New registers the watched directories. The watcher holds OS resources
// until Run returns or Close is called.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := cfg.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		base = wd
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		base:     base,
		files:    make(map[string]struct{}, len(cfg.Files)),
		debounce: cfg.Debounce,
		stdout:   cfg.Stdout,
		stderr:   cfg.Stderr,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.stderr == nil {
		w.stderr = os.Stderr
	}

	if w.fsw, err = fsnotify.NewWatcher(); err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	if err := w.register(); err != nil {
		_ = w.fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) register() error {
	dirs := make(map[string]struct{})
	for _, f := range w.cfg.Files {
		abs := f
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(w.base, f)
		}
		abs = filepath.Clean(abs)
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	if len(w.cfg.Patterns) > 0 {
		err := filepath.WalkDir(w.base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				slog.Debug("watch: skipping unreadable path", "path", path, "error", err)
				return nil
			}
			if !d.IsDir() {
				return nil
			}
			if w.skipDir(path) {
				return filepath.SkipDir
			}
			dirs[path] = struct{}{}
			return nil
		})
		if err != nil {
			return fmt.Errorf("watch: walk %s: %w", w.base, err)
		}
	}

	for _, dir := range slices.Sorted(maps.Keys(dirs)) {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}
	return nil
}

// Close releases the watcher without running it.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run processes events until ctx is done. The callback runs on the event loop,
// so events arriving meanwhile are coalesced into the next batch.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			fmt.Fprintf(w.stderr, "watch: close: %v\n", err)
		}
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, ok := w.match(evt)
			if !ok {
				continue
			}
			if evt.Has(fsnotify.Create) && len(w.cfg.Patterns) > 0 {
				w.addIfDir(evt.Name)
			}
			pending[rel] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			fmt.Fprintf(w.stderr, "watch: %v\n", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := slices.Sorted(maps.Keys(pending))
			clear(pending)
			w.fire(ctx, changed)
		}
	}
}

func (w *Watcher) fire(ctx context.Context, changed []string) {
	if ctx.Err() != nil || w.cfg.OnChange == nil {
		return
	}
	if w.cfg.ClearScreen {
		fmt.Fprint(w.stdout, "\033[2J\033[H")
	}
	slog.Debug("watch: change detected", "paths", changed)
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		fmt.Fprintf(w.stderr, "watch: %v\n", err)
	}
}

// match reports whether evt concerns a watched path and returns that path
// relative to the base directory.
func (w *Watcher) match(evt fsnotify.Event) (string, bool) {
	if evt.Op == fsnotify.Chmod {
		return "", false
	}
	name := filepath.Clean(evt.Name)
	if isEditorNoise(filepath.Base(name)) {
		return "", false
	}

	rel, err := filepath.Rel(w.base, name)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)

	if _, ok := w.files[name]; ok {
		return rel, true
	}
	for _, pat := range w.cfg.Patterns {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return rel, true
		}
	}
	return "", false
}

func (w *Watcher) addIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.skipDir(path) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		fmt.Fprintf(w.stderr, "watch: add %s: %v\n", path, err)
	}
}

func (w *Watcher) skipDir(path string) bool {
	rel, err := filepath.Rel(w.base, path)
	if err != nil || rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pat := range skipDirs {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

func isEditorNoise(base string) bool {
	for _, pat := range editorNoise {
		if ok, _ := doublestar.Match(pat, base); ok {
			return true
		}
	}
	return false
}

// isFatal reports errors after which fsnotify delivers no more events.
func isFatal(err error) bool {
	return slices.ContainsFunc(fatalErrnos, func(target error) bool {
		return errors.Is(err, target)
	})
}
