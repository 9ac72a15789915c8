// SPDX-License-Identifier: MPL-2.0

// Package hooks runs the scripts configured to surround an apply.
//
// Scripts are interpreted by an embedded POSIX shell, so hooks behave the same
// on every platform and need no system shell.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/joho/godotenv"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/structkit/structkit/internal/issue"
)

const (
	// PreApply runs before the destination is touched.
	PreApply Phase = "pre_apply"
	// PostApply runs after a successful apply.
	PostApply Phase = "post_apply"

	// EnvRoot holds the absolute destination root.
	EnvRoot = "STRUCTKIT_ROOT"
	// EnvPhase holds the running phase.
	EnvPhase = "STRUCTKIT_PHASE"
	// EnvCreated holds the created paths, one per line. Empty before the apply.
	EnvCreated = "STRUCTKIT_CREATED"
)

// ErrHookFailed is wrapped by every error a failing hook produces.
var ErrHookFailed = errors.New("hook failed")

type (
	// Phase names when a hook runs.
	Phase string

	// Env is the apply state exported to hook scripts.
	Env struct {
		Root    string
		Created []string
	}

	// Runner holds the hook scripts of both phases.
	Runner struct {
		PreApply  []string
		PostApply []string
		// EnvFile is a dotenv file read before each phase. Relative paths
		// resolve against the destination root; a trailing '?' makes it optional.
		EnvFile string
		Stdout  io.Writer
		Stderr  io.Writer
	}

	// HookError describes a script that failed to parse or exited non-zero.
	HookError struct {
		Phase  Phase
		Index  int
		Status int
		Err    error
	}
)

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s hook #%d: %v", e.Phase, e.Index+1, e.Err)
	}
	return fmt.Sprintf("%s hook #%d exited with status %d", e.Phase, e.Index+1, e.Status)
}

func (e *HookError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrHookFailed, e.Err}
	}
	return []error{ErrHookFailed}
}

// Scripts returns the scripts configured for phase.
func (r *Runner) Scripts(phase Phase) []string {
	switch phase {
	case PreApply:
		return r.PreApply
	case PostApply:
		return r.PostApply
	default:
		return nil
	}
}

// Run executes the scripts of phase in order and stops at the first failure.
func (r *Runner) Run(ctx context.Context, phase Phase, env Env) error {
	scripts := r.Scripts(phase)
	if len(scripts) == 0 {
		return nil
	}

	root, err := filepath.Abs(env.Root)
	if err != nil {
		return fmt.Errorf("resolve hook directory: %w", err)
	}

	vars, err := r.environ(root, phase, env.Created)
	if err != nil {
		return err
	}

	for i, script := range scripts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.runScript(ctx, root, vars, script); err != nil {
			return wrapFailure(phase, i, script, err)
		}
	}
	return nil
}

func (r *Runner) runScript(ctx context.Context, dir string, vars []string, script string) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "hook")
	if err != nil {
		return fmt.Errorf("failed to parse script: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(vars...)),
		interp.StdIO(nil, writerOrDiscard(r.Stdout), writerOrDiscard(r.Stderr)),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	return runner.Run(ctx, prog)
}

// environ merges the process environment, the dotenv file and the structkit
// variables, later sources winning.
func (r *Runner) environ(root string, phase Phase, created []string) ([]string, error) {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}

	if r.EnvFile != "" {
		fromFile, err := readEnvFile(r.EnvFile, root)
		if err != nil {
			return nil, err
		}
		maps.Copy(env, fromFile)
	}

	env[EnvRoot] = root
	env[EnvPhase] = string(phase)
	env[EnvCreated] = strings.Join(created, "\n")

	out := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		out = append(out, k+"="+env[k])
	}
	return out, nil
}

func readEnvFile(path, base string) (map[string]string, error) {
	optional := strings.HasSuffix(path, "?")
	path = strings.TrimSuffix(path, "?")

	full := path
	if !filepath.IsAbs(path) {
		full = filepath.Join(base, filepath.FromSlash(path))
	}

	env, err := godotenv.Read(full)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, issue.NewErrorContext().
			WithOperation("load hook environment").
			WithResource(full).
			WithSuggestion("Check apply.env_file in the configuration").
			WithSuggestion("Append '?' to the path to make the file optional").
			WithIssue(issue.HookFailedId).
			Wrap(err).
			BuildError()
	}
	return env, nil
}

func wrapFailure(phase Phase, index int, script string, err error) error {
	hookErr := &HookError{Phase: phase, Index: index}

	var status interp.ExitStatus
	if errors.As(err, &status) {
		hookErr.Status = int(status)
	} else {
		hookErr.Err = err
	}

	return issue.NewErrorContext().
		WithOperation("run " + string(phase) + " hook").
		WithResource(firstLine(script)).
		WithSuggestion("Run the script by hand from the destination directory").
		WithSuggestion("Use --no-hooks to skip hooks for this apply").
		WithIssue(issue.HookFailedId).
		Wrap(hookErr).
		BuildError()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
