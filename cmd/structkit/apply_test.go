// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/structkit/structkit/internal/testutil"
	"github.com/structkit/structkit/pkg/types"
)

const layoutSrc = "cmd/ @stub:go\n  main.go\ndocs/\n  README.md\n"

// applyWorkspace prepares a structure file, a config and a destination
// holding the go stub.
func applyWorkspace(t *testing.T, src, cfgBody string) (file, cfg, dest string) {
	t.Helper()
	dir := t.TempDir()
	file = testutil.MustWriteFile(t, dir, "structure.txt", src)
	cfg = writeConfig(t, dir, cfgBody)
	dest = filepath.Join(dir, "out")
	testutil.MustWriteFile(t, dest, ".structkit/stubs/go.stub", "package main\n")
	return file, cfg, dest
}

func TestApply_CreatesTree(t *testing.T) {
	file, cfg, dest := applyWorkspace(t, layoutSrc, "parse: indent_step: 2\n")

	res := runCLI(t, "apply", file, "--config", cfg, "--out", dest)
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\nstdout:\n%s\nstderr:\n%s", res.code, res.stdout, res.stderr)
	}

	want := []string{"cmd/", "cmd/main.go", "docs/", "docs/README.md"}
	if got := testutil.ListTree(t, dest, ".structkit"); !slices.Equal(got, want) {
		t.Errorf("tree = %v, want %v", got, want)
	}
	if got := testutil.MustReadFile(t, dest, "cmd/main.go"); got != "package main\n" {
		t.Errorf("main.go = %q, want stub content", got)
	}
	if !strings.Contains(res.stdout, "4 written") {
		t.Errorf("summary missing:\n%s", res.stdout)
	}

	// re-applying is a no-op
	res = runCLI(t, "apply", file, "--config", cfg, "--out", dest)
	if res.code != types.ExitOK || !strings.Contains(res.stdout, "0 written") {
		t.Errorf("second apply: code %d\n%s", res.code, res.stdout)
	}
}

func TestApply_DryRun(t *testing.T) {
	file, cfg, dest := applyWorkspace(t, layoutSrc, "apply: hooks: post_apply: [\"echo ran > hooked.txt\"]\n")

	res := runCLI(t, "apply", file, "--config", cfg, "--out", dest, "--dry-run")
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}
	if !strings.Contains(res.stdout, "dry run:") {
		t.Errorf("stdout lacks the dry run summary:\n%s", res.stdout)
	}
	for _, p := range []string{"cmd", "docs", "hooked.txt"} {
		if _, err := os.Stat(filepath.Join(dest, p)); !os.IsNotExist(err) {
			t.Errorf("%s exists after a dry run", p)
		}
	}
}

func TestApply_DeletesRemovedEntries(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantKept bool
	}{
		{"delete", nil, false},
		{"no delete", []string{"--no-delete"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, cfg, dest := applyWorkspace(t, layoutSrc, "parse: indent_step: 2\n")
			if res := runCLI(t, "apply", file, "--config", cfg, "--out", dest); res.code != types.ExitOK {
				t.Fatalf("first apply: code %d\n%s", res.code, res.stderr)
			}

			testutil.MustWriteFile(t, filepath.Dir(file), "structure.txt", "cmd/ @stub:go\n  main.go\n")
			args := append([]string{"apply", file, "--config", cfg, "--out", dest}, tt.args...)
			if res := runCLI(t, args...); res.code != types.ExitOK {
				t.Fatalf("second apply: code %d\n%s", res.code, res.stderr)
			}

			_, err := os.Stat(filepath.Join(dest, "docs", "README.md"))
			if kept := err == nil; kept != tt.wantKept {
				t.Errorf("docs/README.md kept = %v, want %v", kept, tt.wantKept)
			}
		})
	}
}

func TestApply_Errors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		prepare func(t *testing.T, dest string)
		want    types.ExitCode
		wantErr string
	}{
		{
			name:    "structural violation",
			src:     skipLevelSrc,
			want:    types.ExitFindings,
			wantErr: "indent-skip-level",
		},
		{
			name:    "missing stub",
			src:     "a.txt @stub:nope\n",
			want:    types.ExitUsage,
			wantErr: "stub-not-found",
		},
		{
			name: "file in the way of a directory",
			src:  layoutSrc,
			prepare: func(t *testing.T, dest string) {
				testutil.MustWriteFile(t, dest, "cmd", "not a dir\n")
			},
			want:    types.ExitUsage,
			wantErr: "apply-conflict",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file, cfg, dest := applyWorkspace(t, tt.src, "parse: indent_step: 2\n")
			if tt.prepare != nil {
				tt.prepare(t, dest)
			}

			res := runCLI(t, "apply", file, "--config", cfg, "--out", dest)
			if res.code != tt.want {
				t.Errorf("exit code = %d, want %d\n%s", res.code, tt.want, res.stderr)
			}
			if !strings.Contains(res.stderr, tt.wantErr) {
				t.Errorf("stderr lacks %q:\n%s", tt.wantErr, res.stderr)
			}
		})
	}
}

func TestApply_Hooks(t *testing.T) {
	const cfgBody = `apply: hooks: {
	pre_apply: ["echo $STRUCTKIT_PHASE > pre.txt"]
	post_apply: ["echo $STRUCTKIT_PHASE $STRUCTKIT_CREATED > post.txt"]
}
`

	t.Run("run around apply", func(t *testing.T) {
		file, cfg, dest := applyWorkspace(t, "a.txt\n", cfgBody)

		res := runCLI(t, "apply", file, "--config", cfg, "--out", dest)
		if res.code != types.ExitOK {
			t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
		}
		if got := testutil.MustReadFile(t, dest, "pre.txt"); got != "pre_apply\n" {
			t.Errorf("pre.txt = %q", got)
		}
		if got := testutil.MustReadFile(t, dest, "post.txt"); got != "post_apply a.txt\n" {
			t.Errorf("post.txt = %q", got)
		}
	})

	t.Run("no hooks", func(t *testing.T) {
		file, cfg, dest := applyWorkspace(t, "a.txt\n", cfgBody)

		res := runCLI(t, "apply", file, "--config", cfg, "--out", dest, "--no-hooks")
		if res.code != types.ExitOK {
			t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
		}
		for _, p := range []string{"pre.txt", "post.txt"} {
			if _, err := os.Stat(filepath.Join(dest, p)); !os.IsNotExist(err) {
				t.Errorf("%s written with --no-hooks", p)
			}
		}
	})

	t.Run("failing pre hook stops apply", func(t *testing.T) {
		file, cfg, dest := applyWorkspace(t, "a.txt\n", "apply: hooks: pre_apply: [\"exit 3\"]\n")

		res := runCLI(t, "apply", file, "--config", cfg, "--out", dest)
		if res.code != types.ExitUsage {
			t.Errorf("exit code = %d, want %d", res.code, types.ExitUsage)
		}
		if !strings.Contains(res.stderr, "hook-failed") {
			t.Errorf("stderr lacks the hook issue:\n%s", res.stderr)
		}
		if _, err := os.Stat(filepath.Join(dest, "a.txt")); !os.IsNotExist(err) {
			t.Error("a.txt created after a failing pre_apply hook")
		}
	})
}

func TestTree(t *testing.T) {
	_, file, cfg := workspace(t, layoutSrc)

	res := runCLI(t, "tree", file, "--config", cfg)
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}
	for _, want := range []string{"cmd/", "main.go", "@stub:go", "docs/", "README.md"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("tree lacks %q:\n%s", want, res.stdout)
		}
	}
}

func TestTree_Paths(t *testing.T) {
	_, file, cfg := workspace(t, layoutSrc)

	res := runCLI(t, "tree", file, "--config", cfg, "--paths")
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}

	lines := strings.Split(strings.TrimSpace(res.stdout), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), res.stdout)
	}
	if lines[0] != "cmd/" || !strings.HasPrefix(lines[1], "cmd/main.go") {
		t.Errorf("unexpected order:\n%s", res.stdout)
	}
	if !strings.Contains(lines[1], "stub go from cmd") {
		t.Errorf("inherited stub not shown: %q", lines[1])
	}
	if lines[3] != "docs/README.md" {
		t.Errorf("last line = %q", lines[3])
	}
}
