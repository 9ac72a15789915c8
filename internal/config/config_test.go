// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/structkit/structkit/internal/issue"
	"github.com/structkit/structkit/internal/testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	testutil.MustMkdirAll(t, filepath.Dir(path), 0o755)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// isolatedOptions points every lookup location at empty temp directories.
func isolatedOptions(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{
		WorkDir:       t.TempDir(),
		ConfigDirPath: t.TempDir(),
	}
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.StructureFile != "structure.txt" {
		t.Errorf("StructureFile = %q", cfg.StructureFile)
	}
	if cfg.Parse.IndentStep != 2 || cfg.Parse.Strict {
		t.Errorf("Parse = %+v", cfg.Parse)
	}
	if !cfg.Format.NormalizeAnnotations || !cfg.Format.TrimTrailingWhitespace || cfg.Format.PreserveLineEndings {
		t.Errorf("Format = %+v", cfg.Format)
	}
	if cfg.Apply.StubsDir != ".structkit/stubs" || cfg.Apply.CacheFile != ".structkit/cache.toml" {
		t.Errorf("Apply paths = %q, %q", cfg.Apply.StubsDir, cfg.Apply.CacheFile)
	}
	if !cfg.Apply.DeleteRemoved {
		t.Error("expected delete_removed to be true by default")
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto || cfg.UI.Verbose {
		t.Errorf("UI = %+v", cfg.UI)
	}
	if ok, errs := cfg.IsValid(); !ok {
		t.Errorf("default config is invalid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG lookup is Linux-only")
	}

	restore := testutil.MustSetenv(t, "XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	defer restore()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}

	home := t.TempDir()
	defer testutil.IsolateUserConfig(t, home)()

	dir, err = ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if want := filepath.Join(home, ".config", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want none", path)
	}
	if cfg.Parse.IndentStep != 2 || cfg.StructureFile != "structure.txt" {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if len(cfg.Apply.Hooks.PreApply) != 0 {
		t.Errorf("PreApply = %v, want none", cfg.Apply.Hooks.PreApply)
	}
}

func TestLoad_LocalFileMergesOverDefaults(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.WorkDir, LocalConfigFile), `
parse: indent_step: 4
apply: {
	hooks: post_apply: ["echo done"]
	file_perm: "0600"
}
ui: color_scheme: "dark"
`)

	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != filepath.Join(opts.WorkDir, LocalConfigFile) {
		t.Errorf("resolved path = %q", path)
	}
	if cfg.Parse.IndentStep != 4 {
		t.Errorf("IndentStep = %d, want 4", cfg.Parse.IndentStep)
	}
	if len(cfg.Apply.Hooks.PostApply) != 1 || cfg.Apply.Hooks.PostApply[0] != "echo done" {
		t.Errorf("PostApply = %v", cfg.Apply.Hooks.PostApply)
	}
	if cfg.Apply.FilePerm != "0600" {
		t.Errorf("FilePerm = %q", cfg.Apply.FilePerm)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("ColorScheme = %q", cfg.UI.ColorScheme)
	}
	// untouched keys keep defaults
	if cfg.Apply.StubsDir != ".structkit/stubs" || !cfg.Format.NormalizeAnnotations {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoad_LocalFileWinsOverUserFile(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.WorkDir, LocalConfigFile), `structure_file: "local.txt"`)
	writeFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), `structure_file: "user.txt"`)

	cfg, _, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if cfg.StructureFile != "local.txt" {
		t.Errorf("StructureFile = %q, want local.txt", cfg.StructureFile)
	}
}

func TestLoad_UserFile(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.ConfigDirPath, "config.cue"), `parse: strict: true`)

	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if !cfg.Parse.Strict {
		t.Error("expected strict from user config")
	}
	if !strings.HasSuffix(path, "config.cue") {
		t.Errorf("resolved path = %q", path)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	custom := filepath.Join(t.TempDir(), "custom.cue")
	writeFile(t, custom, `format: preserve_line_endings: true`)
	// a local file must be ignored when --config is given
	writeFile(t, filepath.Join(opts.WorkDir, LocalConfigFile), `format: preserve_line_endings: false`)
	opts.ConfigFilePath = custom

	cfg, path, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != custom || !cfg.Format.PreserveLineEndings {
		t.Errorf("path = %q, PreserveLineEndings = %v", path, cfg.Format.PreserveLineEndings)
	}
}

func TestLoad_CustomPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	opts := isolatedOptions(t)
	opts.ConfigFilePath = filepath.Join(t.TempDir(), "missing.cue")

	_, _, err := loadWithOptions(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error for missing custom config")
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected ActionableError, got %T", err)
	}
	if ae.Issue != issue.ConfigLoadFailedId {
		t.Errorf("Issue = %q", ae.Issue)
	}
}

func TestLoad_InvalidCUE_ReturnsError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{name: "syntax", content: `parse: {`, wantSub: LocalConfigFile},
		{name: "out of range", content: `parse: indent_step: 0`, wantSub: "indent_step"},
		{name: "bad scheme", content: `ui: color_scheme: "neon"`, wantSub: "color_scheme"},
		{name: "bad perm", content: `apply: dir_perm: "999"`, wantSub: "dir_perm"},
		{name: "unknown field", content: `colour: "red"`, wantSub: "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := isolatedOptions(t)
			writeFile(t, filepath.Join(opts.WorkDir, LocalConfigFile), tt.content)

			_, _, err := loadWithOptions(context.Background(), opts)
			if err == nil {
				t.Fatal("expected error")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("expected ActionableError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	restore := testutil.MustSetenv(t, "STRUCTKIT_PARSE_INDENT_STEP", "3")
	defer restore()
	restoreStrict := testutil.MustSetenv(t, "STRUCTKIT_PARSE_STRICT", "true")
	defer restoreStrict()

	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.WorkDir, LocalConfigFile), `parse: indent_step: 4`)

	cfg, _, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if cfg.Parse.IndentStep != 3 {
		t.Errorf("IndentStep = %d, want env override 3", cfg.Parse.IndentStep)
	}
	if !cfg.Parse.Strict {
		t.Error("expected strict from env")
	}
}

func TestLoad_EnvOverrideIsValidated(t *testing.T) {
	restore := testutil.MustSetenv(t, "STRUCTKIT_UI_COLOR_SCHEME", "neon")
	defer restore()

	_, _, err := loadWithOptions(context.Background(), isolatedOptions(t))
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error should wrap ErrInvalidConfig: %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := loadWithOptions(ctx, isolatedOptions(t)); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestProvider(t *testing.T) {
	t.Parallel()

	p := NewProvider()
	opts := isolatedOptions(t)

	path, err := p.Path(opts)
	if err != nil || path != "" {
		t.Errorf("Path() = %q, %v", path, err)
	}

	local := filepath.Join(opts.WorkDir, LocalConfigFile)
	writeFile(t, local, `structure_file: "tree.txt"`)

	path, err = p.Path(opts)
	if err != nil || path != local {
		t.Errorf("Path() = %q, %v; want %q", path, err, local)
	}

	cfg, err := p.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.StructureFile != "tree.txt" {
		t.Errorf("StructureFile = %q", cfg.StructureFile)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Parse.IndentStep = 4
	cfg.Apply.EnvFile = ".env"
	cfg.Apply.Hooks.PreApply = []string{`echo "pre"`}

	opts := isolatedOptions(t)
	writeFile(t, filepath.Join(opts.WorkDir, LocalConfigFile), GenerateCUE(cfg))

	loaded, _, err := loadWithOptions(context.Background(), opts)
	if err != nil {
		t.Fatalf("generated CUE does not load: %v", err)
	}
	if loaded.Parse.IndentStep != 4 || loaded.Apply.EnvFile != ".env" {
		t.Errorf("loaded = %+v", loaded)
	}
	if len(loaded.Apply.Hooks.PreApply) != 1 || loaded.Apply.Hooks.PreApply[0] != `echo "pre"` {
		t.Errorf("PreApply = %v", loaded.Apply.Hooks.PreApply)
	}
}

func TestWriteDefault(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "config.cue")
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `structure_file: "structure.txt"`) {
		t.Errorf("unexpected content:\n%s", data)
	}

	if err := WriteDefault(path, false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second WriteDefault() = %v, want ErrConfigExists", err)
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("forced WriteDefault() error: %v", err)
	}
}

func TestProvider_ReloadsOnChange(t *testing.T) {
	t.Parallel()

	p := NewProvider()
	opts := isolatedOptions(t)
	local := filepath.Join(opts.WorkDir, LocalConfigFile)
	writeFile(t, local, "parse: indent_step: 4\n")

	first, err := p.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	first.Apply.Hooks.PreApply = append(first.Apply.Hooks.PreApply, "echo mutated")

	again, err := p.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if again.Parse.IndentStep != 4 || len(again.Apply.Hooks.PreApply) != 0 {
		t.Errorf("cached load = %+v", again)
	}

	// a different size invalidates the entry even within one mtime tick
	writeFile(t, local, "parse: {indent_step: 3, strict: true}\n")
	changed, err := p.Load(context.Background(), opts)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if changed.Parse.IndentStep != 3 || !changed.Parse.Strict {
		t.Errorf("reloaded = %+v", changed.Parse)
	}
}
