// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/structkit/structkit/internal/config"
	"github.com/structkit/structkit/internal/testutil"
	"github.com/structkit/structkit/pkg/types"
)

func TestConfigDump(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir, "parse: indent_step: 4\napply: delete_removed: false\n")

	res := runCLI(t, "config", "dump", "--config", cfg)
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}
	for _, want := range []string{"indent_step: 4", "delete_removed: false", `structure_file: "structure.txt"`} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("dump lacks %q:\n%s", want, res.stdout)
		}
	}

	// the dump is itself a loadable config
	dumped := testutil.MustWriteFile(t, dir, "dumped.cue", res.stdout)
	again := runCLI(t, "config", "dump", "--config", dumped)
	if again.stdout != res.stdout {
		t.Errorf("dump of the dump differs:\n%s\nvs\n%s", again.stdout, res.stdout)
	}
}

func TestConfigShow(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), "apply: stubs_dir: \"templates\"\n")

	res := runCLI(t, "config", "show", "--config", cfg)
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}
	for _, want := range []string{cfg, "stubs_dir", "templates", "pre_apply"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("show lacks %q:\n%s", want, res.stdout)
		}
	}
}

func TestConfigPath(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), "parse: indent_step: 2\n")

	res := runCLI(t, "config", "path", "--config", cfg)
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}
	if strings.TrimSpace(res.stdout) != cfg {
		t.Errorf("stdout = %q, want %q", res.stdout, cfg)
	}
}

func TestConfig_InvalidFile(t *testing.T) {
	cfg := writeConfig(t, t.TempDir(), "parse: indent_step: 0\n")

	res := runCLI(t, "config", "show", "--config", cfg)
	if res.code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", res.code, types.ExitUsage)
	}
	if !strings.Contains(res.stderr, "config-load-failed") {
		t.Errorf("stderr lacks the config issue:\n%s", res.stderr)
	}
}

func TestConfigInit_Local(t *testing.T) {
	// Not parallel: changes the working directory.
	dir := t.TempDir()
	defer testutil.MustChdir(t, dir)()

	res := runCLI(t, "config", "init", "--local")
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}
	data, err := os.ReadFile(filepath.Join(dir, config.LocalConfigFile))
	if err != nil {
		t.Fatalf("config not written: %v", err)
	}
	if string(data) != config.GenerateCUE(config.DefaultConfig()) {
		t.Errorf("written config is not the default:\n%s", data)
	}

	// the new file is picked up without --config
	if res := runCLI(t, "config", "path"); strings.TrimSpace(res.stdout) != config.LocalConfigFile {
		t.Errorf("config path = %q, want %q", res.stdout, config.LocalConfigFile)
	}

	if res := runCLI(t, "config", "init", "--local"); res.code != types.ExitUsage {
		t.Errorf("second init exit code = %d, want %d", res.code, types.ExitUsage)
	}
	if res := runCLI(t, "config", "init", "--local", "--force"); res.code != types.ExitOK {
		t.Errorf("init --force exit code = %d\n%s", res.code, res.stderr)
	}
}

func TestExplain(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		want     types.ExitCode
		contains string
	}{
		{"list", nil, types.ExitOK, "indent-skip-level"},
		{"diagnostic code", []string{"indent-skip-level"}, types.ExitOK, "indent"},
		{"error id", []string{"stub-not-found"}, types.ExitOK, "stub"},
		{"unknown", []string{"no-such-id"}, types.ExitUsage, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeConfig(t, t.TempDir(), "parse: indent_step: 2\n")
			args := append([]string{"explain", "--config", cfg}, tt.args...)

			res := runCLI(t, args...)
			if res.code != tt.want {
				t.Fatalf("exit code = %d, want %d\n%s", res.code, tt.want, res.stderr)
			}
			if !strings.Contains(strings.ToLower(res.stdout), tt.contains) {
				t.Errorf("output lacks %q:\n%s", tt.contains, res.stdout)
			}
		})
	}
}

func TestConfigInit_User(t *testing.T) {
	// Not parallel: mutates process environment.
	home := t.TempDir()
	defer testutil.IsolateUserConfig(t, home)()

	res := runCLI(t, "config", "init")
	if res.code != types.ExitOK {
		t.Fatalf("exit code = %d\n%s", res.code, res.stderr)
	}

	want := filepath.Join(testutil.UserConfigDir(home), config.AppName, config.ConfigFileName+"."+config.ConfigFileExt)
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("user config not written at %s: %v", want, err)
	}
	if !strings.Contains(res.stdout, want) {
		t.Errorf("stdout does not name %s:\n%s", want, res.stdout)
	}
}
