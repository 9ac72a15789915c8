// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/structkit/structkit/internal/testutil"
	"github.com/structkit/structkit/pkg/types"
)

const skipLevelSrc = "a/\n      b.txt\n"

func TestCheck_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		args []string
		want types.ExitCode
	}{
		{"clean", "src/\n  main.go\n", nil, types.ExitOK},
		{"warning only", skipLevelSrc, nil, types.ExitOK},
		{"fail on warning", skipLevelSrc, []string{"--fail-on-warning"}, types.ExitFindings},
		{"strict", skipLevelSrc, []string{"--strict"}, types.ExitFindings},
		{"info is not a warning", "a.txt @later\n", []string{"--fail-on-warning"}, types.ExitOK},
		{"unknown output", "a.txt\n", []string{"--output", "xml"}, types.ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, file, cfg := workspace(t, tt.src)
			args := append([]string{"check", file, "--config", cfg}, tt.args...)

			res := runCLI(t, args...)
			if res.code != tt.want {
				t.Errorf("exit code = %d, want %d\nstdout:\n%s\nstderr:\n%s", res.code, tt.want, res.stdout, res.stderr)
			}
		})
	}
}

func TestCheck_TextReport(t *testing.T) {
	_, file, cfg := workspace(t, skipLevelSrc)

	res := runCLI(t, "check", file, "--config", cfg)
	if !strings.Contains(res.stdout, ":2:") || !strings.Contains(res.stdout, "indent-skip-level") {
		t.Errorf("report does not locate the diagnostic:\n%s", res.stdout)
	}
	if !strings.Contains(res.stdout, "1 warning") {
		t.Errorf("report lacks the summary:\n%s", res.stdout)
	}
}

func TestCheck_JSONReport(t *testing.T) {
	_, file, cfg := workspace(t, skipLevelSrc)

	res := runCLI(t, "check", file, "--config", cfg, "--strict", "--output", "json")
	if res.code != types.ExitFindings {
		t.Fatalf("exit code = %d, want %d", res.code, types.ExitFindings)
	}

	var got struct {
		File    string `json:"file"`
		Summary struct {
			Errors int `json:"errors"`
		} `json:"summary"`
		Diagnostics []struct {
			Line     int    `json:"line"`
			Severity string `json:"severity"`
			Code     string `json:"code"`
		} `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &got); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, res.stdout)
	}
	if got.File != file || got.Summary.Errors != 1 {
		t.Errorf("document = %+v", got)
	}
	if len(got.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v, want exactly one", got.Diagnostics)
	}
	d := got.Diagnostics[0]
	if d.Line != 2 || d.Severity != "error" || d.Code != "indent-skip-level" {
		t.Errorf("diagnostic = %+v", d)
	}
}

func TestCheck_StrictFromConfig(t *testing.T) {
	dir, file, _ := workspace(t, skipLevelSrc)
	cfg := writeConfig(t, dir, "parse: strict: true\n")

	if res := runCLI(t, "check", file, "--config", cfg); res.code != types.ExitFindings {
		t.Errorf("exit code = %d, want %d", res.code, types.ExitFindings)
	}
	if res := runCLI(t, "check", file, "--config", cfg, "--strict=false"); res.code != types.ExitOK {
		t.Errorf("--strict=false exit code = %d, want %d", res.code, types.ExitOK)
	}
}

func TestCheck_MissingStructureFile(t *testing.T) {
	dir, _, cfg := workspace(t, "a.txt\n")

	res := runCLI(t, "check", filepath.Join(dir, "absent.txt"), "--config", cfg)
	if res.code != types.ExitUsage {
		t.Errorf("exit code = %d, want %d", res.code, types.ExitUsage)
	}
	if !strings.Contains(res.stderr, "absent.txt") {
		t.Errorf("stderr does not name the file:\n%s", res.stderr)
	}
}

func TestCheck_StructureFileFromConfig(t *testing.T) {
	dir := t.TempDir()
	file := testutil.MustWriteFile(t, dir, "layout.txt", skipLevelSrc)
	cfg := writeConfig(t, dir, "structure_file: \""+filepath.ToSlash(file)+"\"\n")

	res := runCLI(t, "check", "--config", cfg, "--fail-on-warning")
	if res.code != types.ExitFindings {
		t.Errorf("exit code = %d, want %d\n%s", res.code, types.ExitFindings, res.stderr)
	}
}
