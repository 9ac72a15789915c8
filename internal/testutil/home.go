// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"path/filepath"
	"runtime"
	"testing"
)

// IsolateUserConfig points the home directory, and the platform variable the
// user config directory is derived from, at dir. It returns a function that
// restores the previous environment.
//
//	defer testutil.IsolateUserConfig(t, t.TempDir())()
func IsolateUserConfig(t testing.TB, dir string) func() {
	t.Helper()

	var restore []func()
	switch runtime.GOOS {
	case "windows":
		restore = append(restore,
			MustSetenv(t, "USERPROFILE", dir),
			MustSetenv(t, "APPDATA", filepath.Join(dir, "AppData", "Roaming")))
	case "darwin":
		restore = append(restore, MustSetenv(t, "HOME", dir))
	default:
		restore = append(restore,
			MustSetenv(t, "HOME", dir),
			MustUnsetenv(t, "XDG_CONFIG_HOME"))
	}

	return func() {
		for i := len(restore) - 1; i >= 0; i-- {
			restore[i]()
		}
	}
}

// UserConfigDir returns the directory IsolateUserConfig(t, home) makes the
// platform config root, before the application name is appended.
func UserConfigDir(home string) string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support")
	default:
		return filepath.Join(home, ".config")
	}
}
