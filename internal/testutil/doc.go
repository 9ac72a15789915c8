// SPDX-License-Identifier: MPL-2.0

// Package testutil holds fixture helpers shared by structkit tests. Helpers
// fail the test on error instead of returning it.
//
// Environment helpers (MustSetenv, MustUnsetenv, IsolateUserConfig, MustChdir)
// return a restore function and must not be used from parallel tests.
// Filesystem helpers (MustWriteFile, MustReadFile, MustMkdirAll, ListTree)
// work on forward-slash paths relative to a root.
package testutil
