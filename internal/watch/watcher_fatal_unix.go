// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package watch

import "syscall"

// Out of inotify watches or file descriptors: the watcher stays silent from
// here on.
var fatalErrnos = []error{syscall.ENOSPC, syscall.EMFILE, syscall.ENFILE}
