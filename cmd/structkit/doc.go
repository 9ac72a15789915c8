// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the structkit command tree.
//
// Every command is built by a newXCommand(app *App) constructor and reaches
// configuration, parsing and output through the App composition root, so
// tests can run commands against temporary directories and buffers.
package cmd
