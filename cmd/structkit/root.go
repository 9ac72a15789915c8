// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/structkit/structkit/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "structkit",
		Short: "Scaffold directory trees from an indented structure file",
		Long: TitleStyle.Render("structkit") + SubtitleStyle.Render(" - scaffold directory trees from an indented structure file") + `

A structure file lists one path per line. Indentation nests entries, a
trailing '/' marks a directory, and annotations attach stubs:

  cmd/ @stub:go
    main.go
  docs/
    README.md @stub:readme

` + SubtitleStyle.Render("Examples:") + `
  structkit check               Report problems in structure.txt
  structkit fmt --write         Rewrite structure.txt canonically
  structkit tree                Show the parsed tree
  structkit apply --out app     Create the tree under ./app
  structkit explain indent-skip-level`,
		PersistentPreRun: func(*cobra.Command, []string) {
			app.setupLogging()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.configPath, "config", "", "config file (default ./structkit.cue, then the user config directory)")

	rootCmd.AddCommand(
		newCheckCommand(app),
		newFmtCommand(app),
		newTreeCommand(app),
		newApplyCommand(app),
		newExplainCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the status the command reported.
// It is called by main.main.
func Execute() {
	app, err := NewApp(Dependencies{})
	if err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:")+" "+err.Error())
		os.Exit(int(types.ExitUsage))
	}

	if err := fang.Execute(
		context.Background(),
		newRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(int(exitCode(err)))
	}
}

// exitCode maps a command error to the process status. Errors that are not
// ExitErrors come from cobra itself: unknown commands and bad flags.
func exitCode(err error) types.ExitCode {
	if err == nil {
		return types.ExitOK
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return types.ExitUsage
}
