// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/config"
	"github.com/structkit/structkit/internal/watch"
	"github.com/structkit/structkit/pkg/types"
)

// watchStructure runs once, then again after every change to the structure
// file, until the command context is canceled. Failures of a single run are
// reported and watching continues.
func (a *App) watchStructure(cmd *cobra.Command, cfg *config.Config, args []string, run func(ctx context.Context) error) error {
	path := cfg.StructureFile
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}

	once := func(ctx context.Context) {
		if err := run(ctx); err != nil {
			fmt.Fprintln(a.stderr, WarningStyle.Render("!")+" "+formatErrorForDisplay(err, a.flags.verbose))
		}
	}

	once(cmd.Context())
	fmt.Fprintf(a.stderr, "\n%s Watching %s for changes (Ctrl+C to stop)...\n", CmdStyle.Render("→"), path)

	w, err := watch.New(watch.Config{
		Files: []string{path},
		OnChange: func(ctx context.Context, _ []string) error {
			fmt.Fprintf(a.stderr, "\n%s %s changed\n", CmdStyle.Render("→"), path)
			once(ctx)
			return nil
		},
		Stdout: a.stdout,
		Stderr: a.stderr,
	})
	if err != nil {
		return a.fail(cmd, types.ExitUsage, fmt.Errorf("failed to start watcher: %w", err))
	}
	return w.Run(cmd.Context())
}
