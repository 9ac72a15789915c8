// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/issue"
	"github.com/structkit/structkit/pkg/types"
)

func newExplainCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "explain [code]",
		Short: "Explain a diagnostic code or error",
		Long: `Show the documentation for a diagnostic code reported by 'structkit check'
or an error id printed by another command. Without an argument, list every
documented id.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			var ids []string
			for _, is := range issue.Values() {
				ids = append(ids, string(is.Id()))
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprintln(app.stdout, TitleStyle.Render("Documented ids"))
				for _, is := range issue.Values() {
					fmt.Fprintln(app.stdout, "  "+CmdStyle.Render(string(is.Id())))
				}
				return nil
			}

			entry := issue.Get(issue.Id(args[0]))
			if entry == nil {
				return app.fail(cmd, types.ExitUsage, issue.NewErrorContext().
					WithOperation("explain").
					WithResource(args[0]).
					WithSuggestion("Run 'structkit explain' to list documented ids").
					Wrap(fmt.Errorf("unknown id %q", args[0])).
					BuildError())
			}

			style := "auto"
			if cfg, err := app.loadConfig(cmd.Context()); err == nil {
				style = cfg.UI.ColorScheme.GlamourStyle()
			}
			rendered, err := entry.Render(style)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, fmt.Errorf("render %s: %w", args[0], err))
			}
			fmt.Fprint(app.stdout, rendered)
			return nil
		},
	}
}
