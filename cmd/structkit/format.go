// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/config"
	"github.com/structkit/structkit/pkg/structfile"
	"github.com/structkit/structkit/pkg/types"
)

type fmtFlags struct {
	write               bool
	check               bool
	keepAnnotationOrder bool
	keepLineEndings     bool
	watch               bool
}

func newFmtCommand(app *App) *cobra.Command {
	var flags fmtFlags

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a structure file in canonical form",
		Long: `Re-indent entries to exact multiples of the indent step, order annotations
as @stub, @include, @exclude and normalize whitespace and line endings.
Comments and inline comments are kept.

Without flags the formatted text is printed. --write rewrites the file in
place and --check exits 1 when the file is not formatted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			if !cmd.Flags().Changed("keep-annotation-order") {
				flags.keepAnnotationOrder = !cfg.Format.NormalizeAnnotations
			}
			if !cmd.Flags().Changed("keep-line-endings") {
				flags.keepLineEndings = cfg.Format.PreserveLineEndings
			}

			if flags.watch {
				return app.watchStructure(cmd, cfg, args, func(context.Context) error {
					_, err := app.runFmt(cfg, args, flags)
					return err
				})
			}

			code, err := app.runFmt(cfg, args, flags)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			if code.Failed() {
				return findings(cmd)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.write, "write", false, "rewrite the file in place")
	cmd.Flags().BoolVar(&flags.check, "check", false, "exit 1 when the file is not formatted")
	cmd.Flags().BoolVar(&flags.keepAnnotationOrder, "keep-annotation-order", false, "keep annotations in their written order")
	cmd.Flags().BoolVar(&flags.keepLineEndings, "keep-line-endings", false, "keep each line's own line ending")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-format when the file changes")
	cmd.MarkFlagsMutuallyExclusive("write", "check")

	return cmd
}

func (a *App) runFmt(cfg *config.Config, args []string, flags fmtFlags) (types.ExitCode, error) {
	sf, err := a.readStructure(cfg, args)
	if err != nil {
		return types.ExitUsage, err
	}

	res := structfile.Format(sf.Src,
		structfile.WithFormatIndentStep(cfg.Parse.IndentStep),
		structfile.WithAnnotationNormalization(!flags.keepAnnotationOrder),
		structfile.WithTrailingWhitespaceTrim(cfg.Format.TrimTrailingWhitespace),
		structfile.WithRawLineEndings(flags.keepLineEndings),
	)
	if !res.Structural {
		fmt.Fprintf(a.stderr, "%s %s has structural problems; only whitespace was normalized (see 'structkit check')\n",
			WarningStyle.Render("!"), sf.Path)
	}

	switch {
	case flags.check:
		if res.Changed {
			fmt.Fprintf(a.stdout, "%s %s\n", WarningStyle.Render("needs formatting:"), sf.Path)
			return types.ExitFindings, nil
		}
		return types.ExitOK, nil

	case flags.write:
		if !res.Changed {
			fmt.Fprintf(a.stderr, "%s %s\n", SubtitleStyle.Render("unchanged"), sf.Path)
			return types.ExitOK, nil
		}
		if err := os.WriteFile(sf.Path, []byte(res.Text), sf.Mode); err != nil {
			return types.ExitUsage, fmt.Errorf("write %s: %w", sf.Path, err)
		}
		fmt.Fprintf(a.stderr, "%s %s\n", SuccessStyle.Render("formatted"), sf.Path)
		return types.ExitOK, nil

	default:
		if _, err := io.WriteString(a.stdout, res.Text); err != nil {
			return types.ExitUsage, err
		}
		return types.ExitOK, nil
	}
}
