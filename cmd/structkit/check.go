// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/config"
	"github.com/structkit/structkit/internal/report"
	"github.com/structkit/structkit/pkg/structfile"
	"github.com/structkit/structkit/pkg/types"
)

type checkFlags struct {
	strict        bool
	output        string
	failOnWarning bool
	watch         bool
}

func newCheckCommand(app *App) *cobra.Command {
	var flags checkFlags

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Report problems in a structure file",
		Long: `Parse a structure file and report every diagnostic.

By default the parse recovers from every problem and lists them all. With
--strict the parse stops at the first violation, as apply does.

Exit status is 1 when an error is reported, or a warning with --fail-on-warning.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := report.ParseFormat(flags.output)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			if !cmd.Flags().Changed("strict") {
				flags.strict = cfg.Parse.Strict
			}

			if flags.watch {
				return app.watchStructure(cmd, cfg, args, func(ctx context.Context) error {
					_, err := app.runCheck(cfg, args, flags, format)
					return err
				})
			}

			code, err := app.runCheck(cfg, args, flags, format)
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			if code.Failed() {
				return findings(cmd)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.strict, "strict", false, "stop at the first structural violation")
	cmd.Flags().StringVarP(&flags.output, "output", "o", string(report.FormatText), "output format: text, json or yaml")
	cmd.Flags().BoolVar(&flags.failOnWarning, "fail-on-warning", false, "exit 1 when a warning is reported")
	cmd.Flags().BoolVarP(&flags.watch, "watch", "w", false, "re-check when the file changes")

	return cmd
}

// runCheck checks one structure file and returns the exit status its
// diagnostics call for.
func (a *App) runCheck(cfg *config.Config, args []string, flags checkFlags, format report.Format) (types.ExitCode, error) {
	sf, err := a.readStructure(cfg, args)
	if err != nil {
		return types.ExitUsage, err
	}

	policy := structfile.PolicyCollect
	if flags.strict {
		policy = structfile.PolicyFailFast
	}

	var doc report.Document
	res, err := a.Parser.Parse(sf.Src, parseOptions(cfg, sf.Path, policy)...)
	var parseErr *structfile.ParseError
	switch {
	case errors.As(err, &parseErr):
		doc = report.Document{
			File:    sf.Path,
			Summary: report.Summary{Errors: 1},
			Diagnostics: []structfile.Diagnostic{{
				Line:     parseErr.Line,
				Severity: structfile.SeverityError,
				Code:     parseErr.Code,
				Message:  parseErr.Message,
			}},
		}
	case err != nil:
		return types.ExitUsage, err
	default:
		doc = report.New(sf.Path, res)
	}

	if err := report.Write(a.stdout, format, doc, reportStyles()); err != nil {
		return types.ExitUsage, fmt.Errorf("write report: %w", err)
	}

	if doc.Summary.Errors > 0 || (flags.failOnWarning && doc.Summary.Warnings > 0) {
		return types.ExitFindings, nil
	}
	return types.ExitOK, nil
}
