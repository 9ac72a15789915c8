// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/apply"
	"github.com/structkit/structkit/internal/config"
	"github.com/structkit/structkit/internal/hooks"
	"github.com/structkit/structkit/internal/issue"
	"github.com/structkit/structkit/internal/plan"
	"github.com/structkit/structkit/pkg/structfile"
	"github.com/structkit/structkit/pkg/types"
)

type applyFlags struct {
	out      string
	dryRun   bool
	force    bool
	noHooks  bool
	noDelete bool
}

func newApplyCommand(app *App) *cobra.Command {
	var flags applyFlags

	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Create the declared tree on disk",
		Long: `Create every declared directory and file under the destination.

Files are filled from stubs found in apply.stubs_dir. Existing files are left
alone unless --force. Paths created by an earlier apply that are no longer
declared are removed when they are unchanged, unless --no-delete.

The structure file must parse without errors. Hooks configured under
apply.hooks run before and after, with the destination as working directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			return app.runApply(cmd, cfg, args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.out, "out", "o", ".", "destination directory")
	cmd.Flags().BoolVarP(&flags.dryRun, "dry-run", "n", false, "report what would change without writing")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "rewrite existing files from their stubs")
	cmd.Flags().BoolVar(&flags.noHooks, "no-hooks", false, "skip pre_apply and post_apply hooks")
	cmd.Flags().BoolVar(&flags.noDelete, "no-delete", false, "keep paths that are no longer declared")

	return cmd
}

func (a *App) runApply(cmd *cobra.Command, cfg *config.Config, args []string, flags applyFlags) error {
	ctx := cmd.Context()

	sf, err := a.readStructure(cfg, args)
	if err != nil {
		return a.fail(cmd, types.ExitUsage, err)
	}

	res, err := a.Parser.Parse(sf.Src, parseOptions(cfg, sf.Path, structfile.PolicyFailFast)...)
	if err != nil {
		return a.fail(cmd, types.ExitFindings, parseError(sf.Path, err))
	}
	p, err := plan.Build(res)
	if err != nil {
		return a.fail(cmd, types.ExitFindings, fmt.Errorf("%s: %w", sf.Path, err))
	}

	req, err := applyRequest(cfg, p, flags)
	if err != nil {
		return a.fail(cmd, types.ExitUsage, err)
	}

	runner := &hooks.Runner{
		PreApply:  cfg.Apply.Hooks.PreApply,
		PostApply: cfg.Apply.Hooks.PostApply,
		EnvFile:   cfg.Apply.EnvFile,
		Stdout:    a.stdout,
		Stderr:    a.stderr,
	}
	runHooks := !flags.noHooks && !flags.dryRun

	if runHooks && len(runner.PreApply) > 0 {
		// hooks run inside the destination, so it must exist first
		if err := os.MkdirAll(req.Root, req.DirPerm); err != nil {
			return a.fail(cmd, types.ExitUsage, fmt.Errorf("create destination: %w", err))
		}
		if err := runner.Run(ctx, hooks.PreApply, hooks.Env{Root: req.Root}); err != nil {
			return a.fail(cmd, types.ExitUsage, err)
		}
	}

	rep, err := apply.Apply(ctx, req)
	a.printReport(rep, flags.dryRun)
	if err != nil {
		return a.fail(cmd, types.ExitUsage, applyError(err, req.Root))
	}

	if runHooks {
		if err := runner.Run(ctx, hooks.PostApply, hooks.Env{Root: req.Root, Created: rep.Created()}); err != nil {
			return a.fail(cmd, types.ExitUsage, err)
		}
	}
	return nil
}

func applyRequest(cfg *config.Config, p plan.Plan, flags applyFlags) (apply.Request, error) {
	dirPerm, err := cfg.Apply.DirPerm.Mode()
	if err != nil {
		return apply.Request{}, err
	}
	filePerm, err := cfg.Apply.FilePerm.Mode()
	if err != nil {
		return apply.Request{}, err
	}

	return apply.Request{
		Root:          flags.out,
		Plan:          p,
		StubsDir:      cfg.Apply.StubsDir,
		CachePath:     cfg.Apply.CacheFile,
		DirPerm:       dirPerm,
		FilePerm:      filePerm,
		Force:         flags.force,
		DeleteRemoved: cfg.Apply.DeleteRemoved && !flags.noDelete,
		DryRun:        flags.dryRun,
	}, nil
}

// parseError points a fail-fast parse error at the catalog entry of its code.
func parseError(path string, err error) error {
	var pe *structfile.ParseError
	if !errors.As(err, &pe) {
		return err
	}
	return issue.NewErrorContext().
		WithOperation("parse structure file").
		WithResource(path).
		WithSuggestion("Run 'structkit check' to list every problem").
		WithIssue(issue.DiagnosticId(pe.Code)).
		Wrap(err).
		BuildError()
}

// applyError attaches the catalog entry and remedies matching err.
func applyError(err error, root string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	ec := issue.NewErrorContext().WithOperation("apply structure").WithResource(root)

	var (
		conflict *apply.ConflictError
		escape   *apply.PathError
	)
	switch {
	case errors.As(err, &conflict):
		ec.WithIssue(issue.ApplyConflictId).
			WithSuggestion("Move or remove " + conflict.Path + " in the destination").
			WithSuggestion("Or change the entry's trailing '/' in the structure file")
	case errors.As(err, &escape):
		ec.WithIssue(issue.PathEscapeId).
			WithSuggestion("Use paths relative to the destination without '..' segments")
	case errors.Is(err, apply.ErrStubNotFound):
		ec.WithIssue(issue.StubNotFoundId).
			WithSuggestion("Create the stub in apply.stubs_dir, with or without a .stub extension")
	}

	return ec.Wrap(err).BuildError()
}

func (a *App) printReport(rep apply.Report, dryRun bool) {
	for _, c := range rep.Changes {
		if c.Action == apply.ActionExists && !a.flags.verbose {
			continue
		}
		name := c.Path
		if c.Dir {
			name += "/"
		}
		line := fmt.Sprintf("%s %s", actionLabel(c.Action), name)
		if c.Stub != "" && (c.Action == apply.ActionCreate || c.Action == apply.ActionOverwrite) {
			line += " " + VerboseStyle.Render("(stub "+c.Stub+")")
		}
		fmt.Fprintln(a.stdout, line)
	}

	created := rep.Count(apply.ActionCreate) + rep.Count(apply.ActionOverwrite)
	deleted := rep.Count(apply.ActionDelete)
	kept := rep.Count(apply.ActionKeepModified) + rep.Count(apply.ActionKeepNonEmpty)
	summary := fmt.Sprintf("%d written, %d deleted, %d kept, %d unchanged",
		created, deleted, kept, rep.Count(apply.ActionExists))
	if dryRun {
		summary = "dry run: " + summary
	}
	fmt.Fprintln(a.stdout, SuccessStyle.Render("✓")+" "+summary)
}

func actionLabel(act apply.Action) string {
	label := fmt.Sprintf("%-14s", act.String())
	switch act {
	case apply.ActionCreate, apply.ActionOverwrite:
		return SuccessStyle.Render(label)
	case apply.ActionDelete:
		return ErrorStyle.Render(label)
	case apply.ActionKeepModified, apply.ActionKeepNonEmpty:
		return WarningStyle.Render(label)
	default:
		return SubtitleStyle.Render(label)
	}
}
