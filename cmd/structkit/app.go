// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/config"
	"github.com/structkit/structkit/internal/issue"
	"github.com/structkit/structkit/internal/parsecache"
	"github.com/structkit/structkit/pkg/structfile"
	"github.com/structkit/structkit/pkg/types"
)

type (
	// App wires CLI services and shared dependencies. Every command handler
	// receives the App and reaches configuration, parsing and output through it.
	App struct {
		Config config.Provider
		Parser *parsecache.Cache
		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
	}

	// Dependencies are the injection points for NewApp. Nil fields get
	// production defaults.
	Dependencies struct {
		Config config.Provider
		Parser *parsecache.Cache
		Stdout io.Writer
		Stderr io.Writer
	}

	// rootFlags holds the persistent flags shared by all commands.
	rootFlags struct {
		configPath string
		verbose    bool
	}

	// structureFile is a structure file read from disk.
	structureFile struct {
		// Path is the file as given on the command line or in the config.
		Path string
		Src  string
		Mode fs.FileMode
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Parser == nil {
		p, err := parsecache.New(0)
		if err != nil {
			return nil, err
		}
		deps.Parser = p
	}

	return &App{
		Config: deps.Config,
		Parser: deps.Parser,
		stdout: deps.Stdout,
		stderr: deps.Stderr,
	}, nil
}

// loadConfig loads configuration honoring --config, and turns on verbose
// output when the config asks for it.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions())
	if err != nil {
		return nil, err
	}
	if cfg.UI.Verbose && !a.flags.verbose {
		a.flags.verbose = true
		a.setupLogging()
	}
	return cfg, nil
}

func (a *App) loadOptions() config.LoadOptions {
	return config.LoadOptions{ConfigFilePath: a.flags.configPath}
}

// setupLogging routes slog through a charm logger on stderr.
func (a *App) setupLogging() {
	level := log.WarnLevel
	if a.flags.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(a.stderr, log.Options{
		Prefix: config.AppName,
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
}

// readStructure reads the structure file named by args, or the configured
// one when args is empty.
func (a *App) readStructure(cfg *config.Config, args []string) (structureFile, error) {
	path := cfg.StructureFile
	if len(args) > 0 && args[0] != "" {
		path = args[0]
	}

	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		err = fmt.Errorf("%s is a directory", path)
	}
	var data []byte
	if err == nil {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return structureFile{}, issue.NewErrorContext().
			WithOperation("read structure file").
			WithResource(path).
			WithSuggestion("Pass the structure file as an argument").
			WithSuggestion("Set structure_file in " + config.LocalConfigFile).
			WithIssue(issue.StructureNotFoundId).
			Wrap(err).
			BuildError()
	}

	return structureFile{Path: path, Src: string(data), Mode: info.Mode().Perm()}, nil
}

// parseOptions returns the parse options the configuration selects.
func parseOptions(cfg *config.Config, file string, policy structfile.Policy) []structfile.Option {
	return []structfile.Option{
		structfile.WithIndentStep(cfg.Parse.IndentStep),
		structfile.WithPolicy(policy),
		structfile.WithFilename(filepath.ToSlash(file)),
	}
}

// fail reports err on stderr and returns the ExitError that carries code.
func (a *App) fail(cmd *cobra.Command, code types.ExitCode, err error) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	fmt.Fprintln(a.stderr, ErrorStyle.Render("Error:")+" "+formatErrorForDisplay(err, a.flags.verbose))
	return &ExitError{Code: code, Err: err}
}

// findings returns a silent ExitError for commands that already rendered
// their problems.
func findings(cmd *cobra.Command) error {
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return &ExitError{Code: types.ExitFindings}
}

// formatErrorForDisplay uses the actionable form when err carries one.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
