// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/structkit/structkit/internal/config"
	"github.com/structkit/structkit/pkg/types"
)

// newConfigCommand creates the `structkit config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and create structkit configuration",
		Long: `Inspect and create structkit configuration.

Configuration is read from the first of:
  - the file given with --config
  - ./structkit.cue
  - the user config file:
      Linux:   ~/.config/structkit/config.cue
      macOS:   ~/Library/Application Support/structkit/config.cue
      Windows: %APPDATA%\structkit\config.cue

STRUCTKIT_* environment variables override file values, for example
STRUCTKIT_PARSE_INDENT_STEP=4.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			path, _ := app.Config.Path(app.loadOptions())
			app.showConfig(cfg, path)
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show which configuration file is used",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := app.Config.Path(app.loadOptions())
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			if path == "" {
				fmt.Fprintln(app.stdout, SubtitleStyle.Render("(no config file, using defaults)"))
			} else {
				fmt.Fprintln(app.stdout, path)
			}
			if dir, err := config.ConfigDir(); err == nil {
				fmt.Fprintf(app.stderr, "%s %s\n", SubtitleStyle.Render("user config:"), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			}
			return nil
		},
	})

	var (
		local bool
		force bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.LocalConfigFile
			if !local {
				dir, err := config.ConfigDir()
				if err != nil {
					return app.fail(cmd, types.ExitUsage, err)
				}
				path = filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
			}
			if err := config.WriteDefault(path, force); err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&local, "local", false, "write ./"+config.LocalConfigFile+" instead of the user config")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return app.fail(cmd, types.ExitUsage, err)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func (a *App) showConfig(cfg *config.Config, path string) {
	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	kv := func(indent, key string, value any) {
		fmt.Fprintf(a.stdout, "%s%s: %s\n", indent, keyStyle.Render(key), valueStyle.Render(fmt.Sprint(value)))
	}
	list := func(key string, items []string) {
		if len(items) == 0 {
			fmt.Fprintf(a.stdout, "    %s: %s\n", keyStyle.Render(key), SubtitleStyle.Render("(none)"))
			return
		}
		fmt.Fprintf(a.stdout, "    %s:\n", keyStyle.Render(key))
		for _, it := range items {
			fmt.Fprintf(a.stdout, "      - %s\n", valueStyle.Render(strings.TrimSpace(it)))
		}
	}

	fmt.Fprintln(a.stdout, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(a.stdout)
	if path == "" {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	} else {
		fmt.Fprintf(a.stdout, "%s: %s\n", keyStyle.Render("Config file"), path)
	}
	fmt.Fprintln(a.stdout)

	kv("", "structure_file", cfg.StructureFile)

	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("parse"))
	kv("  ", "indent_step", cfg.Parse.IndentStep)
	kv("  ", "strict", cfg.Parse.Strict)

	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("format"))
	kv("  ", "normalize_annotations", cfg.Format.NormalizeAnnotations)
	kv("  ", "trim_trailing_whitespace", cfg.Format.TrimTrailingWhitespace)
	kv("  ", "preserve_line_endings", cfg.Format.PreserveLineEndings)

	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("apply"))
	kv("  ", "stubs_dir", cfg.Apply.StubsDir)
	kv("  ", "cache_file", cfg.Apply.CacheFile)
	if cfg.Apply.EnvFile == "" {
		fmt.Fprintf(a.stdout, "  %s: %s\n", keyStyle.Render("env_file"), SubtitleStyle.Render("(none)"))
	} else {
		kv("  ", "env_file", cfg.Apply.EnvFile)
	}
	kv("  ", "delete_removed", cfg.Apply.DeleteRemoved)
	kv("  ", "dir_perm", cfg.Apply.DirPerm)
	kv("  ", "file_perm", cfg.Apply.FilePerm)
	fmt.Fprintf(a.stdout, "  %s:\n", keyStyle.Render("hooks"))
	list("pre_apply", cfg.Apply.Hooks.PreApply)
	list("post_apply", cfg.Apply.Hooks.PostApply)

	fmt.Fprintf(a.stdout, "%s:\n", keyStyle.Render("ui"))
	kv("  ", "verbose", cfg.UI.Verbose)
	kv("  ", "color_scheme", cfg.UI.ColorScheme)
}
