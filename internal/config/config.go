// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/structkit/structkit/internal/issue"
	"github.com/structkit/structkit/pkg/cueutil"
)

const (
	// AppName is the application name.
	AppName = "structkit"
	// ConfigFileName is the name of the user config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// LocalConfigFile is the project config file looked up in the working directory.
	LocalConfigFile = AppName + "." + ConfigFileExt
	// EnvPrefix prefixes environment overrides (STRUCTKIT_PARSE_INDENT_STEP).
	EnvPrefix = "STRUCTKIT"
)

//go:embed config_schema.cue
var configSchema string

var compiledSchema = sync.OnceValues(func() (*cueutil.Schema, error) {
	return cueutil.CompileSchema(configSchema, "#Config")
})

// ErrConfigExists is returned by WriteDefault when the target already exists.
var ErrConfigExists = errors.New("config file already exists")

// ConfigDir returns the structkit configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default: // Linux and others
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// resolvePath returns the config file that opts select, or "" when only
// defaults apply. An explicit ConfigFilePath must exist.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Use 'structkit config init' to create one").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	local := filepath.Join(opts.WorkDir, LocalConfigFile)
	if fileExists(local) {
		return local, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			// No home directory means no user config; defaults still apply.
			return "", nil //nolint:nilerr
		}
		cfgDir = dir
	}
	user := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
	if fileExists(user) {
		return user, nil
	}

	return "", nil
}

// loadWithOptions performs option-driven config loading.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := newViper()

	resolvedPath, err := resolvePath(opts)
	if err != nil {
		return nil, "", err
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithIssue(issue.ConfigLoadFailedId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	if ok, errs := cfg.IsValid(); !ok {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Check " + EnvPrefix + "_* environment variables").
			WithIssue(issue.ConfigLoadFailedId).
			Wrap(errors.Join(errs...)).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// newViper returns a viper instance holding the defaults with environment
// overrides enabled.
func newViper() *viper.Viper {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("structure_file", defaults.StructureFile)
	v.SetDefault("parse.indent_step", defaults.Parse.IndentStep)
	v.SetDefault("parse.strict", defaults.Parse.Strict)
	v.SetDefault("format.normalize_annotations", defaults.Format.NormalizeAnnotations)
	v.SetDefault("format.trim_trailing_whitespace", defaults.Format.TrimTrailingWhitespace)
	v.SetDefault("format.preserve_line_endings", defaults.Format.PreserveLineEndings)
	v.SetDefault("apply.stubs_dir", defaults.Apply.StubsDir)
	v.SetDefault("apply.cache_file", defaults.Apply.CacheFile)
	v.SetDefault("apply.env_file", defaults.Apply.EnvFile)
	v.SetDefault("apply.delete_removed", defaults.Apply.DeleteRemoved)
	v.SetDefault("apply.dir_perm", string(defaults.Apply.DirPerm))
	v.SetDefault("apply.file_perm", string(defaults.Apply.FilePerm))
	v.SetDefault("apply.hooks.pre_apply", defaults.Apply.Hooks.PreApply)
	v.SetDefault("apply.hooks.post_apply", defaults.Apply.Hooks.PostApply)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)
	v.SetDefault("ui.color_scheme", string(defaults.UI.ColorScheme))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper. Config fields are optional, so the
// unified value is decoded to a map without requiring concreteness.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return err
	}
	values, err := cueutil.Decode[map[string]any](schema, data,
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	// Merge into Viper (preserves defaults, allows env overrides)
	if err := v.MergeConfigMap(values); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteDefault writes the default configuration as CUE to path, creating
// parent directories. It refuses to overwrite an existing file unless force.
func WriteDefault(path string, force bool) error {
	if !force && fileExists(path) {
		return fmt.Errorf("%w: %s", ErrConfigExists, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// structkit configuration file\n\n")

	fmt.Fprintf(&sb, "structure_file: %q\n", cfg.StructureFile)

	sb.WriteString("\nparse: {\n")
	fmt.Fprintf(&sb, "\tindent_step: %d\n", cfg.Parse.IndentStep)
	fmt.Fprintf(&sb, "\tstrict:      %v\n", cfg.Parse.Strict)
	sb.WriteString("}\n")

	sb.WriteString("\nformat: {\n")
	fmt.Fprintf(&sb, "\tnormalize_annotations:    %v\n", cfg.Format.NormalizeAnnotations)
	fmt.Fprintf(&sb, "\ttrim_trailing_whitespace: %v\n", cfg.Format.TrimTrailingWhitespace)
	fmt.Fprintf(&sb, "\tpreserve_line_endings:    %v\n", cfg.Format.PreserveLineEndings)
	sb.WriteString("}\n")

	sb.WriteString("\napply: {\n")
	fmt.Fprintf(&sb, "\tstubs_dir:      %q\n", cfg.Apply.StubsDir)
	fmt.Fprintf(&sb, "\tcache_file:     %q\n", cfg.Apply.CacheFile)
	if cfg.Apply.EnvFile != "" {
		fmt.Fprintf(&sb, "\tenv_file:       %q\n", cfg.Apply.EnvFile)
	}
	fmt.Fprintf(&sb, "\tdelete_removed: %v\n", cfg.Apply.DeleteRemoved)
	fmt.Fprintf(&sb, "\tdir_perm:       %q\n", cfg.Apply.DirPerm)
	fmt.Fprintf(&sb, "\tfile_perm:      %q\n", cfg.Apply.FilePerm)
	sb.WriteString("\thooks: {\n")
	writeCUEList(&sb, "pre_apply", cfg.Apply.Hooks.PreApply)
	writeCUEList(&sb, "post_apply", cfg.Apply.Hooks.PostApply)
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose:      %v\n", cfg.UI.Verbose)
	fmt.Fprintf(&sb, "\tcolor_scheme: %q\n", cfg.UI.ColorScheme)
	sb.WriteString("}\n")

	return sb.String()
}

func writeCUEList(sb *strings.Builder, name string, items []string) {
	if len(items) == 0 {
		fmt.Fprintf(sb, "\t\t%s: []\n", name)
		return
	}
	fmt.Fprintf(sb, "\t\t%s: [\n", name)
	for _, item := range items {
		fmt.Fprintf(sb, "\t\t\t%q,\n", item)
	}
	sb.WriteString("\t\t]\n")
}
