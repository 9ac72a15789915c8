// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
)

const (
	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"
)

var (
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidPerm is the sentinel error wrapped by InvalidPermError.
	ErrInvalidPerm = errors.New("invalid permission")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// InvalidColorSchemeError is returned when a ColorScheme value is not recognized.
	// It wraps ErrInvalidColorScheme for errors.Is() compatibility.
	InvalidColorSchemeError struct {
		Value ColorScheme
	}

	// Perm is an octal permission string such as "0755".
	Perm string

	// InvalidPermError is returned when a Perm is not a 3-digit octal mode.
	InvalidPermError struct {
		Value Perm
	}

	// InvalidConfigError collects field-level validation errors.
	// It wraps ErrInvalidConfig for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config is the effective structkit configuration.
	Config struct {
		// StructureFile is read when a command gets no file argument.
		StructureFile string       `json:"structure_file" yaml:"structure_file" mapstructure:"structure_file"`
		Parse         ParseConfig  `json:"parse" yaml:"parse" mapstructure:"parse"`
		Format        FormatConfig `json:"format" yaml:"format" mapstructure:"format"`
		Apply         ApplyConfig  `json:"apply" yaml:"apply" mapstructure:"apply"`
		UI            UIConfig     `json:"ui" yaml:"ui" mapstructure:"ui"`
	}

	// ParseConfig configures the structure file parser.
	ParseConfig struct {
		IndentStep int `json:"indent_step" yaml:"indent_step" mapstructure:"indent_step"`
		// Strict makes `check` parse fail-fast, as `apply` always does.
		Strict bool `json:"strict" yaml:"strict" mapstructure:"strict"`
	}

	// FormatConfig configures the canonical formatter.
	FormatConfig struct {
		NormalizeAnnotations   bool `json:"normalize_annotations" yaml:"normalize_annotations" mapstructure:"normalize_annotations"`
		TrimTrailingWhitespace bool `json:"trim_trailing_whitespace" yaml:"trim_trailing_whitespace" mapstructure:"trim_trailing_whitespace"`
		PreserveLineEndings    bool `json:"preserve_line_endings" yaml:"preserve_line_endings" mapstructure:"preserve_line_endings"`
	}

	// ApplyConfig configures filesystem reconciliation. Relative paths resolve
	// against the destination directory.
	ApplyConfig struct {
		StubsDir      string      `json:"stubs_dir" yaml:"stubs_dir" mapstructure:"stubs_dir"`
		CacheFile     string      `json:"cache_file" yaml:"cache_file" mapstructure:"cache_file"`
		EnvFile       string      `json:"env_file" yaml:"env_file" mapstructure:"env_file"`
		DeleteRemoved bool        `json:"delete_removed" yaml:"delete_removed" mapstructure:"delete_removed"`
		DirPerm       Perm        `json:"dir_perm" yaml:"dir_perm" mapstructure:"dir_perm"`
		FilePerm      Perm        `json:"file_perm" yaml:"file_perm" mapstructure:"file_perm"`
		Hooks         HooksConfig `json:"hooks" yaml:"hooks" mapstructure:"hooks"`
	}

	// HooksConfig lists shell scripts run around an apply.
	HooksConfig struct {
		PreApply  []string `json:"pre_apply" yaml:"pre_apply" mapstructure:"pre_apply"`
		PostApply []string `json:"post_apply" yaml:"post_apply" mapstructure:"post_apply"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose     bool        `json:"verbose" yaml:"verbose" mapstructure:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" yaml:"color_scheme" mapstructure:"color_scheme"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		StructureFile: "structure.txt",
		Parse: ParseConfig{
			IndentStep: 2,
			Strict:     false,
		},
		Format: FormatConfig{
			NormalizeAnnotations:   true,
			TrimTrailingWhitespace: true,
			PreserveLineEndings:    false,
		},
		Apply: ApplyConfig{
			StubsDir:      ".structkit/stubs",
			CacheFile:     ".structkit/cache.toml",
			EnvFile:       "",
			DeleteRemoved: true,
			DirPerm:       "0755",
			FilePerm:      "0644",
			Hooks: HooksConfig{
				PreApply:  []string{},
				PostApply: []string{},
			},
		},
		UI: UIConfig{
			Verbose:     false,
			ColorScheme: ColorSchemeAuto,
		},
	}
}

// IsValid checks constraints again after environment overrides, which bypass
// the CUE schema.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(c.StructureFile) == "" {
		errs = append(errs, errors.New("structure_file: must not be empty"))
	}
	if c.Parse.IndentStep < 1 || c.Parse.IndentStep > 8 {
		errs = append(errs, fmt.Errorf("parse.indent_step: %d out of range 1-8", c.Parse.IndentStep))
	}
	if _, err := c.Apply.DirPerm.Mode(); err != nil {
		errs = append(errs, fmt.Errorf("apply.dir_perm: %w", err))
	}
	if _, err := c.Apply.FilePerm.Mode(); err != nil {
		errs = append(errs, fmt.Errorf("apply.file_perm: %w", err))
	}
	if ok, colorErrs := c.UI.ColorScheme.IsValid(); !ok {
		for _, err := range colorErrs {
			errs = append(errs, fmt.Errorf("ui.color_scheme: %w", err))
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Error implements the error interface.
func (e *InvalidColorSchemeError) Error() string {
	return fmt.Sprintf("invalid color scheme %q (valid: auto, dark, light)", e.Value)
}

// Unwrap returns ErrInvalidColorScheme for errors.Is() compatibility.
func (e *InvalidColorSchemeError) Unwrap() error { return ErrInvalidColorScheme }

// String returns the string representation of the ColorScheme.
func (cs ColorScheme) String() string { return string(cs) }

// IsValid returns whether the ColorScheme is one of the defined schemes.
func (cs ColorScheme) IsValid() (bool, []error) {
	switch cs {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return true, nil
	default:
		return false, []error{&InvalidColorSchemeError{Value: cs}}
	}
}

// GlamourStyle maps the scheme to a glamour standard style name.
func (cs ColorScheme) GlamourStyle() string {
	switch cs {
	case ColorSchemeDark, ColorSchemeLight:
		return string(cs)
	default:
		return "auto"
	}
}

// Error implements the error interface.
func (e *InvalidPermError) Error() string {
	return fmt.Sprintf("invalid permission %q (want octal such as 0755)", e.Value)
}

// Unwrap returns ErrInvalidPerm for errors.Is() compatibility.
func (e *InvalidPermError) Unwrap() error { return ErrInvalidPerm }

// Mode parses the permission as an fs.FileMode.
func (p Perm) Mode() (fs.FileMode, error) {
	s := strings.TrimPrefix(string(p), "0")
	if len(s) != 3 {
		return 0, &InvalidPermError{Value: p}
	}
	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, &InvalidPermError{Value: p}
	}
	return fs.FileMode(n), nil
}
