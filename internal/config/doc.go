// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is read from the first of:
//
//   - the file given with --config (exclusive, must exist)
//   - ./structkit.cue
//   - <user config dir>/structkit/config.cue ($XDG_CONFIG_HOME on Linux,
//     ~/Library/Application Support on macOS, %APPDATA% on Windows)
//
// Files are validated against the embedded CUE schema (config_schema.cue) before
// being merged over the defaults. Environment variables prefixed with STRUCTKIT_
// override both, e.g. STRUCTKIT_PARSE_INDENT_STEP=4.
package config
