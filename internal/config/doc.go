// SPDX-License-Identifier: MPL-2.0

// Package config loads npm-verified settings using Viper with CUE as the file
// format.
//
// The file is looked up at the --config path, then in the platform config
// directory ($XDG_CONFIG_HOME/npm-verified/config.cue on Linux,
// ~/Library/Application Support/npm-verified/config.cue on macOS,
// %APPDATA%\npm-verified\config.cue on Windows), then at ./npm-verified.cue.
// Without any file the defaults apply. NPM_VERIFIED_* environment variables
// override individual keys, for example NPM_VERIFIED_COMPARE_CONTEXT_LINES.
//
// The file is validated against the embedded config_schema.cue before it is
// merged.
package config
