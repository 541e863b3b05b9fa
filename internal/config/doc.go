// SPDX-License-Identifier: MPL-2.0

// Package config handles spm configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/spm/config.cue (or the XDG equivalent on Linux,
// ~/Library/Application Support/spm/config.cue on macOS, %APPDATA%\spm\config.cue
// on Windows), falling back to ./config.cue. Values can be overridden with SPM_*
// environment variables, which may also be supplied through a .env file.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before
// they are merged over the defaults.
package config
