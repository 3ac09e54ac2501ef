// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from ~/.config/bookforge/config.cue (or XDG equivalent on Linux,
// ~/Library/Application Support/bookforge/config.cue on macOS, %APPDATA%\bookforge\config.cue
// on Windows). The package provides type-safe configuration access covering the container
// entrypoint sequence, SSH startup method selection, the conversion pipeline, and UI settings.
//
// Configuration validation is performed against a CUE schema (config_schema.cue) to ensure
// type safety and provide clear error messages for invalid configurations.
//
// The KEEP_ALIVE environment variable is folded into the loaded Config: the exact value "1"
// arms the post-workload idle-wait, and every other value is ignored. Consumers read
// Config.Entrypoint.KeepAlive instead of the environment.
package config
