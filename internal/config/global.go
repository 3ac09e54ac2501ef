// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
)

// configDirOverride allows tests to override the config directory.
// This is necessary because os.UserHomeDir() doesn't reliably respect
// the HOME environment variable on all platforms (e.g., macOS in CI).
var configDirOverride string

// configFilePathOverride forces loading from a specific config file.
// Set from the --config flag or BOOKFORGE_CONFIG before Load is called.
var configFilePathOverride string

// Reset clears overrides. Call from test cleanup to restore defaults.
func Reset() {
	configDirOverride = ""
	configFilePathOverride = ""
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms (e.g., macOS in CI).
func SetConfigDirOverride(dir string) {
	configDirOverride = dir
}

// SetConfigFilePathOverride forces subsequent Load calls to read the given file.
func SetConfigFilePathOverride(path string) {
	configFilePathOverride = path
}

// Load reads the configuration honoring the package-level overrides.
// The --config flag wins over BOOKFORGE_CONFIG; with neither set the
// per-OS config directory is searched. It is the convenience entry point
// for the CLI layer; code that wants explicit inputs should use a
// Provider instead.
func Load() (*Config, error) {
	filePath := configFilePathOverride
	if filePath == "" {
		filePath = os.Getenv(ConfigPathEnvVar)
	}

	cfg, _, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: filePath,
	})
	return cfg, err
}

// LoadOrDefault loads the configuration and falls back to the defaults when
// loading fails. The returned config is never nil and the KEEP_ALIVE
// environment contract applies on the fallback path too, so a broken config
// file cannot take down a container bootstrap. The error reports what went
// wrong with the load.
func LoadOrDefault() (*Config, error) {
	cfg, err := Load()
	if err != nil || cfg == nil {
		cfg = DefaultConfig()
		applyKeepAliveEnv(cfg, nil)
	}
	return cfg, err
}
