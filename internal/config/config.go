// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"bookforge/internal/issue"
	"bookforge/pkg/cueutil"
	"bookforge/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "bookforge"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"

	// KeepAliveEnvVar is the environment variable that arms the idle-wait.
	// Only the exact value "1" enables it.
	KeepAliveEnvVar = "KEEP_ALIVE"
	// ConfigPathEnvVar overrides the config file location.
	ConfigPathEnvVar = "BOOKFORGE_CONFIG"
)

//go:embed config_schema.cue
var configSchema string

// ConfigDir returns the bookforge configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	// Allow tests to override the config directory
	if configDirOverride != "" {
		return configDirOverride, nil
	}

	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
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

// loadWithOptions performs option-driven config loading without mutating
// package-level cache state. Callers that want caching can wrap this function.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("entrypoint.keep_alive", defaults.Entrypoint.KeepAlive)
	v.SetDefault("entrypoint.runtime_dir", defaults.Entrypoint.RuntimeDir)
	v.SetDefault("ssh.mode", string(defaults.SSH.Mode))
	v.SetDefault("ssh.service_name", defaults.SSH.ServiceName)
	v.SetDefault("ssh.binary_path", defaults.SSH.BinaryPath)
	v.SetDefault("ssh.embedded.listen_addr", defaults.SSH.Embedded.ListenAddr)
	v.SetDefault("ssh.embedded.port", defaults.SSH.Embedded.Port)
	v.SetDefault("ssh.embedded.password", defaults.SSH.Embedded.Password)
	v.SetDefault("ssh.embedded.authorized_keys_path", defaults.SSH.Embedded.AuthorizedKeysPath)
	v.SetDefault("convert.output_dir", defaults.Convert.OutputDir)
	v.SetDefault("convert.workers", defaults.Convert.Workers)
	v.SetDefault("convert.layout_batch_size", defaults.Convert.LayoutBatchSize)
	v.SetDefault("convert.skip_existing", defaults.Convert.SkipExisting)
	v.SetDefault("convert.force_cpu", defaults.Convert.ForceCPU)
	v.SetDefault("convert.smart_ocr", defaults.Convert.SmartOCR)
	v.SetDefault("convert.disable_ocr", defaults.Convert.DisableOCR)
	v.SetDefault("convert.marker_extra_args", defaults.Convert.MarkerExtraArgs)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	resolvedPath := ""

	// If a custom config file path is set via --config flag or BOOKFORGE_CONFIG,
	// use it exclusively.
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Check that the file exists and is readable").
				WithSuggestion("Use 'bookforge config show' to see default configuration").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		if err := loadCUEIntoViper(v, opts.ConfigFilePath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("See 'bookforge config --help' for configuration options").
				Wrap(err).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else {
		// Get config directory
		cfgDir, err := configDirWithOverride(opts.ConfigDirPath)
		if err != nil {
			return nil, "", err
		}

		// Try to load CUE config file
		cuePath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)
		if fileExists(cuePath) {
			if err := loadCUEIntoViper(v, cuePath); err != nil {
				return nil, "", issue.NewErrorContext().
					WithOperation("load configuration").
					WithResource(cuePath).
					WithSuggestion("Check that the file contains valid CUE syntax").
					WithSuggestion("Verify the configuration values match the expected schema").
					WithSuggestion("See 'bookforge config --help' for configuration options").
					Wrap(err).
					BuildError()
			}
			resolvedPath = cuePath
		}
		// If no config file found, use defaults (no error)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	applyKeepAliveEnv(&cfg, opts.LookupEnv)

	if valid, errs := cfg.IsValid(); !valid {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(resolvedPath).
			WithSuggestion("Fix the reported fields and retry").
			Wrap(errs[0]).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// applyKeepAliveEnv arms the keep-alive flag from the process environment.
// The contract is exact string equality: only KEEP_ALIVE="1" enables it.
// Any other value ("0", "true", "yes", empty, unset) leaves the config file
// setting untouched, so truthy-looking strings never arm the idle-wait by
// accident.
func applyKeepAliveEnv(cfg *Config, lookupEnv func(string) (string, bool)) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if raw, ok := lookupEnv(KeepAliveEnvVar); ok && raw == "1" {
		cfg.Entrypoint.KeepAlive = true
	}
}

// configDirWithOverride resolves the configuration directory, honoring
// explicit provider options before platform defaults.
func configDirWithOverride(configDirPath string) (string, error) {
	if configDirPath != "" {
		return configDirPath, nil
	}

	return ConfigDir()
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
//
// Note: this decodes to map[string]any (not a struct) because the result is
// merged into Viper's config map, and uses Concrete(false) because all config
// fields are optional.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	// Compile the schema
	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	// Compile the user's config file
	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return cueutil.FormatError(userValue.Err(), path)
	}

	// Unify with schema to validate against #Config definition
	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Decode to Go map
	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return cueutil.FormatError(err, path)
	}

	// Merge into Viper (preserves defaults for unset fields)
	if err := v.MergeConfigMap(configMap); err != nil {
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

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(cfgDir, 0o755)
}

// CreateDefaultConfig creates a default config file if it doesn't exist
func CreateDefaultConfig() error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		return nil // File exists
	}

	defaults := DefaultConfig()
	cueContent := GenerateCUE(defaults)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Save writes the current configuration to file
func Save(cfg *Config) error {
	cfgDir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt)

	cueContent := GenerateCUE(cfg)

	if err := os.WriteFile(cfgPath, []byte(cueContent), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// bookforge configuration file\n\n")

	sb.WriteString("entrypoint: {\n")
	sb.WriteString(fmt.Sprintf("\tkeep_alive: %v\n", cfg.Entrypoint.KeepAlive))
	sb.WriteString(fmt.Sprintf("\truntime_dir: %q\n", cfg.Entrypoint.RuntimeDir))
	sb.WriteString("}\n")

	sb.WriteString("\nssh: {\n")
	sb.WriteString(fmt.Sprintf("\tmode: %q\n", cfg.SSH.Mode))
	sb.WriteString(fmt.Sprintf("\tservice_name: %q\n", cfg.SSH.ServiceName))
	sb.WriteString(fmt.Sprintf("\tbinary_path: %q\n", cfg.SSH.BinaryPath))
	sb.WriteString("\tembedded: {\n")
	sb.WriteString(fmt.Sprintf("\t\tlisten_addr: %q\n", cfg.SSH.Embedded.ListenAddr))
	sb.WriteString(fmt.Sprintf("\t\tport: %d\n", cfg.SSH.Embedded.Port))
	if cfg.SSH.Embedded.Password != "" {
		sb.WriteString(fmt.Sprintf("\t\tpassword: %q\n", cfg.SSH.Embedded.Password))
	}
	if cfg.SSH.Embedded.AuthorizedKeysPath != "" {
		sb.WriteString(fmt.Sprintf("\t\tauthorized_keys_path: %q\n", cfg.SSH.Embedded.AuthorizedKeysPath))
	}
	sb.WriteString("\t}\n")
	sb.WriteString("}\n")

	sb.WriteString("\nconvert: {\n")
	sb.WriteString(fmt.Sprintf("\toutput_dir: %q\n", cfg.Convert.OutputDir))
	sb.WriteString(fmt.Sprintf("\tworkers: %d\n", cfg.Convert.Workers))
	sb.WriteString(fmt.Sprintf("\tlayout_batch_size: %d\n", cfg.Convert.LayoutBatchSize))
	sb.WriteString(fmt.Sprintf("\tskip_existing: %v\n", cfg.Convert.SkipExisting))
	sb.WriteString(fmt.Sprintf("\tforce_cpu: %v\n", cfg.Convert.ForceCPU))
	sb.WriteString(fmt.Sprintf("\tsmart_ocr: %v\n", cfg.Convert.SmartOCR))
	sb.WriteString(fmt.Sprintf("\tdisable_ocr: %v\n", cfg.Convert.DisableOCR))
	if cfg.Convert.MarkerExtraArgs != "" {
		sb.WriteString(fmt.Sprintf("\tmarker_extra_args: %q\n", cfg.Convert.MarkerExtraArgs))
	}
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	sb.WriteString(fmt.Sprintf("\tverbose: %v\n", cfg.UI.Verbose))
	sb.WriteString("}\n")

	return sb.String()
}
