// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"bookforge/internal/config"
	"bookforge/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `bookforge config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bookforge configuration",
		Long: `Manage bookforge configuration.

Configuration is stored in:
  - Linux: ~/.config/bookforge/config.cue
  - macOS: ~/Library/Application Support/bookforge/config.cue
  - Windows: %APPDATA%\bookforge\config.cue

The BOOKFORGE_CONFIG environment variable or the --config flag point at
an alternative file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return initConfigFile()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfigPath()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return setConfigValue(args[0], args[1])
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		renderIssue(os.Stderr, issue.ConfigLoadFailedId)
		return err
	}

	keyStyle := CmdStyle
	valueStyle := SuccessStyle
	boolVal := func(v bool) string { return valueStyle.Render(strconv.FormatBool(v)) }
	intVal := func(v int) string {
		if v == 0 {
			return SubtitleStyle.Render("auto")
		}
		return valueStyle.Render(strconv.Itoa(v))
	}
	strVal := func(v string) string {
		if v == "" {
			return SubtitleStyle.Render("(not set)")
		}
		return valueStyle.Render(v)
	}

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()
	fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), configSource())

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("entrypoint"))
	fmt.Printf("  keep_alive: %s\n", boolVal(cfg.Entrypoint.KeepAlive))
	fmt.Printf("  runtime_dir: %s\n", valueStyle.Render(cfg.Entrypoint.RuntimeDir))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ssh"))
	fmt.Printf("  mode: %s\n", valueStyle.Render(cfg.SSH.Mode.String()))
	fmt.Printf("  service_name: %s\n", valueStyle.Render(cfg.SSH.ServiceName))
	fmt.Printf("  binary_path: %s\n", valueStyle.Render(cfg.SSH.BinaryPath))
	fmt.Printf("  embedded:\n")
	fmt.Printf("    listen_addr: %s\n", valueStyle.Render(cfg.SSH.Embedded.ListenAddr))
	fmt.Printf("    port: %s\n", valueStyle.Render(strconv.Itoa(cfg.SSH.Embedded.Port)))
	if cfg.SSH.Embedded.Password != "" {
		fmt.Printf("    password: %s\n", valueStyle.Render("(set)"))
	} else {
		fmt.Printf("    password: %s\n", SubtitleStyle.Render("(not set)"))
	}
	fmt.Printf("    authorized_keys_path: %s\n", strVal(cfg.SSH.Embedded.AuthorizedKeysPath))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("convert"))
	fmt.Printf("  output_dir: %s\n", valueStyle.Render(cfg.Convert.OutputDir))
	fmt.Printf("  workers: %s\n", intVal(cfg.Convert.Workers))
	fmt.Printf("  layout_batch_size: %s\n", intVal(cfg.Convert.LayoutBatchSize))
	fmt.Printf("  skip_existing: %s\n", boolVal(cfg.Convert.SkipExisting))
	fmt.Printf("  force_cpu: %s\n", boolVal(cfg.Convert.ForceCPU))
	fmt.Printf("  smart_ocr: %s\n", boolVal(cfg.Convert.SmartOCR))
	fmt.Printf("  disable_ocr: %s\n", boolVal(cfg.Convert.DisableOCR))
	fmt.Printf("  marker_extra_args: %s\n", strVal(cfg.Convert.MarkerExtraArgs))

	fmt.Println()
	fmt.Printf("%s:\n", keyStyle.Render("ui"))
	fmt.Printf("  verbose: %s\n", boolVal(cfg.UI.Verbose))

	return nil
}

func initConfigFile() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	if err := config.CreateDefaultConfig(); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	cfgPath := filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt)
	fmt.Printf("%s Created default configuration at %s\n", SuccessStyle.Render("✓"), cfgPath)
	return nil
}

func showConfigPath() error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}

	fmt.Printf("Config directory: %s\n", cfgDir)
	fmt.Printf("Config file: %s\n", filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
	return nil
}

// setConfigValue updates one key in the config file. Keys follow the
// config file structure, so nested values use dotted paths. The embedded
// password is deliberately not settable here: secrets on the command line
// end up in shell history.
func setConfigValue(key, value string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch key {
	case "entrypoint.keep_alive":
		v, err := parseBoolValue(key, value)
		if err != nil {
			return err
		}
		cfg.Entrypoint.KeepAlive = v

	case "entrypoint.runtime_dir":
		cfg.Entrypoint.RuntimeDir = value

	case "ssh.mode":
		mode := config.SSHMode(value)
		if valid, errs := mode.IsValid(); !valid {
			return errs[0]
		}
		cfg.SSH.Mode = mode

	case "ssh.service_name":
		cfg.SSH.ServiceName = value

	case "ssh.binary_path":
		cfg.SSH.BinaryPath = value

	case "ssh.embedded.listen_addr":
		cfg.SSH.Embedded.ListenAddr = value

	case "ssh.embedded.port":
		v, err := parseIntValue(key, value)
		if err != nil {
			return err
		}
		cfg.SSH.Embedded.Port = v

	case "ssh.embedded.authorized_keys_path":
		cfg.SSH.Embedded.AuthorizedKeysPath = value

	case "convert.output_dir":
		cfg.Convert.OutputDir = value

	case "convert.workers":
		v, err := parseIntValue(key, value)
		if err != nil {
			return err
		}
		cfg.Convert.Workers = v

	case "convert.layout_batch_size":
		v, err := parseIntValue(key, value)
		if err != nil {
			return err
		}
		cfg.Convert.LayoutBatchSize = v

	case "convert.skip_existing":
		v, err := parseBoolValue(key, value)
		if err != nil {
			return err
		}
		cfg.Convert.SkipExisting = v

	case "convert.force_cpu":
		v, err := parseBoolValue(key, value)
		if err != nil {
			return err
		}
		cfg.Convert.ForceCPU = v

	case "convert.smart_ocr":
		v, err := parseBoolValue(key, value)
		if err != nil {
			return err
		}
		cfg.Convert.SmartOCR = v

	case "convert.disable_ocr":
		v, err := parseBoolValue(key, value)
		if err != nil {
			return err
		}
		cfg.Convert.DisableOCR = v

	case "convert.marker_extra_args":
		cfg.Convert.MarkerExtraArgs = value

	case "ui.verbose":
		v, err := parseBoolValue(key, value)
		if err != nil {
			return err
		}
		cfg.UI.Verbose = v

	default:
		return fmt.Errorf("unknown config key %q (see 'bookforge config show' for the structure)", key)
	}

	if valid, errs := cfg.IsValid(); !valid {
		return errs[0]
	}

	if err := config.Save(cfg); err != nil {
		return err
	}

	fmt.Printf("%s Set %s = %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(key), value)
	return nil
}

func parseBoolValue(key, value string) (bool, error) {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %q is not a boolean", key, value)
	}
	return v, nil
}

func parseIntValue(key, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q is not an integer", key, value)
	}
	return v, nil
}
