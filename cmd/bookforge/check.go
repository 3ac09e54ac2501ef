// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bookforge/internal/config"
	"bookforge/internal/convert"
	"bookforge/internal/sshd"

	"github.com/spf13/cobra"
)

type (
	// checkRow is one probe outcome in the environment report. Required
	// rows decide the exit code; the rest are informational.
	checkRow struct {
		Name     string `json:"name"`
		OK       bool   `json:"ok"`
		Required bool   `json:"required"`
		Detail   string `json:"detail,omitempty"`
	}

	// checker runs the environment probes. The option slices are seams
	// for tests to inject fake binary lookups and exec functions.
	checker struct {
		cfg         *config.Config
		loadErr     error
		sshdOpts    []sshd.Option
		convertOpts []convert.Option
	}
)

// newCheckCommand creates the `bookforge check` command.
func newCheckCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report which tools and daemons are available",
		Long: TitleStyle.Render("bookforge check") + `

Probes the environment the way the entrypoint and the converter will:
the configuration, the SSH startup method for the configured mode, the
marker and pandoc binaries, and the GPU. Rows required by the current
configuration decide the exit code; the rest are informational.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loadErr := config.LoadOrDefault()
			c := &checker{cfg: cfg, loadErr: loadErr}
			rows := c.rows(cmd.Context())

			if asJSON {
				if err := printCheckJSON(os.Stdout, rows); err != nil {
					return err
				}
			} else {
				printCheckReport(rows)
			}

			for _, row := range rows {
				if row.Required && !row.OK {
					return &ExitError{Code: 1, Err: fmt.Errorf(
						"required check %q failed", row.Name)}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	return cmd
}

// rows runs every probe and returns the report rows in display order.
func (c *checker) rows(ctx context.Context) []checkRow {
	rows := []checkRow{c.configRow()}
	rows = append(rows, c.sshRows()...)
	rows = append(rows, c.markerRow(), c.pandocRow(ctx), c.gpuRow(ctx))
	return rows
}

// configRow reports whether the configuration loaded and validates.
func (c *checker) configRow() checkRow {
	row := checkRow{Name: "config", Required: true}
	if c.loadErr != nil {
		row.Detail = c.loadErr.Error()
		return row
	}
	if valid, errs := c.cfg.IsValid(); !valid {
		row.Detail = errs[0].Error()
		return row
	}
	row.OK = true
	row.Detail = configSource()
	return row
}

// sshRows reports the startup methods. The individual method rows are
// informational unless the mode pins one; auto mode adds a combined row
// that fails only when neither method would work.
func (c *checker) sshRows() []checkRow {
	mode := c.cfg.SSH.Mode
	managed := sshd.NewManagedServiceLauncher(c.cfg.SSH.ServiceName, c.sshdOpts...)
	direct := sshd.NewDirectBinaryLauncher(c.cfg.SSH.BinaryPath, c.sshdOpts...)
	managedOK := managed.Available()
	directOK := direct.Available()

	managedDetail := "service " + c.cfg.SSH.ServiceName
	if !managedOK {
		managedDetail = "service wrapper not on PATH"
	}
	directDetail := c.cfg.SSH.BinaryPath
	if !directOK {
		directDetail = c.cfg.SSH.BinaryPath + " not found"
	}

	rows := []checkRow{
		{
			Name:     "service manager",
			OK:       managedOK,
			Required: mode == config.SSHModeManaged,
			Detail:   managedDetail,
		},
		{
			Name:     "sshd binary",
			OK:       directOK,
			Required: mode == config.SSHModeDirect,
			Detail:   directDetail,
		},
	}

	switch mode {
	case config.SSHModeAuto, "":
		row := checkRow{Name: "ssh startup (auto)", Required: true, OK: managedOK || directOK}
		switch {
		case managedOK:
			row.Detail = "will use the service manager"
		case directOK:
			row.Detail = "will invoke " + c.cfg.SSH.BinaryPath
		default:
			row.Detail = "no startup method available"
		}
		rows = append(rows, row)
	case config.SSHModeEmbedded:
		rows = append(rows, checkRow{
			Name:     "embedded ssh server",
			OK:       true,
			Required: true,
			Detail: fmt.Sprintf("built in, listens on %s:%d",
				c.cfg.SSH.Embedded.ListenAddr, c.cfg.SSH.Embedded.Port),
		})
	}
	return rows
}

// markerRow probes for the PDF extractor.
func (c *checker) markerRow() checkRow {
	row := checkRow{Name: convert.MarkerBinary, Required: true}
	path, err := convert.NewMarkerEngine(c.convertOpts...).Probe()
	if err != nil {
		row.Detail = "not on PATH (pip install marker-pdf)"
		return row
	}
	row.OK = true
	row.Detail = path
	return row
}

// pandocRow probes for the EPUB compiler and, when present, asks it for
// its version.
func (c *checker) pandocRow(ctx context.Context) checkRow {
	row := checkRow{Name: convert.PandocBinary, Required: true}
	engine := convert.NewPandocEngine(c.convertOpts...)
	path, err := engine.Probe()
	if err != nil {
		row.Detail = "not on PATH"
		return row
	}
	row.OK = true
	row.Detail = path
	if version, verr := engine.Version(ctx); verr == nil {
		row.Detail = fmt.Sprintf("%s (%s)", version, path)
	}
	return row
}

// gpuRow reports the hardware sizing the converter would use. A missing
// GPU is not a failure, conversion just runs on CPU.
func (c *checker) gpuRow(ctx context.Context) checkRow {
	detector := convert.NewHardwareDetector(c.convertOpts...)
	return checkRow{
		Name:   "gpu",
		OK:     true,
		Detail: detector.Detect(ctx).String(),
	}
}

// configSource describes where the effective configuration came from.
func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	if path := os.Getenv(config.ConfigPathEnvVar); path != "" {
		return path
	}
	dir, err := config.ConfigDir()
	if err != nil {
		return "built-in defaults"
	}
	path := filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt)
	if _, err := os.Stat(path); err != nil {
		return "built-in defaults"
	}
	return path
}

// printCheckReport renders the rows as a styled terminal report.
func printCheckReport(rows []checkRow) {
	fmt.Println(TitleStyle.Render("Environment report"))
	fmt.Println()
	for _, row := range rows {
		mark := SuccessStyle.Render("✓")
		if !row.OK {
			if row.Required {
				mark = ErrorStyle.Render("✗")
			} else {
				mark = WarningStyle.Render("-")
			}
		}
		line := fmt.Sprintf("%s %s", mark, CmdStyle.Render(row.Name))
		if row.Detail != "" {
			line += ": " + row.Detail
		}
		if !row.Required {
			line += " " + SubtitleStyle.Render("(optional)")
		}
		fmt.Println(line)
	}
}

// printCheckJSON renders the rows as a JSON array for scripting.
func printCheckJSON(w io.Writer, rows []checkRow) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
