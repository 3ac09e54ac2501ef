// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"bookforge/internal/config"
	"bookforge/internal/entrypoint"
	"bookforge/internal/sshd"
	"bookforge/internal/sshserver"

	"github.com/spf13/cobra"
)

// embeddedHostKeyFile is the host key filename used by the embedded SSH
// server when no explicit path is configured.
const embeddedHostKeyFile = "ssh_host_ed25519"

// newEntrypointCommand creates the `bookforge entrypoint` command.
//
// Flag parsing is non-interspersed: it stops at the first positional
// argument, so the workload command keeps its own flags untouched.
func newEntrypointCommand() *cobra.Command {
	var (
		runtimeDir string
		sshMode    string
		sshService string
		sshdPath   string
		sshPort    int
		keepAlive  bool
	)

	cmd := &cobra.Command{
		Use:   "entrypoint [flags] [--] [command args...]",
		Short: "Start sshd, then run the container workload",
		Long: TitleStyle.Render("bookforge entrypoint") + `

Runs the container bootstrap sequence: create sshd's runtime directory,
bring up the SSH daemon, then hand off to the workload command. The
workload's outcome never brings the container down, so a crashed batch
job stays reachable over SSH for debugging.

Set KEEP_ALIVE=1 to hold the container open after the workload exits.

` + SubtitleStyle.Render("Examples:") + `
  bookforge entrypoint python convert_batch.py
  bookforge entrypoint --ssh-mode embedded -- sh -c "make books"
  KEEP_ALIVE=1 bookforge entrypoint python convert_batch.py`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loadErr := config.LoadOrDefault()
			if loadErr != nil {
				fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
					"config load failed, continuing with defaults: "+loadErr.Error())
			}

			flags := cmd.Flags()
			if flags.Changed("runtime-dir") {
				cfg.Entrypoint.RuntimeDir = runtimeDir
			}
			if flags.Changed("keep-alive") {
				cfg.Entrypoint.KeepAlive = keepAlive
			}
			if flags.Changed("ssh-mode") {
				cfg.SSH.Mode = config.SSHMode(sshMode)
			}
			if flags.Changed("ssh-service") {
				cfg.SSH.ServiceName = sshService
			}
			if flags.Changed("sshd-path") {
				cfg.SSH.BinaryPath = sshdPath
			}
			if flags.Changed("ssh-port") {
				cfg.SSH.Embedded.Port = sshPort
			}

			launcher, err := buildLauncher(cfg)
			if err != nil {
				return &ExitError{Code: 1, Err: err}
			}

			orch := entrypoint.New(cfg, launcher,
				entrypoint.WithLogger(newCmdLogger("entrypoint")))
			if err := orch.Run(cmd.Context(), args); err != nil {
				renderIssue(os.Stderr, entrypointIssue(err))
				return &ExitError{Code: 1, Err: err}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.SetInterspersed(false)
	flags.StringVar(&runtimeDir, "runtime-dir", "", "sshd runtime directory (default /var/run/sshd)")
	flags.BoolVar(&keepAlive, "keep-alive", false, "hold the container open after the workload exits")
	flags.StringVar(&sshMode, "ssh-mode", "", "ssh startup mode: auto, managed, direct, or embedded")
	flags.StringVar(&sshService, "ssh-service", "", "ssh service name for managed mode (default ssh)")
	flags.StringVar(&sshdPath, "sshd-path", "", "sshd binary for direct mode (default /usr/sbin/sshd)")
	flags.IntVar(&sshPort, "ssh-port", 0, "listen port for the embedded server (default 2222)")

	return cmd
}

// buildLauncher picks the SSH launcher for the configured mode. Embedded
// mode runs in-process and is dispatched here; the OpenSSH modes go
// through sshd.Select.
func buildLauncher(cfg *config.Config) (sshd.Launcher, error) {
	if cfg.SSH.Mode == config.SSHModeEmbedded {
		return sshserver.NewLauncher(sshserver.Config{
			Host:               sshserver.HostAddress(cfg.SSH.Embedded.ListenAddr),
			Port:               sshserver.ListenPort(cfg.SSH.Embedded.Port),
			Password:           cfg.SSH.Embedded.Password,
			AuthorizedKeysPath: cfg.SSH.Embedded.AuthorizedKeysPath,
			HostKeyPath:        embeddedHostKeyPath(cfg),
		}), nil
	}
	return sshd.Select(cfg.SSH, sshd.WithLogger(newCmdLogger("sshd")))
}

// embeddedHostKeyPath returns where the embedded server's host key lives.
// The config directory is preferred so the key survives container restarts
// when that directory is mounted; the runtime directory is the fallback.
func embeddedHostKeyPath(cfg *config.Config) string {
	if dir, err := config.ConfigDir(); err == nil {
		return filepath.Join(dir, embeddedHostKeyFile)
	}
	return filepath.Join(cfg.Entrypoint.RuntimeDir, embeddedHostKeyFile)
}
