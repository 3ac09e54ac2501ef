// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"bookforge/internal/config"

	"github.com/charmbracelet/log"
)

const (
	// MethodManaged identifies startup through the service manager.
	MethodManaged = "service-manager"
	// MethodDirect identifies startup by invoking the sshd binary.
	MethodDirect = "sshd-binary"
	// MethodEmbedded identifies the in-process server; its launcher lives in
	// the sshserver package.
	MethodEmbedded = "embedded"

	// serviceManagerBinary is the service wrapper probed for on PATH.
	serviceManagerBinary = "service"
)

type (
	// Launcher starts the SSH daemon using one specific method.
	Launcher interface {
		// Name returns the method name for log and error output.
		Name() string
		// Available reports whether this method's tooling is present.
		Available() bool
		// Start launches the daemon. It returns once the launch command
		// completes; it does not wait for the daemon to accept connections.
		Start(ctx context.Context) error
	}

	// LookPathFunc is the function signature for binary probing.
	// Defaults to exec.LookPath; tests inject a fake.
	LookPathFunc func(file string) (string, error)

	// ExecCommandFunc is the function signature for creating exec.Cmd.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// DaemonStartFailedError is returned when the chosen startup method ran
	// but could not bring the daemon up.
	DaemonStartFailedError struct {
		// Method is the launcher that failed (MethodManaged or MethodDirect).
		Method string
		// Cause is the underlying launch error.
		Cause error
	}

	// launcherBase holds the seams shared by the OpenSSH launchers.
	launcherBase struct {
		lookPath    LookPathFunc
		execCommand ExecCommandFunc
		stdout      io.Writer
		stderr      io.Writer
		logger      *log.Logger
	}

	// Option configures a launcher.
	Option func(*launcherBase)
)

// Error implements the error interface for DaemonStartFailedError.
func (e *DaemonStartFailedError) Error() string {
	return fmt.Sprintf("ssh daemon start via %s failed: %v", e.Method, e.Cause)
}

// Unwrap returns the underlying launch error.
func (e *DaemonStartFailedError) Unwrap() error {
	return e.Cause
}

// WithLookPath sets a custom binary prober for testing.
func WithLookPath(fn LookPathFunc) Option {
	return func(b *launcherBase) {
		b.lookPath = fn
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(b *launcherBase) {
		b.execCommand = fn
	}
}

// WithOutput redirects the launch command's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *launcherBase) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// WithLogger sets the logger used for launch diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(b *launcherBase) {
		b.logger = logger
	}
}

func newLauncherBase(opts ...Option) launcherBase {
	b := launcherBase{
		lookPath:    exec.LookPath,
		execCommand: exec.CommandContext,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "sshd",
		}),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Select picks the launcher for the configured startup mode. In auto mode a
// single probe decides: when the service wrapper is on PATH the managed
// method is chosen, otherwise the direct method is. The probe result is
// final, so a launcher that fails to start never hands over to the other
// method.
//
// The embedded mode is served by a dedicated in-process server and is not
// selectable here; callers dispatch it before consulting Select.
func Select(cfg config.SSHConfig, opts ...Option) (Launcher, error) {
	managed := NewManagedServiceLauncher(cfg.ServiceName, opts...)
	direct := NewDirectBinaryLauncher(cfg.BinaryPath, opts...)

	switch cfg.Mode {
	case config.SSHModeManaged:
		return managed, nil
	case config.SSHModeDirect:
		return direct, nil
	case config.SSHModeAuto, "":
		if managed.Available() {
			return managed, nil
		}
		return direct, nil
	default:
		return nil, fmt.Errorf("ssh mode %q requires a dedicated launcher", cfg.Mode)
	}
}
