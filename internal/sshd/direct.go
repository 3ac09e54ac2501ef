// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"context"
	"errors"
	"io/fs"
	"os/exec"

	"bookforge/internal/issue"
)

// DirectBinaryLauncher starts the SSH daemon by invoking the sshd binary.
// OpenSSH forks into the background on its own, so the parent invocation
// returns as soon as the daemon is off the ground.
type DirectBinaryLauncher struct {
	launcherBase
	binaryPath string
}

// NewDirectBinaryLauncher creates a launcher for the given sshd binary.
func NewDirectBinaryLauncher(binaryPath string, opts ...Option) *DirectBinaryLauncher {
	return &DirectBinaryLauncher{
		launcherBase: newLauncherBase(opts...),
		binaryPath:   binaryPath,
	}
}

// Name returns the method name.
func (l *DirectBinaryLauncher) Name() string {
	return MethodDirect
}

// Available reports whether the sshd binary exists and is executable.
func (l *DirectBinaryLauncher) Available() bool {
	_, err := l.lookPath(l.binaryPath)
	return err == nil
}

// Start invokes the sshd binary and waits for the parent process to exit.
func (l *DirectBinaryLauncher) Start(ctx context.Context) error {
	l.logger.Debug("starting sshd binary", "path", l.binaryPath)

	cmd := l.execCommand(ctx, l.binaryPath)
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	if err := cmd.Run(); err != nil {
		startErr := &DaemonStartFailedError{Method: l.Name(), Cause: err}

		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return issue.NewErrorContext().
				WithOperation("start ssh daemon").
				WithResource(l.binaryPath).
				WithSuggestion("Install the openssh-server package in the image").
				WithSuggestion("Set ssh.binary_path if sshd lives somewhere else").
				Wrap(startErr).
				BuildError()
		}

		return issue.NewErrorContext().
			WithOperation("start ssh daemon").
			WithResource(l.binaryPath).
			WithSuggestion("Run the binary by hand inside the container to see its error output").
			WithSuggestion("Check that the runtime directory exists and host keys are generated").
			Wrap(startErr).
			BuildError()
	}

	l.logger.Debug("sshd started", "path", l.binaryPath)
	return nil
}
