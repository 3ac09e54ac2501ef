// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"

	"bookforge/internal/issue"
	"bookforge/internal/sshd"
)

// Launcher adapts the embedded server to the daemon launcher contract the
// entrypoint drives: a method name for logs, an availability probe, and a
// Start that returns once connections are accepted. Unlike the OpenSSH
// launchers it also owns shutdown, since the daemon lives in this process.
type Launcher struct {
	server *Server
}

// NewLauncher returns a launcher that starts an embedded server with the
// given configuration.
func NewLauncher(cfg Config) *Launcher {
	return &Launcher{server: New(cfg)}
}

// Name returns the startup method name.
func (l *Launcher) Name() string {
	return sshd.MethodEmbedded
}

// Available always reports true: the embedded server needs no external
// tooling.
func (l *Launcher) Available() bool {
	return true
}

// Start brings up the embedded server and blocks until it accepts
// connections or fails.
func (l *Launcher) Start(ctx context.Context) error {
	if err := l.server.Start(ctx); err != nil {
		return issue.NewErrorContext().
			WithOperation("start embedded ssh server").
			WithResource(l.server.cfg.Host.String()).
			WithSuggestion("Check that the configured port is free inside the container").
			WithSuggestion("Set ssh.mode to \"direct\" to use an OpenSSH daemon instead").
			Wrap(&sshd.DaemonStartFailedError{Method: l.Name(), Cause: err}).
			BuildError()
	}
	return nil
}

// Stop gracefully stops the embedded server.
func (l *Launcher) Stop() error {
	return l.server.Stop()
}

// Server returns the underlying server, for callers that need its bound
// address or error channel.
func (l *Launcher) Server() *Server {
	return l.server
}
