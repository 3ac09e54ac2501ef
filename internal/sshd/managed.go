// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"context"
	"fmt"

	"bookforge/internal/issue"
)

// ManagedServiceLauncher starts the SSH daemon through the image's service
// manager, equivalent to running "service <name> start".
type ManagedServiceLauncher struct {
	launcherBase
	serviceName string
}

// NewManagedServiceLauncher creates a launcher for the named SSH service.
func NewManagedServiceLauncher(serviceName string, opts ...Option) *ManagedServiceLauncher {
	return &ManagedServiceLauncher{
		launcherBase: newLauncherBase(opts...),
		serviceName:  serviceName,
	}
}

// Name returns the method name.
func (l *ManagedServiceLauncher) Name() string {
	return MethodManaged
}

// Available reports whether the service wrapper is on PATH.
func (l *ManagedServiceLauncher) Available() bool {
	_, err := l.lookPath(serviceManagerBinary)
	return err == nil
}

// Start runs "service <name> start". The service wrapper returns once the
// daemon has been handed off, so a clean exit means the launch succeeded.
func (l *ManagedServiceLauncher) Start(ctx context.Context) error {
	l.logger.Debug("starting ssh service", "service", l.serviceName)

	cmd := l.execCommand(ctx, serviceManagerBinary, l.serviceName, "start")
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	if err := cmd.Run(); err != nil {
		return issue.NewErrorContext().
			WithOperation("start ssh service").
			WithResource(l.serviceName).
			WithSuggestion(fmt.Sprintf("Check 'service %s status' inside the container", l.serviceName)).
			WithSuggestion("Set ssh.mode to \"direct\" to bypass the service manager").
			Wrap(&DaemonStartFailedError{Method: l.Name(), Cause: err}).
			BuildError()
	}

	l.logger.Debug("ssh service started", "service", l.serviceName)
	return nil
}
