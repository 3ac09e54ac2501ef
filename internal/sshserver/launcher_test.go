// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"testing"

	"bookforge/internal/sshd"
	"bookforge/internal/testutil"
)

func TestLauncherMetadata(t *testing.T) {
	t.Parallel()

	l := NewLauncher(testConfig())

	if l.Name() != sshd.MethodEmbedded {
		t.Errorf("Name() = %q, want %q", l.Name(), sshd.MethodEmbedded)
	}
	if !l.Available() {
		t.Error("Available() = false, embedded launcher needs no tooling")
	}
}

func TestLauncherStartStop(t *testing.T) {
	t.Parallel()

	l := NewLauncher(testConfig())

	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}
	defer testutil.MustStop(t, l)

	if !l.Server().IsRunning() {
		t.Error("server not running after launcher Start()")
	}
	if l.Server().Port() == 0 {
		t.Error("server port not assigned after launcher Start()")
	}
}

func TestLauncherStartFailure(t *testing.T) {
	t.Parallel()

	// Occupy a port, then point a second launcher at it.
	blocker := New(testConfig())
	if err := blocker.Start(context.Background()); err != nil {
		t.Fatalf("failed to start blocking server: %v", err)
	}
	defer testutil.MustStop(t, blocker)

	cfg := testConfig()
	cfg.Port = ListenPort(blocker.Port())
	l := NewLauncher(cfg)

	err := l.Start(context.Background())
	if err == nil {
		testutil.MustStop(t, l)
		t.Fatal("Start() on an occupied port should return error")
	}

	startErr, ok := errors.AsType[*sshd.DaemonStartFailedError](err)
	if !ok {
		t.Fatalf("error is not a DaemonStartFailedError: %v", err)
	}
	if startErr.Method != sshd.MethodEmbedded {
		t.Errorf("Method = %q, want %q", startErr.Method, sshd.MethodEmbedded)
	}
}
