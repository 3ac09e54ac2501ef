// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"

	"bookforge/internal/issue"
	"bookforge/internal/testutil"
)

func TestDirectBinaryLauncher_StartArgs(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	launcher := NewDirectBinaryLauncher("/usr/sbin/sshd", quietOpts(
		WithExecCommand(recorder.ContextCommandFunc(t)),
	)...)

	if err := launcher.Start(context.Background()); err != nil {
		t.Fatalf("Start() returned error: %v", err)
	}

	inv := recorder.LastInvocation()
	if inv == nil {
		t.Fatal("expected a recorded invocation")
	}
	if inv.Name != "/usr/sbin/sshd" {
		t.Errorf("command = %q, want /usr/sbin/sshd", inv.Name)
	}
	if len(inv.Args) != 0 {
		t.Errorf("args = %v, want none", inv.Args)
	}
}

func TestDirectBinaryLauncher_StartFailure(t *testing.T) {
	recorder := testutil.NewMockCommandRecorder()
	recorder.ExitCode = 255
	launcher := NewDirectBinaryLauncher("/usr/sbin/sshd", quietOpts(
		WithExecCommand(recorder.ContextCommandFunc(t)),
	)...)

	err := launcher.Start(context.Background())
	if err == nil {
		t.Fatal("expected Start() to fail")
	}

	startErr, ok := errors.AsType[*DaemonStartFailedError](err)
	if !ok {
		t.Fatalf("expected a DaemonStartFailedError in the chain, got %T: %v", err, err)
	}
	if startErr.Method != MethodDirect {
		t.Errorf("failed method = %s, want %s", startErr.Method, MethodDirect)
	}
}

func TestDirectBinaryLauncher_MissingBinary(t *testing.T) {
	launcher := NewDirectBinaryLauncher(
		filepath.Join(t.TempDir(), "sshd"), quietOpts()...)

	err := launcher.Start(context.Background())
	if err == nil {
		t.Fatal("expected Start() to fail for a missing binary")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected the chain to report a missing file, got %v", err)
	}

	ae, ok := errors.AsType[*issue.ActionableError](err)
	if !ok {
		t.Fatalf("expected an ActionableError, got %T", err)
	}
	if !ae.HasSuggestions() {
		t.Error("expected remediation suggestions for a missing binary")
	}
}

func TestDirectBinaryLauncher_Available(t *testing.T) {
	dir := t.TempDir()
	binPath := filepath.Join(dir, "sshd")
	testutil.MustWriteFile(t, binPath, []byte("#!/bin/sh\n"), 0o755)

	present := NewDirectBinaryLauncher(binPath, quietOpts()...)
	if !present.Available() {
		t.Error("expected Available() = true for an executable file")
	}

	missing := NewDirectBinaryLauncher(filepath.Join(dir, "nope"), quietOpts()...)
	if missing.Available() {
		t.Error("expected Available() = false for a missing file")
	}
}
