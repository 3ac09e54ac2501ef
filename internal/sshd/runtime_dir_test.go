// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bookforge/internal/issue"
	"bookforge/internal/testutil"
)

func TestEnsureRuntimeDir_CreatesNested(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "var", "run", "sshd")

	if err := EnsureRuntimeDir(dir); err != nil {
		t.Fatalf("EnsureRuntimeDir() returned error: %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat after create failed: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestEnsureRuntimeDir_ExistingDirIsFine(t *testing.T) {
	dir := t.TempDir()

	if err := EnsureRuntimeDir(dir); err != nil {
		t.Errorf("EnsureRuntimeDir() on an existing directory returned error: %v", err)
	}
}

func TestEnsureRuntimeDir_PathBlockedByFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	testutil.MustWriteFile(t, blocker, []byte("not a directory"), 0o644)

	err := EnsureRuntimeDir(filepath.Join(blocker, "sshd"))
	if err == nil {
		t.Fatal("expected an error when a file blocks the path")
	}

	ae, ok := errors.AsType[*issue.ActionableError](err)
	if !ok {
		t.Fatalf("expected an ActionableError, got %T", err)
	}
	if ae.Resource == "" {
		t.Error("expected the failing path in the error resource")
	}
}
