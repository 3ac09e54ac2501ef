// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookforge/internal/core/serverbase"
	"bookforge/internal/testutil"
)

// testConfig returns a config bound to loopback with an auto-selected port.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	return cfg
}

func TestServerStartStop(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	if srv.State() != serverbase.StateCreated {
		t.Errorf("State should be Created, got %s", srv.State())
	}
	if srv.IsRunning() {
		t.Error("Server should not be running before Start()")
	}

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if srv.State() != serverbase.StateRunning {
		t.Errorf("State should be Running, got %s", srv.State())
	}
	if !srv.IsRunning() {
		t.Error("Server should be running after Start()")
	}
	if srv.Port() == 0 {
		t.Error("Server port should be assigned")
	}
	if srv.Address() == "" {
		t.Error("Server address should not be empty")
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}

	if srv.State() != serverbase.StateStopped {
		t.Errorf("State should be Stopped, got %s", srv.State())
	}
	if srv.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}
}

func TestServerDoubleStart(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer testutil.MustStop(t, srv)

	// Second Start() should fail
	if err := srv.Start(ctx); err == nil {
		t.Error("Second Start() should return error")
	}
}

func TestServerDoubleStop(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("First Stop() failed: %v", err)
	}

	// Second Stop() should be no-op (not error)
	if err := srv.Stop(); err != nil {
		t.Errorf("Second Stop() should not error, got: %v", err)
	}
}

func TestServerStartWithCancelledContext(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := srv.Start(ctx)
	if err == nil {
		t.Error("Start with cancelled context should return error")
		testutil.MustStop(t, srv)
	}

	if srv.State() != serverbase.StateFailed {
		t.Errorf("State should be Failed, got %s", srv.State())
	}
}

func TestStopWithoutStart(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	if err := srv.Stop(); err != nil {
		t.Errorf("Stop without Start should not error, got: %v", err)
	}

	if srv.State() != serverbase.StateStopped {
		t.Errorf("State should be Stopped, got %s", srv.State())
	}
}

func TestServerStartWithUsedPort(t *testing.T) {
	t.Parallel()

	srv1 := New(testConfig())

	ctx := context.Background()
	if err := srv1.Start(ctx); err != nil {
		t.Fatalf("Failed to start server1: %v", err)
	}
	defer testutil.MustStop(t, srv1)

	// Create server2 targeting the same port
	cfg2 := testConfig()
	cfg2.Port = ListenPort(srv1.Port())
	srv2 := New(cfg2)

	err := srv2.Start(ctx)
	if err == nil {
		testutil.MustStop(t, srv2)
		t.Fatal("Start with used port should return error")
	}

	if srv2.State() != serverbase.StateFailed {
		t.Errorf("State should be Failed, got %s", srv2.State())
	}
}

func TestServerAccessorsAfterStart(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer testutil.MustStop(t, srv)

	if !strings.Contains(srv.Address(), ":") {
		t.Errorf("Address() = %q, should contain ':'", srv.Address())
	}
	if srv.Port() <= 0 {
		t.Errorf("Port() = %d, should be > 0", srv.Port())
	}
	if srv.Host() != "127.0.0.1" {
		t.Errorf("Host() = %q, want %q", srv.Host(), "127.0.0.1")
	}
}

func TestServerWaitAfterStop(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if err := srv.Stop(); err != nil {
		t.Fatalf("Failed to stop server: %v", err)
	}

	if err := srv.Wait(); err != nil {
		t.Errorf("Wait() after Stop should return nil, got: %v", err)
	}
}

func TestServerWaitAfterFail(t *testing.T) {
	t.Parallel()

	srv := New(testConfig())

	// Use an already-cancelled context to force Start to fail
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := srv.Start(ctx); err == nil {
		testutil.MustStop(t, srv)
		t.Fatal("Start with cancelled context should return error")
	}

	if err := srv.Wait(); err == nil {
		t.Error("Wait() after failed Start should return non-nil error")
	}
}

func TestStartWritesHostKey(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.HostKeyPath = filepath.Join(t.TempDir(), "host_key")
	srv := New(cfg)

	ctx := context.Background()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer testutil.MustStop(t, srv)

	if _, err := os.Stat(cfg.HostKeyPath); err != nil {
		t.Errorf("host key not created at %s: %v", cfg.HostKeyPath, err)
	}
}

func TestStartFailsOnMalformedAuthorizedKeys(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keysPath := filepath.Join(dir, "authorized_keys")
	testutil.MustWriteFile(t, keysPath, []byte("this is not a key\n"), 0o600)

	cfg := testConfig()
	cfg.AuthorizedKeysPath = keysPath
	srv := New(cfg)

	err := srv.Start(context.Background())
	if err == nil {
		testutil.MustStop(t, srv)
		t.Fatal("Start with malformed authorized_keys should return error")
	}

	if srv.State() != serverbase.StateFailed {
		t.Errorf("State should be Failed, got %s", srv.State())
	}
}

func TestStartFailsOnMissingAuthorizedKeys(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.AuthorizedKeysPath = filepath.Join(t.TempDir(), "does-not-exist")
	srv := New(cfg)

	err := srv.Start(context.Background())
	if err == nil {
		testutil.MustStop(t, srv)
		t.Fatal("Start with missing authorized_keys should return error")
	}

	if srv.State() != serverbase.StateFailed {
		t.Errorf("State should be Failed, got %s", srv.State())
	}
}

func TestIsClosedConnError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"generic error", errors.New("something"), false},
		{"closed conn OpError", &net.OpError{Op: "read", Err: errors.New("use of closed network connection")}, true},
		{"different OpError", &net.OpError{Op: "read", Err: errors.New("different error")}, false},
		{"non-OpError type", errors.New("use of closed network connection"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := isClosedConnError(tt.err); got != tt.want {
				t.Errorf("isClosedConnError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Note: Server restart (Stop then Start on the same instance) is not supported.
// Server instances are single-use: once stopped, create a new instance.
