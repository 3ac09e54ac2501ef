// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"testing"
	"time"
)

func TestHostAddressValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     HostAddress
		wantValid bool
	}{
		{"ipv4 any", "0.0.0.0", true},
		{"loopback", "127.0.0.1", true},
		{"hostname", "localhost", true},
		{"empty", "", false},
		{"whitespace only", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Errorf("HostAddress(%q).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidHostAddress) {
				t.Errorf("error does not wrap ErrInvalidHostAddress: %v", err)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("default config is valid", func(t *testing.T) {
		t.Parallel()

		if err := DefaultConfig().Validate(); err != nil {
			t.Errorf("DefaultConfig().Validate() returned error: %v", err)
		}
	})

	t.Run("no credentials is still valid", func(t *testing.T) {
		t.Parallel()

		cfg := DefaultConfig()
		cfg.Password = ""
		cfg.AuthorizedKeysPath = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("credential-less config should be valid, got: %v", err)
		}
	})

	t.Run("collects all field errors", func(t *testing.T) {
		t.Parallel()

		cfg := Config{
			Host:         "   ",
			Port:         70000,
			DefaultShell: "",
		}

		err := cfg.Validate()
		if err == nil {
			t.Fatal("expected validation errors")
		}
		if !errors.Is(err, ErrInvalidServerConfig) {
			t.Errorf("error does not wrap ErrInvalidServerConfig: %v", err)
		}

		cfgErr, ok := errors.AsType[*InvalidServerConfigError](err)
		if !ok {
			t.Fatalf("error is not an InvalidServerConfigError: %v", err)
		}
		if len(cfgErr.FieldErrors) != 3 {
			t.Errorf("collected %d field errors, want 3", len(cfgErr.FieldErrors))
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", cfg.Host, DefaultHost)
	}
	if cfg.Port != 0 {
		t.Errorf("Port = %d, want 0", cfg.Port)
	}
	if cfg.DefaultShell != DefaultShell {
		t.Errorf("DefaultShell = %q, want %q", cfg.DefaultShell, DefaultShell)
	}
	if cfg.StartupTimeout != 5*time.Second {
		t.Errorf("StartupTimeout = %v, want %v", cfg.StartupTimeout, 5*time.Second)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want %v", cfg.ShutdownTimeout, 10*time.Second)
	}
}

func TestNewAppliesDefaults(t *testing.T) {
	t.Parallel()

	srv := New(Config{})

	if srv.cfg.Host != DefaultHost {
		t.Errorf("Host = %q, want %q", srv.cfg.Host, DefaultHost)
	}
	if srv.cfg.DefaultShell != DefaultShell {
		t.Errorf("DefaultShell = %q, want %q", srv.cfg.DefaultShell, DefaultShell)
	}
	if srv.cfg.StartupTimeout != DefaultStartupTimeout {
		t.Errorf("StartupTimeout = %v, want %v", srv.cfg.StartupTimeout, DefaultStartupTimeout)
	}
	if srv.cfg.ShutdownTimeout != DefaultShutdownTimeout {
		t.Errorf("ShutdownTimeout = %v, want %v", srv.cfg.ShutdownTimeout, DefaultShutdownTimeout)
	}
}
