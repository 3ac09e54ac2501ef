// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookforge/pkg/types"
)

const (
	// DefaultHost is the bind address used when Config.Host is empty.
	DefaultHost HostAddress = "0.0.0.0"
	// DefaultShell is the shell used when Config.DefaultShell is empty.
	DefaultShell = "/bin/sh"
	// DefaultStartupTimeout bounds how long Start() waits for the listener.
	DefaultStartupTimeout = 5 * time.Second
	// DefaultShutdownTimeout bounds how long Stop() waits for open sessions.
	DefaultShutdownTimeout = 10 * time.Second
)

var (
	// ErrInvalidHostAddress is the sentinel error wrapped by InvalidHostAddressError.
	ErrInvalidHostAddress = errors.New("invalid host address")
	// ErrInvalidListenPort is re-exported from pkg/types for callers that
	// only import this package.
	ErrInvalidListenPort = types.ErrInvalidListenPort
	// ErrInvalidServerConfig is the sentinel error wrapped by InvalidServerConfigError.
	ErrInvalidServerConfig = errors.New("invalid SSH server config")
)

type (
	// HostAddress represents a network host address (IP or hostname) for
	// server binding. A valid address must be non-empty and not
	// whitespace-only.
	HostAddress string

	// ListenPort is re-exported from pkg/types as a cross-cutting type
	// shared with the configuration layer.
	ListenPort = types.ListenPort

	// InvalidHostAddressError is returned when a HostAddress value is
	// empty or whitespace-only.
	InvalidHostAddressError struct {
		Value HostAddress
	}

	// InvalidListenPortError is re-exported from pkg/types.
	InvalidListenPortError = types.InvalidListenPortError

	// InvalidServerConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidServerConfig for errors.Is() compatibility and
	// collects field-level validation errors from Host, Port, and
	// DefaultShell.
	InvalidServerConfigError struct {
		FieldErrors []error
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 0.0.0.0).
		Host HostAddress
		// Port is the port to listen on (0 = auto-select).
		Port ListenPort
		// Password enables password authentication when non-empty.
		Password string
		// AuthorizedKeysPath enables public-key authentication against the
		// given authorized_keys file. A configured path that cannot be read
		// or parsed fails startup.
		AuthorizedKeysPath string
		// HostKeyPath is where the server host key lives. The key is
		// generated on first start when the file does not exist. Empty
		// means an ephemeral in-memory key per server instance.
		HostKeyPath string
		// DefaultShell is the shell for interactive sessions (default: /bin/sh).
		DefaultShell string
		// StartupTimeout is the max time to wait for the server to be ready
		// (default: 5s).
		StartupTimeout time.Duration
		// ShutdownTimeout is the timeout for graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
	}
)

// String returns the string representation of the HostAddress.
func (h HostAddress) String() string { return string(h) }

// Validate returns nil if the HostAddress is valid (non-empty and not
// whitespace-only), or an error wrapping ErrInvalidHostAddress if it is not.
//
//goplint:nonzero
func (h HostAddress) Validate() error {
	if strings.TrimSpace(string(h)) == "" {
		return &InvalidHostAddressError{Value: h}
	}
	return nil
}

// Error implements the error interface for InvalidHostAddressError.
func (e *InvalidHostAddressError) Error() string {
	return fmt.Sprintf("invalid host address %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidHostAddress for errors.Is() compatibility.
func (e *InvalidHostAddressError) Unwrap() error { return ErrInvalidHostAddress }

// Error implements the error interface for InvalidServerConfigError.
func (e *InvalidServerConfigError) Error() string {
	return fmt.Sprintf("invalid SSH server config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidServerConfig for errors.Is() compatibility.
func (e *InvalidServerConfigError) Unwrap() error { return ErrInvalidServerConfig }

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		Host:            DefaultHost,
		Port:            0,
		DefaultShell:    DefaultShell,
		StartupTimeout:  DefaultStartupTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate returns nil if the Config is structurally valid, or an
// InvalidServerConfigError collecting the field errors if it is not.
// Credentials are deliberately not validated here: a Config without any
// is legal and yields a server that rejects every connection.
func (c Config) Validate() error {
	var fieldErrors []error

	if err := c.Host.Validate(); err != nil {
		fieldErrors = append(fieldErrors, err)
	}
	if err := c.Port.Validate(); err != nil {
		fieldErrors = append(fieldErrors, err)
	}
	if strings.TrimSpace(c.DefaultShell) == "" {
		fieldErrors = append(fieldErrors, fmt.Errorf("default shell must be non-empty"))
	}

	if len(fieldErrors) > 0 {
		return &InvalidServerConfigError{FieldErrors: fieldErrors}
	}
	return nil
}

// withDefaults returns a copy of the Config with zero fields replaced by
// their defaults.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.DefaultShell == "" {
		c.DefaultShell = DefaultShell
	}
	if c.StartupTimeout == 0 {
		c.StartupTimeout = DefaultStartupTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	return c
}
