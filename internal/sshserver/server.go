// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"net"
	"os"
	"sync"

	"bookforge/internal/core/serverbase"

	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
)

// Server is an in-process SSH server serving shell and exec sessions.
// A Server instance is single-use: once stopped or failed, create a new
// instance.
type Server struct {
	*serverbase.Base

	// Immutable configuration (set at creation, never modified)
	cfg Config

	// Initialized during Start() - protected by srvMu for writes
	srvMu    sync.Mutex
	srv      *ssh.Server
	listener net.Listener
	addr     string // Actual bound address (including resolved port)

	// Parsed from cfg.AuthorizedKeysPath during Start()
	authorizedKeys []ssh.PublicKey

	logger *log.Logger
}

// New creates a new SSH server instance with config defaults applied.
// The server is not started; call Start() to begin accepting connections.
func New(cfg Config) *Server {
	cfg = cfg.withDefaults()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "ssh-server",
	})

	return &Server{
		Base:   serverbase.NewBase(),
		cfg:    cfg,
		logger: logger,
	}
}
