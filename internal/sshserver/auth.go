// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/ssh"
	gossh "golang.org/x/crypto/ssh"
)

// loadAuthorizedKeys parses an authorized_keys file into public keys.
// Blank lines and comment lines are skipped. A malformed line fails the
// whole load so a typo cannot silently drop a key.
func loadAuthorizedKeys(path string) ([]ssh.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read authorized keys file: %w", err)
	}

	var keys []ssh.PublicKey
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, _, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
		if err != nil {
			return nil, fmt.Errorf("failed to parse authorized key on line %d: %w", i+1, err)
		}
		keys = append(keys, key)
	}

	return keys, nil
}

// passwordMatches compares a presented password against the configured one
// in constant time. An empty configured password never matches: password
// authentication is opt-in.
func passwordMatches(configured, presented string) bool {
	if configured == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(configured), []byte(presented)) == 1
}

// hasCredentials reports whether at least one authentication method is
// configured.
func (s *Server) hasCredentials() bool {
	return s.cfg.Password != "" || len(s.authorizedKeys) > 0
}

// keyAuthorized reports whether the key is listed in the authorized_keys
// file loaded at startup.
func (s *Server) keyAuthorized(key ssh.PublicKey) bool {
	for _, authorized := range s.authorizedKeys {
		if ssh.KeysEqual(key, authorized) {
			return true
		}
	}
	return false
}

// passwordHandler accepts a session when the presented password matches
// the configured one.
func (s *Server) passwordHandler(ctx ssh.Context, password string) bool {
	if !passwordMatches(s.cfg.Password, password) {
		s.logger.Warn("rejected password authentication attempt", "user", ctx.User())
		return false
	}

	s.logger.Debug("password authentication successful", "user", ctx.User())
	return true
}

// publicKeyHandler accepts a session when the presented key is authorized.
func (s *Server) publicKeyHandler(ctx ssh.Context, key ssh.PublicKey) bool {
	if !s.keyAuthorized(key) {
		s.logger.Warn("rejected public key authentication attempt", "user", ctx.User())
		return false
	}

	s.logger.Debug("public key authentication successful", "user", ctx.User())
	return true
}
