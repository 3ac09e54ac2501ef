// SPDX-License-Identifier: MPL-2.0

// Package sshserver provides an in-process SSH server built on the Wish
// library. It backs the "embedded" startup method for images that ship
// without an OpenSSH daemon: instead of launching an external sshd, the
// entrypoint binds a listener itself and serves shell and exec sessions
// directly.
//
// Authentication is credential-based. A session is accepted when the
// client presents the configured password or a key listed in the
// configured authorized_keys file. With neither credential configured
// every connection is rejected.
package sshserver
