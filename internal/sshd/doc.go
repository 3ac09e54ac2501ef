// SPDX-License-Identifier: MPL-2.0

// Package sshd brings up the SSH daemon during container bootstrap. A probe
// picks exactly one startup method (service manager or direct binary) and the
// chosen launcher either succeeds or fails on its own: there is no fallback
// from one method to the other, so a misconfigured service manager surfaces
// as a hard error instead of being papered over.
package sshd
