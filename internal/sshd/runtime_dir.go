// SPDX-License-Identifier: MPL-2.0

package sshd

import (
	"os"

	"bookforge/internal/issue"
)

// EnsureRuntimeDir creates sshd's privilege-separation directory, including
// parents. An existing directory is fine; anything else is a hard error
// because sshd refuses to start without it.
func EnsureRuntimeDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return issue.NewErrorContext().
			WithOperation("create ssh runtime directory").
			WithResource(dir).
			WithSuggestion("Run the container with a writable filesystem for " + dir).
			WithSuggestion("Override entrypoint.runtime_dir if sshd is built with a different pid directory").
			Wrap(err).
			BuildError()
	}
	return nil
}
