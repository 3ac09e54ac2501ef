// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"strings"
	"testing"

	"bookforge/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-08-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-08-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("falls back to dev without build info", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "dev"
		Commit = "unknown"
		BuildDate = "unknown"

		got := getVersionString()
		want := "dev (built from source)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestRootSubcommands(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"entrypoint", "convert", "check", "config"} {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("rootCmd is missing subcommand %q", name)
		}
	}
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()

		got := formatErrorForDisplay(errors.New("boom"), false)
		if got != "boom" {
			t.Errorf("formatErrorForDisplay() = %q, want %q", got, "boom")
		}
	})

	t.Run("actionable error includes suggestions", func(t *testing.T) {
		t.Parallel()

		err := issue.NewErrorContext().
			WithOperation("load configuration").
			WithSuggestion("Check the CUE syntax").
			Wrap(errors.New("parse error")).
			BuildError()

		got := formatErrorForDisplay(err, false)
		if !strings.Contains(got, "failed to load configuration") {
			t.Errorf("formatErrorForDisplay() = %q, want the operation included", got)
		}
		if !strings.Contains(got, "Check the CUE syntax") {
			t.Errorf("formatErrorForDisplay() = %q, want the suggestion included", got)
		}
	})

	t.Run("verbose mode includes the error chain", func(t *testing.T) {
		t.Parallel()

		err := issue.NewErrorContext().
			WithOperation("load configuration").
			Wrap(errors.New("parse error")).
			BuildError()

		got := formatErrorForDisplay(err, true)
		if !strings.Contains(got, "Error chain:") {
			t.Errorf("formatErrorForDisplay() = %q, want the error chain included", got)
		}
	})
}
