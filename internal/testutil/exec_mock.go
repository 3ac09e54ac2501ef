// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"testing"
)

type (
	// MockCommandRecorder captures arguments passed to exec.Command for verification.
	// It uses the helper-process pattern to simulate command execution: the
	// returned commands re-run the current test binary, which must expose a
	// TestHelperProcess function delegating to HelperProcessMain.
	MockCommandRecorder struct {
		// Invocations records each call to the mock exec.Command
		Invocations []MockInvocation
		// ExitCode is the exit code to return (0 = success)
		ExitCode int
		// Stdout is the output to write to stdout
		Stdout string
		// Stderr is the output to write to stderr
		Stderr string
		// FailOnName can be set to a command name that should fail with exit 1
		FailOnName string
	}

	// MockInvocation represents a single invocation of exec.Command.
	MockInvocation struct {
		// Name is the command name (e.g., "service", "sshd", "pandoc")
		Name string
		// Args are the arguments passed to the command
		Args []string
	}
)

// NewMockCommandRecorder creates a new recorder with default settings (success, no output).
func NewMockCommandRecorder() *MockCommandRecorder {
	return &MockCommandRecorder{
		Invocations: make([]MockInvocation, 0),
		ExitCode:    0,
	}
}

// CommandFunc returns a function that can replace execCommand for testing.
// The function records invocations and returns a command that runs the
// test binary's TestHelperProcess.
func (m *MockCommandRecorder) CommandFunc(t testing.TB) func(name string, args ...string) *exec.Cmd {
	t.Helper()
	return func(name string, args ...string) *exec.Cmd {
		m.Invocations = append(m.Invocations, MockInvocation{
			Name: name,
			Args: args,
		})

		cs := []string{"-test.run=TestHelperProcess", "--", name}
		cs = append(cs, args...)
		//nolint:gosec // helper-process pattern, test-only
		cmd := exec.Command(os.Args[0], cs...) //nolint:noctx // exec.Command used intentionally for test helper
		exitCode := m.ExitCode
		if m.FailOnName != "" && name == m.FailOnName {
			exitCode = 1
		}
		cmd.Env = []string{
			"GO_WANT_HELPER_PROCESS=1",
			fmt.Sprintf("GO_HELPER_EXIT_CODE=%d", exitCode),
			fmt.Sprintf("GO_HELPER_STDOUT=%s", m.Stdout),
			fmt.Sprintf("GO_HELPER_STDERR=%s", m.Stderr),
		}

		return cmd
	}
}

// ContextCommandFunc returns a function that can replace execCommandContext for testing.
func (m *MockCommandRecorder) ContextCommandFunc(t testing.TB) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	t.Helper()
	cmdFunc := m.CommandFunc(t)
	return func(_ context.Context, name string, args ...string) *exec.Cmd {
		return cmdFunc(name, args...)
	}
}

// LastInvocation returns the most recent invocation, or nil if none.
func (m *MockCommandRecorder) LastInvocation() *MockInvocation {
	if len(m.Invocations) == 0 {
		return nil
	}
	return &m.Invocations[len(m.Invocations)-1]
}

// Reset clears recorded invocations while keeping output settings.
func (m *MockCommandRecorder) Reset() {
	m.Invocations = m.Invocations[:0]
}

// HelperProcessMain implements the child side of the helper-process pattern.
// Each test package using MockCommandRecorder must define:
//
//	func TestHelperProcess(t *testing.T) { testutil.HelperProcessMain() }
//
// When the test binary is re-executed by a mocked command, this writes the
// configured output and exits with the configured code. In a normal test run
// it returns immediately.
func HelperProcessMain() {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	if stdout := os.Getenv("GO_HELPER_STDOUT"); stdout != "" {
		fmt.Fprint(os.Stdout, stdout)
	}

	if stderr := os.Getenv("GO_HELPER_STDERR"); stderr != "" {
		fmt.Fprint(os.Stderr, stderr)
	}

	exitCode := 0
	if code := os.Getenv("GO_HELPER_EXIT_CODE"); code != "" {
		if parsed, err := strconv.Atoi(code); err == nil {
			exitCode = parsed
		}
	}

	os.Exit(exitCode)
}
