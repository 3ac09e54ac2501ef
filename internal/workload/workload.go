// SPDX-License-Identifier: MPL-2.0

// Package workload executes the container's main command. The runner never
// fails the caller: every outcome, including a missing binary or a non-zero
// exit, is folded into the returned Result so the bootstrap sequence can
// carry on regardless of what the workload did.
package workload

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"bookforge/pkg/types"
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// Defaults to exec.CommandContext; tests inject a recorder-backed fake.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Result contains the outcome of a workload run. A non-zero exit code is
	// not an error here: it lands in ExitCode while Error stays nil. Error is
	// set only when the command never ran (binary not found, permission
	// denied, canceled context).
	Result struct {
		// ExitCode is the exit code of the workload command.
		ExitCode types.ExitCode
		// Error contains the failure that prevented execution, if any.
		Error error
		// Skipped reports that no command was given and nothing ran.
		Skipped bool
	}

	// Runner executes a workload command with the process's own stdio so the
	// command's output reaches the container logs unmodified.
	Runner struct {
		execCommand ExecCommandFunc
		stdin       io.Reader
		stdout      io.Writer
		stderr      io.Writer
	}

	// RunnerOption configures a Runner.
	RunnerOption func(*Runner)
)

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) RunnerOption {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// WithStdio redirects the workload's standard streams. The zero values keep
// the process's own stdin, stdout, and stderr.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdin = stdin
		r.stdout = stdout
		r.stderr = stderr
	}
}

// NewRunner creates a workload runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		execCommand: exec.CommandContext,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes argv as a child process and reports the outcome. The argv
// slice is passed through verbatim: argv[0] is the command name and the
// remaining elements become its arguments exactly as given, with no shell
// word splitting. An empty argv is a no-op success.
//
// Run never returns an error. Callers that must not fail on workload
// problems read the Result (or discard it).
func (r *Runner) Run(ctx context.Context, argv []string) *Result {
	if len(argv) == 0 {
		return &Result{ExitCode: 0, Skipped: true}
	}

	cmd := r.execCommand(ctx, argv[0], argv[1:]...)
	cmd.Stdin = r.stdin
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	if err := cmd.Run(); err != nil {
		if exitErr, ok := errors.AsType[*exec.ExitError](err); ok {
			return &Result{ExitCode: types.ExitCode(exitErr.ExitCode())}
		}
		return &Result{ExitCode: 1, Error: err}
	}

	return &Result{ExitCode: 0}
}

// Success returns true if the workload ran and exited zero, or was skipped.
func (res *Result) Success() bool {
	return res.ExitCode.IsSuccess() && res.Error == nil
}

// String renders the result for log output.
func (res *Result) String() string {
	switch {
	case res.Skipped:
		return "skipped (no command)"
	case res.Error != nil:
		return "failed to start: " + res.Error.Error()
	default:
		return "exit code " + res.ExitCode.String()
	}
}

// Describe renders argv for log output, quoting arguments that contain
// whitespace so the logged command line is unambiguous.
func Describe(argv []string) string {
	if len(argv) == 0 {
		return "(none)"
	}
	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		if strings.ContainsAny(a, " \t") {
			quoted = append(quoted, "\""+a+"\"")
			continue
		}
		quoted = append(quoted, a)
	}
	return strings.Join(quoted, " ")
}
