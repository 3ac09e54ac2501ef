// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *ActionableError
		expected string
	}{
		{
			name: "operation only",
			err: &ActionableError{
				Operation: "start ssh daemon",
			},
			expected: "failed to start ssh daemon",
		},
		{
			name: "operation with resource",
			err: &ActionableError{
				Operation: "create runtime directory",
				Resource:  "/var/run/sshd",
			},
			expected: "failed to create runtime directory: /var/run/sshd",
		},
		{
			name: "operation with cause",
			err: &ActionableError{
				Operation: "load config",
				Cause:     errors.New("toml syntax error at line 5"),
			},
			expected: "failed to load config: toml syntax error at line 5",
		},
		{
			name: "full context",
			err: &ActionableError{
				Operation: "convert pdf",
				Resource:  "/books/input.pdf",
				Cause:     errors.New("marker_single exited with status 2"),
			},
			expected: "failed to convert pdf: /books/input.pdf: marker_single exited with status 2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	cause := errors.New("permission denied")
	err := &ActionableError{
		Operation: "create runtime directory",
		Cause:     cause,
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is() does not find the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v, want %v", errors.Unwrap(err), cause)
	}
}

func TestActionableError_Format(t *testing.T) {
	t.Run("suggestions listed", func(t *testing.T) {
		err := &ActionableError{
			Operation:   "start ssh daemon",
			Suggestions: []string{"Install openssh-server", "Check sshd -t output"},
		}

		out := err.Format(false)
		if !strings.Contains(out, "failed to start ssh daemon") {
			t.Errorf("Format() missing main message:\n%s", out)
		}
		if !strings.Contains(out, "• Install openssh-server") {
			t.Errorf("Format() missing first suggestion:\n%s", out)
		}
		if !strings.Contains(out, "• Check sshd -t output") {
			t.Errorf("Format() missing second suggestion:\n%s", out)
		}
	})

	t.Run("verbose includes error chain", func(t *testing.T) {
		inner := errors.New("read-only file system")
		err := &ActionableError{
			Operation: "create runtime directory",
			Resource:  "/var/run/sshd",
			Cause:     WrapWithOperation(inner, "mkdir"),
		}

		out := err.Format(true)
		if !strings.Contains(out, "Error chain:") {
			t.Errorf("verbose Format() missing error chain:\n%s", out)
		}
		if !strings.Contains(out, "read-only file system") {
			t.Errorf("verbose Format() missing innermost cause:\n%s", out)
		}
	})

	t.Run("non-verbose omits chain", func(t *testing.T) {
		err := &ActionableError{
			Operation: "load config",
			Cause:     errors.New("oops"),
		}

		if strings.Contains(err.Format(false), "Error chain:") {
			t.Error("non-verbose Format() should not include the error chain")
		}
	})
}

func TestActionableError_HasSuggestions(t *testing.T) {
	withSug := &ActionableError{Operation: "x", Suggestions: []string{"do y"}}
	if !withSug.HasSuggestions() {
		t.Error("HasSuggestions() = false for error with suggestions")
	}

	withoutSug := &ActionableError{Operation: "x"}
	if withoutSug.HasSuggestions() {
		t.Error("HasSuggestions() = true for error without suggestions")
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Run("full builder chain", func(t *testing.T) {
		cause := errors.New("exit status 1")
		ae := NewErrorContext().
			WithOperation("start ssh service").
			WithResource("ssh").
			WithSuggestion("Try --ssh-service sshd").
			WithSuggestions("Install openssh-server", "Check service logs").
			Wrap(cause).
			Build()

		if ae == nil {
			t.Fatal("Build() returned nil for a context with an operation")
		}
		if ae.Operation != "start ssh service" {
			t.Errorf("Operation = %q", ae.Operation)
		}
		if ae.Resource != "ssh" {
			t.Errorf("Resource = %q", ae.Resource)
		}
		if len(ae.Suggestions) != 3 {
			t.Errorf("Suggestions count = %d, want 3", len(ae.Suggestions))
		}
		if ae.Cause != cause {
			t.Errorf("Cause = %v, want %v", ae.Cause, cause)
		}
	})

	t.Run("missing operation yields nil", func(t *testing.T) {
		if ae := NewErrorContext().WithResource("/tmp").Build(); ae != nil {
			t.Errorf("Build() = %v, want nil without an operation", ae)
		}
	})
}

func TestErrorContext_BuildError(t *testing.T) {
	// BuildError must return a genuinely nil error interface when no
	// operation is set, not a typed nil wrapped in a non-nil interface.
	err := NewErrorContext().BuildError()
	if err != nil {
		t.Errorf("BuildError() = %v, want nil", err)
	}

	err = NewErrorContext().WithOperation("probe gpu").BuildError()
	if err == nil {
		t.Fatal("BuildError() = nil for a context with an operation")
	}
	var ae *ActionableError
	if !errors.As(err, &ae) {
		t.Errorf("BuildError() returned %T, want *ActionableError", err)
	}
}

func TestWrapWithOperation(t *testing.T) {
	if got := WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", got)
	}

	cause := errors.New("boom")
	ae := WrapWithOperation(cause, "run workload")
	if ae == nil {
		t.Fatal("WrapWithOperation() returned nil for non-nil cause")
	}
	if ae.Operation != "run workload" || ae.Cause != cause {
		t.Errorf("WrapWithOperation() = %+v", ae)
	}
}

func TestWrapWithContext(t *testing.T) {
	if got := WrapWithContext(nil, "op", "res"); got != nil {
		t.Errorf("WrapWithContext(nil) = %v, want nil", got)
	}

	cause := errors.New("no such file")
	ae := WrapWithContext(cause, "convert pdf", "book.pdf")
	if ae.Operation != "convert pdf" || ae.Resource != "book.pdf" || ae.Cause != cause {
		t.Errorf("WrapWithContext() = %+v", ae)
	}
}
