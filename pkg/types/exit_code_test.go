// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"os/exec"
	"testing"
)

func TestExitCodeValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ExitCode
		wantValid bool
	}{
		{name: "zero is valid", value: 0, wantValid: true},
		{name: "one is valid", value: 1, wantValid: true},
		{name: "255 is valid", value: 255, wantValid: true},
		{name: "negative is invalid", value: -1, wantValid: false},
		{name: "256 is invalid", value: 256, wantValid: false},
		{name: "large positive is invalid", value: 1000, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Errorf("ExitCode(%d).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidExitCode) {
				t.Errorf("error does not wrap ErrInvalidExitCode: %v", err)
			}
		})
	}
}

func TestExitCodeIsSuccess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code ExitCode
		want bool
	}{
		{0, true},
		{1, false},
		{255, false},
	}

	for _, tt := range tests {
		if got := tt.code.IsSuccess(); got != tt.want {
			t.Errorf("ExitCode(%d).IsSuccess() = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestExitCodeFromError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that spawns child processes in short mode")
	}

	t.Run("nil error is success", func(t *testing.T) {
		if got := ExitCodeFromError(nil); got != 0 {
			t.Errorf("ExitCodeFromError(nil) = %d, want 0", got)
		}
	})

	t.Run("exec exit error carries child status", func(t *testing.T) {
		//nolint:noctx // short-lived child used only to produce a real ExitError
		err := exec.Command("false").Run()
		if err == nil {
			t.Fatal("expected 'false' to exit non-zero")
		}
		if got := ExitCodeFromError(err); got != 1 {
			t.Errorf("ExitCodeFromError(exit 1) = %d, want 1", got)
		}
	})

	t.Run("start failure maps to 1", func(t *testing.T) {
		err := errors.New("exec: \"no-such-binary\": executable file not found in $PATH")
		if got := ExitCodeFromError(err); got != 1 {
			t.Errorf("ExitCodeFromError(start failure) = %d, want 1", got)
		}
	})
}
