// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"testing"
)

func TestServiceNameValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ServiceName
		wantValid bool
	}{
		{name: "ssh is valid", value: "ssh", wantValid: true},
		{name: "sshd is valid", value: "sshd", wantValid: true},
		{name: "dotted name is valid", value: "ssh.socket", wantValid: true},
		{name: "empty is invalid", value: "", wantValid: false},
		{name: "embedded space is invalid", value: "ssh start", wantValid: false},
		{name: "tab is invalid", value: "ssh\tstart", wantValid: false},
		{name: "newline is invalid", value: "ssh\n", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Errorf("ServiceName(%q).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidServiceName) {
				t.Errorf("error does not wrap ErrInvalidServiceName: %v", err)
			}
		})
	}
}

func TestFilesystemPathValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     FilesystemPath
		wantValid bool
	}{
		{name: "absolute path is valid", value: "/var/run/sshd", wantValid: true},
		{name: "relative path is valid", value: "out/books", wantValid: true},
		{name: "empty is invalid", value: "", wantValid: false},
		{name: "whitespace-only is invalid", value: "   ", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Errorf("FilesystemPath(%q).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidFilesystemPath) {
				t.Errorf("error does not wrap ErrInvalidFilesystemPath: %v", err)
			}
		})
	}
}

func TestListenPortValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		value     ListenPort
		wantValid bool
	}{
		{name: "zero means auto-select", value: 0, wantValid: true},
		{name: "ssh default", value: 22, wantValid: true},
		{name: "max port", value: 65535, wantValid: true},
		{name: "negative is invalid", value: -1, wantValid: false},
		{name: "above range is invalid", value: 65536, wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.value.Validate()
			if (err == nil) != tt.wantValid {
				t.Errorf("ListenPort(%d).Validate() error = %v, wantValid %v", tt.value, err, tt.wantValid)
			}
			if !tt.wantValid && !errors.Is(err, ErrInvalidListenPort) {
				t.Errorf("error does not wrap ErrInvalidListenPort: %v", err)
			}
		})
	}
}
