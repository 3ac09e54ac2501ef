// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidServiceName is the sentinel error wrapped by InvalidServiceNameError.
var ErrInvalidServiceName = errors.New("invalid service name")

type (
	// ServiceName represents the name of a system service as understood by
	// the service-manager command (e.g. "ssh", "sshd"). A valid name is a
	// single non-empty token with no whitespace, so it can never be split
	// into extra arguments when handed to the service manager.
	ServiceName string

	// InvalidServiceNameError is returned when a ServiceName is empty or
	// contains whitespace.
	InvalidServiceNameError struct {
		Value ServiceName
	}
)

// String returns the string representation of the ServiceName.
func (n ServiceName) String() string { return string(n) }

// Validate returns an error if the ServiceName is empty or contains whitespace.
func (n ServiceName) Validate() error {
	s := string(n)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return &InvalidServiceNameError{Value: n}
	}
	return nil
}

// Error implements the error interface for InvalidServiceNameError.
func (e *InvalidServiceNameError) Error() string {
	return fmt.Sprintf("invalid service name %q: must be a non-empty token without whitespace", e.Value)
}

// Unwrap returns ErrInvalidServiceName for errors.Is() compatibility.
func (e *InvalidServiceNameError) Unwrap() error { return ErrInvalidServiceName }
