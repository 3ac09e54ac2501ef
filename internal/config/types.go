// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"

	"bookforge/pkg/types"
)

const (
	// SSHModeAuto probes for a service manager and falls back to the sshd
	// binary, matching the default container bootstrap behavior.
	SSHModeAuto SSHMode = "auto"
	// SSHModeManaged always starts the SSH service through the service manager.
	SSHModeManaged SSHMode = "managed"
	// SSHModeDirect always invokes the sshd binary directly.
	SSHModeDirect SSHMode = "direct"
	// SSHModeEmbedded serves SSH in-process instead of spawning OpenSSH.
	SSHModeEmbedded SSHMode = "embedded"

	// DefaultRuntimeDir is where sshd expects its privilege-separation directory.
	DefaultRuntimeDir = "/var/run/sshd"
	// DefaultSSHServiceName is the SSH service name on Debian-family images.
	DefaultSSHServiceName = "ssh"
	// DefaultSshdBinaryPath is the conventional sshd location.
	DefaultSshdBinaryPath = "/usr/sbin/sshd"
	// DefaultEmbeddedListenAddr is the bind address for the embedded SSH server.
	DefaultEmbeddedListenAddr = "0.0.0.0"
	// DefaultEmbeddedPort is the listen port for the embedded SSH server.
	DefaultEmbeddedPort = 2222
)

var (
	// ErrInvalidSSHMode is returned when an SSHMode value is not recognized.
	ErrInvalidSSHMode = errors.New("invalid ssh mode")
	// ErrInvalidEntrypointConfig is the sentinel error wrapped by InvalidEntrypointConfigError.
	ErrInvalidEntrypointConfig = errors.New("invalid entrypoint config")
	// ErrInvalidSSHConfig is the sentinel error wrapped by InvalidSSHConfigError.
	ErrInvalidSSHConfig = errors.New("invalid ssh config")
	// ErrInvalidConvertConfig is the sentinel error wrapped by InvalidConvertConfigError.
	ErrInvalidConvertConfig = errors.New("invalid convert config")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// SSHMode selects how the entrypoint brings up SSH access.
	SSHMode string

	// InvalidSSHModeError is returned when an SSHMode value is not recognized.
	// It wraps ErrInvalidSSHMode for errors.Is() compatibility.
	InvalidSSHModeError struct {
		Value SSHMode
	}

	// InvalidEntrypointConfigError is returned when an EntrypointConfig has
	// invalid fields. It wraps ErrInvalidEntrypointConfig for errors.Is()
	// compatibility and collects field-level validation errors.
	InvalidEntrypointConfigError struct {
		FieldErrors []error
	}

	// InvalidSSHConfigError is returned when an SSHConfig has invalid fields.
	// It wraps ErrInvalidSSHConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidSSHConfigError struct {
		FieldErrors []error
	}

	// InvalidConvertConfigError is returned when a ConvertConfig has invalid
	// fields. It wraps ErrInvalidConvertConfig for errors.Is() compatibility
	// and collects field-level validation errors.
	InvalidConvertConfigError struct {
		FieldErrors []error
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Entrypoint configures the container bootstrap sequence.
		Entrypoint EntrypointConfig `json:"entrypoint" mapstructure:"entrypoint"`
		// SSH configures how SSH access is brought up.
		SSH SSHConfig `json:"ssh" mapstructure:"ssh"`
		// Convert configures the PDF conversion pipeline.
		Convert ConvertConfig `json:"convert" mapstructure:"convert"`
		// UI configures output behavior.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// EntrypointConfig configures the container bootstrap sequence.
	EntrypointConfig struct {
		// KeepAlive keeps the process alive after the workload finishes so the
		// container stays reachable over SSH. Populated from the KEEP_ALIVE
		// environment variable when its value is exactly "1"; any other value
		// leaves the config file setting untouched.
		KeepAlive bool `json:"keep_alive" mapstructure:"keep_alive"`
		// RuntimeDir is sshd's privilege-separation directory, created before
		// the daemon starts.
		RuntimeDir string `json:"runtime_dir" mapstructure:"runtime_dir"`
	}

	// SSHConfig configures how SSH access is brought up.
	SSHConfig struct {
		// Mode selects the startup method: "auto" (probe), "managed",
		// "direct", or "embedded".
		Mode SSHMode `json:"mode" mapstructure:"mode"`
		// ServiceName is the service-manager name of the SSH service.
		ServiceName string `json:"service_name" mapstructure:"service_name"`
		// BinaryPath is the sshd binary used by the direct startup method.
		BinaryPath string `json:"binary_path" mapstructure:"binary_path"`
		// Embedded configures the in-process SSH server.
		Embedded EmbeddedSSHConfig `json:"embedded" mapstructure:"embedded"`
	}

	// EmbeddedSSHConfig configures the in-process SSH server.
	EmbeddedSSHConfig struct {
		// ListenAddr is the bind address.
		ListenAddr string `json:"listen_addr" mapstructure:"listen_addr"`
		// Port is the listen port.
		Port int `json:"port" mapstructure:"port"`
		// Password enables password auth when non-empty.
		Password string `json:"password" mapstructure:"password"`
		// AuthorizedKeysPath enables public-key auth against the given file.
		AuthorizedKeysPath string `json:"authorized_keys_path" mapstructure:"authorized_keys_path"`
	}

	// ConvertConfig configures the PDF conversion pipeline.
	ConvertConfig struct {
		// OutputDir is where EPUB files and the staging directory are written.
		OutputDir string `json:"output_dir" mapstructure:"output_dir"`
		// Workers caps marker's extractor concurrency. 0 means size from hardware.
		Workers int `json:"workers" mapstructure:"workers"`
		// LayoutBatchSize is marker's layout batch size. 0 means size from hardware.
		LayoutBatchSize int `json:"layout_batch_size" mapstructure:"layout_batch_size"`
		// SkipExisting skips inputs whose EPUB already exists.
		SkipExisting bool `json:"skip_existing" mapstructure:"skip_existing"`
		// ForceCPU disables GPU use even when one is available.
		ForceCPU bool `json:"force_cpu" mapstructure:"force_cpu"`
		// SmartOCR tries without OCR first and retries with OCR when the
		// extracted text looks empty.
		SmartOCR bool `json:"smart_ocr" mapstructure:"smart_ocr"`
		// DisableOCR turns OCR off entirely, including the smart retry.
		DisableOCR bool `json:"disable_ocr" mapstructure:"disable_ocr"`
		// MarkerExtraArgs holds additional marker_single flags as a single
		// string, split with shell word rules before use.
		MarkerExtraArgs string `json:"marker_extra_args" mapstructure:"marker_extra_args"`
	}

	// UIConfig configures output behavior.
	UIConfig struct {
		// Verbose enables debug-level diagnostics.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// String returns the string representation of the SSHMode.
func (m SSHMode) String() string { return string(m) }

// IsValid returns whether the SSHMode is one of the defined modes,
// and a list of validation errors if it is not.
func (m SSHMode) IsValid() (bool, []error) {
	switch m {
	case SSHModeAuto, SSHModeManaged, SSHModeDirect, SSHModeEmbedded:
		return true, nil
	default:
		return false, []error{&InvalidSSHModeError{Value: m}}
	}
}

// Error implements the error interface for InvalidSSHModeError.
func (e *InvalidSSHModeError) Error() string {
	return fmt.Sprintf("invalid ssh mode %q (valid: auto, managed, direct, embedded)", e.Value)
}

// Unwrap returns the sentinel error for errors.Is() compatibility.
func (e *InvalidSSHModeError) Unwrap() error {
	return ErrInvalidSSHMode
}

// IsValid returns whether the EntrypointConfig has valid fields.
// RuntimeDir must be a usable path; KeepAlive needs no validation.
func (c EntrypointConfig) IsValid() (bool, []error) {
	var errs []error
	if err := types.FilesystemPath(c.RuntimeDir).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("runtime_dir: %w", err))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidEntrypointConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidEntrypointConfigError.
func (e *InvalidEntrypointConfigError) Error() string {
	return fmt.Sprintf("invalid entrypoint config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidEntrypointConfig for errors.Is() compatibility.
func (e *InvalidEntrypointConfigError) Unwrap() error { return ErrInvalidEntrypointConfig }

// IsValid returns whether the SSHConfig has valid fields.
// It delegates to Mode.IsValid() and the pkg/types validators for the
// managed and direct startup inputs and the embedded listen port.
func (c SSHConfig) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Mode.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if err := types.ServiceName(c.ServiceName).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("service_name: %w", err))
	}
	if err := types.FilesystemPath(c.BinaryPath).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("binary_path: %w", err))
	}
	if err := types.ListenPort(c.Embedded.Port).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("embedded.port: %w", err))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidSSHConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidSSHConfigError.
func (e *InvalidSSHConfigError) Error() string {
	return fmt.Sprintf("invalid ssh config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidSSHConfig for errors.Is() compatibility.
func (e *InvalidSSHConfigError) Unwrap() error { return ErrInvalidSSHConfig }

// IsValid returns whether the ConvertConfig has valid fields.
// Workers and LayoutBatchSize must not be negative (0 means auto-size).
func (c ConvertConfig) IsValid() (bool, []error) {
	var errs []error
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.LayoutBatchSize < 0 {
		errs = append(errs, fmt.Errorf("layout_batch_size must not be negative, got %d", c.LayoutBatchSize))
	}
	if err := types.FilesystemPath(c.OutputDir).Validate(); err != nil {
		errs = append(errs, fmt.Errorf("output_dir: %w", err))
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConvertConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConvertConfigError.
func (e *InvalidConvertConfigError) Error() string {
	return fmt.Sprintf("invalid convert config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConvertConfig for errors.Is() compatibility.
func (e *InvalidConvertConfigError) Unwrap() error { return ErrInvalidConvertConfig }

// IsValid returns whether the Config has valid fields.
// It delegates to Entrypoint.IsValid(), SSH.IsValid(), and Convert.IsValid().
// UI has only bool fields and needs no validation.
func (c Config) IsValid() (bool, []error) {
	var errs []error
	if valid, fieldErrs := c.Entrypoint.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.SSH.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if valid, fieldErrs := c.Convert.IsValid(); !valid {
		errs = append(errs, fieldErrs...)
	}
	if len(errs) > 0 {
		return false, []error{&InvalidConfigError{FieldErrors: errs}}
	}
	return true, nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %d field error(s)", len(e.FieldErrors))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Entrypoint: EntrypointConfig{
			KeepAlive:  false,
			RuntimeDir: DefaultRuntimeDir,
		},
		SSH: SSHConfig{
			Mode:        SSHModeAuto,
			ServiceName: DefaultSSHServiceName,
			BinaryPath:  DefaultSshdBinaryPath,
			Embedded: EmbeddedSSHConfig{
				ListenAddr:         DefaultEmbeddedListenAddr,
				Port:               DefaultEmbeddedPort,
				Password:           "",
				AuthorizedKeysPath: "",
			},
		},
		Convert: ConvertConfig{
			OutputDir:       ".",
			Workers:         0, // sized from hardware when 0
			LayoutBatchSize: 0, // sized from hardware when 0
			SkipExisting:    false,
			ForceCPU:        false,
			SmartOCR:        true,
			DisableOCR:      false,
			MarkerExtraArgs: "",
		},
		UI: UIConfig{
			Verbose: false,
		},
	}
}
