// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

type (
	// LookPathFunc is the function signature for binary probing.
	// Defaults to exec.LookPath; tests inject a fake.
	LookPathFunc func(file string) (string, error)

	// ExecCommandFunc is the function signature for creating exec.Cmd.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// Option configures the exec seams shared by the CLI drivers.
	Option func(*engineBase)

	// ToolNotFoundError is returned when a required external tool is not
	// on PATH.
	ToolNotFoundError struct {
		// Tool is the binary name that could not be found.
		Tool string
		// Cause is the underlying lookup error.
		Cause error
	}

	// ExtractFailedError is returned when marker ran but exited with an
	// error.
	ExtractFailedError struct {
		// PDFPath is the document that was being extracted.
		PDFPath string
		// Stderr holds the tail of marker's error output.
		Stderr string
		// Cause is the underlying execution error.
		Cause error
	}

	// CompileFailedError is returned when pandoc ran but exited with an
	// error.
	CompileFailedError struct {
		// MarkdownPath is the file that was being compiled.
		MarkdownPath string
		// Stderr holds the tail of pandoc's error output.
		Stderr string
		// Cause is the underlying execution error.
		Cause error
	}

	// MarkdownNotFoundError is returned when marker exited successfully
	// but its Markdown output could not be located.
	MarkdownNotFoundError struct {
		// Stem is the document name the output was expected under.
		Stem string
		// StagingDir is the tree that was searched.
		StagingDir string
	}

	// NoInputFilesError is returned when the input path yields no PDF
	// files to convert.
	NoInputFilesError struct {
		// Path is the input file or directory.
		Path string
	}

	// engineBase holds the exec seams shared by the CLI drivers and the
	// hardware detector.
	engineBase struct {
		binaryPath  string
		lookPath    LookPathFunc
		execCommand ExecCommandFunc
		logger      *log.Logger
	}
)

// Error implements the error interface for ToolNotFoundError.
func (e *ToolNotFoundError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s not found on PATH", e.Tool)
	}
	return fmt.Sprintf("%s not found on PATH: %v", e.Tool, e.Cause)
}

// Unwrap returns the underlying lookup error.
func (e *ToolNotFoundError) Unwrap() error {
	return e.Cause
}

// Error implements the error interface for ExtractFailedError.
func (e *ExtractFailedError) Error() string {
	msg := fmt.Sprintf("marker extraction failed for %s: %v", filepath.Base(e.PDFPath), e.Cause)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying execution error.
func (e *ExtractFailedError) Unwrap() error {
	return e.Cause
}

// Error implements the error interface for CompileFailedError.
func (e *CompileFailedError) Error() string {
	msg := fmt.Sprintf("pandoc compilation failed for %s: %v", filepath.Base(e.MarkdownPath), e.Cause)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Unwrap returns the underlying execution error.
func (e *CompileFailedError) Unwrap() error {
	return e.Cause
}

// Error implements the error interface for MarkdownNotFoundError.
func (e *MarkdownNotFoundError) Error() string {
	return fmt.Sprintf("no %s.md found under %s after extraction", e.Stem, e.StagingDir)
}

// Error implements the error interface for NoInputFilesError.
func (e *NoInputFilesError) Error() string {
	return fmt.Sprintf("no pdf files found at %s", e.Path)
}

// WithLookPath sets a custom binary prober for testing.
func WithLookPath(fn LookPathFunc) Option {
	return func(b *engineBase) {
		b.lookPath = fn
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) Option {
	return func(b *engineBase) {
		b.execCommand = fn
	}
}

// WithLogger sets the logger used for driver diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(b *engineBase) {
		b.logger = logger
	}
}

func newEngineBase(binaryPath string, opts ...Option) engineBase {
	b := engineBase{
		binaryPath:  binaryPath,
		lookPath:    exec.LookPath,
		execCommand: exec.CommandContext,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "convert",
		}),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Probe resolves the driver's binary on PATH.
func (b *engineBase) Probe() (string, error) {
	return b.lookPath(b.binaryPath)
}

// Available reports whether the driver's binary is on PATH.
func (b *engineBase) Available() bool {
	_, err := b.Probe()
	return err == nil
}

// BinaryName returns the name of the binary the driver invokes.
func (b *engineBase) BinaryName() string {
	return b.binaryPath
}

// docStem returns the file name without its extension.
func docStem(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// stderrTailLimit caps how much child stderr is carried into error values.
const stderrTailLimit = 2048

// outputTail trims captured output down to its most recent part.
func outputTail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > stderrTailLimit {
		s = "..." + s[len(s)-stderrTailLimit:]
	}
	return s
}
