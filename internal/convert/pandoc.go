// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// PandocBinary is the document converter CLI used for EPUB assembly.
const PandocBinary = "pandoc"

// PandocEngine drives the pandoc CLI, which assembles an EPUB from the
// Markdown marker produced.
type PandocEngine struct {
	engineBase
}

// NewPandocEngine creates a pandoc driver.
func NewPandocEngine(opts ...Option) *PandocEngine {
	return &PandocEngine{engineBase: newEngineBase(PandocBinary, opts...)}
}

// CompileArgs builds the argument list for one pandoc invocation. The
// Markdown is referenced by base name because the command runs from the
// Markdown's own directory, which keeps relative image links resolvable.
// TeX math is emitted as MathML so EPUB 3 readers render it natively.
func (e *PandocEngine) CompileArgs(markdownName, epubPath, title string) []string {
	return []string{
		markdownName,
		"-o", epubPath,
		"--standalone",
		"--resource-path=.",
		"--mathml",
		"--metadata", "title=" + title,
	}
}

// compileCmd prepares the pandoc command for the given files. The EPUB
// path is made absolute before the working directory moves to the
// Markdown's directory.
func (e *PandocEngine) compileCmd(ctx context.Context, markdownPath, epubPath string) (*exec.Cmd, error) {
	absEPUB, err := filepath.Abs(epubPath)
	if err != nil {
		return nil, fmt.Errorf("resolve epub path: %w", err)
	}

	args := e.CompileArgs(filepath.Base(markdownPath), absEPUB, docStem(markdownPath))
	cmd := e.execCommand(ctx, e.binaryPath, args...)
	cmd.Dir = filepath.Dir(markdownPath)
	return cmd, nil
}

// Compile turns a Markdown file into an EPUB at epubPath.
func (e *PandocEngine) Compile(ctx context.Context, markdownPath, epubPath string) error {
	cmd, err := e.compileCmd(ctx, markdownPath, epubPath)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Debug("running pandoc", "markdown", filepath.Base(markdownPath), "epub", epubPath)

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &ToolNotFoundError{Tool: e.binaryPath, Cause: err}
		}
		return &CompileFailedError{
			MarkdownPath: markdownPath,
			Stderr:       outputTail(stderr.Bytes()),
			Cause:        err,
		}
	}
	return nil
}

// Version returns the first line of pandoc --version output.
func (e *PandocEngine) Version(ctx context.Context) (string, error) {
	cmd := e.execCommand(ctx, e.binaryPath, "--version")
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", &ToolNotFoundError{Tool: e.binaryPath, Cause: err}
		}
		return "", fmt.Errorf("query pandoc version: %w", err)
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line), nil
}
