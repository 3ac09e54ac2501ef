// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// MarkerBinary is the CLI entry point of the marker-pdf package.
const MarkerBinary = "marker_single"

type (
	// ExtractOptions carries the knobs for one marker invocation.
	ExtractOptions struct {
		// PDFPath is the source document.
		PDFPath string
		// StagingDir is where marker writes its per-document output tree.
		StagingDir string
		// Workers caps the document and page extractor concurrency.
		Workers int
		// LayoutBatchSize is the layout model batch size.
		LayoutBatchSize int
		// DisableOCR turns OCR off for this run.
		DisableOCR bool
		// ForceCPU keeps the run off the GPU.
		ForceCPU bool
		// ExtraArgs holds operator-supplied flags appended verbatim.
		ExtraArgs []string
	}

	// MarkerEngine drives the marker_single CLI, which converts a PDF
	// into a Markdown tree under a staging directory.
	MarkerEngine struct {
		engineBase
	}
)

// NewMarkerEngine creates a marker driver.
func NewMarkerEngine(opts ...Option) *MarkerEngine {
	return &MarkerEngine{engineBase: newEngineBase(MarkerBinary, opts...)}
}

// ExtractArgs builds the argument list for one marker invocation.
func (e *MarkerEngine) ExtractArgs(opts ExtractOptions) []string {
	args := []string{
		opts.PDFPath,
		"--output_dir", opts.StagingDir,
		"--DocumentExtractor_max_concurrency", strconv.Itoa(opts.Workers),
		"--PageExtractor_max_concurrency", strconv.Itoa(opts.Workers),
		"--layout_batch_size", strconv.Itoa(opts.LayoutBatchSize),
	}
	args = append(args, opts.ExtraArgs...)
	if opts.DisableOCR {
		args = append(args, "--disable_ocr")
	}
	return args
}

// Extract runs marker on one PDF and returns the path of the Markdown it
// produced. Marker writes <staging>/<stem>/<stem>.md; when the expected
// path is missing the staging tree is searched for <stem>.md before
// giving up.
func (e *MarkerEngine) Extract(ctx context.Context, opts ExtractOptions) (string, error) {
	cmd := e.execCommand(ctx, e.binaryPath, e.ExtractArgs(opts)...)
	cmd.Env = markerEnv(cmd.Env, opts.ForceCPU)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	e.logger.Debug("running marker",
		"pdf", filepath.Base(opts.PDFPath),
		"ocr", !opts.DisableOCR,
		"workers", opts.Workers,
		"layout_batch", opts.LayoutBatchSize)

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", &ToolNotFoundError{Tool: e.binaryPath, Cause: err}
		}
		return "", &ExtractFailedError{
			PDFPath: opts.PDFPath,
			Stderr:  outputTail(stderr.Bytes()),
			Cause:   err,
		}
	}

	return locateMarkdown(opts.StagingDir, docStem(opts.PDFPath))
}

// markerEnv returns the child environment for a marker run. A nil base
// means the parent environment.
func markerEnv(base []string, forceCPU bool) []string {
	if base == nil {
		base = os.Environ()
	}
	if forceCPU {
		base = appendForceCPUEnv(base)
	}
	return base
}

// locateMarkdown returns the Markdown file marker produced for the given
// document stem. Marker versions differ in how they nest their output, so
// a miss on the expected path falls back to searching the staging tree.
func locateMarkdown(stagingDir, stem string) (string, error) {
	want := filepath.Join(stagingDir, stem, stem+".md")
	if _, err := os.Stat(want); err == nil {
		return want, nil
	}

	target := stem + ".md"
	var found string
	err := filepath.WalkDir(stagingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == target {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("search staging dir for %s: %w", target, err)
	}
	if found == "" {
		return "", &MarkdownNotFoundError{Stem: stem, StagingDir: stagingDir}
	}
	return found, nil
}

// SplitExtraArgs splits a flat flag string into argv elements using shell
// word rules, so quoted values like --langs "en, de" survive as a single
// argument.
func SplitExtraArgs(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	fields, err := shell.Fields(trimmed, nil)
	if err != nil {
		return nil, fmt.Errorf("split marker extra args: %w", err)
	}
	return fields, nil
}
