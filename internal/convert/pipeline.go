// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"bookforge/internal/issue"

	"github.com/charmbracelet/log"
)

const (
	// stagingDirName is the subdirectory of the output dir where marker
	// writes its intermediate Markdown trees.
	stagingDirName = "marker_staging"

	// minExtractedChars is the smallest amount of non-whitespace text a
	// no-OCR pass must produce before its result is trusted.
	minExtractedChars = 100
)

type (
	// PDFExtractor turns a PDF into Markdown under a staging directory.
	PDFExtractor interface {
		// Probe resolves the extractor binary on PATH.
		Probe() (string, error)
		// Extract converts one PDF and returns the produced Markdown path.
		Extract(ctx context.Context, opts ExtractOptions) (string, error)
	}

	// EPUBCompiler assembles an EPUB from a Markdown file.
	EPUBCompiler interface {
		// Probe resolves the compiler binary on PATH.
		Probe() (string, error)
		// Compile turns markdownPath into an EPUB at epubPath.
		Compile(ctx context.Context, markdownPath, epubPath string) error
	}

	// Options holds the operator-facing knobs for a conversion run.
	Options struct {
		// OutputDir receives the EPUBs, the staging tree, and the batch
		// manifest.
		OutputDir string
		// Workers pins marker's extractor concurrency. Zero means size
		// from hardware.
		Workers int
		// LayoutBatchSize pins the layout model batch size. Zero means
		// size from hardware.
		LayoutBatchSize int
		// SkipExisting skips inputs whose EPUB already exists.
		SkipExisting bool
		// ForceCPU keeps the whole run off the GPU.
		ForceCPU bool
		// DisableOCR turns OCR off entirely, including the smart retry.
		DisableOCR bool
		// SmartOCR tries without OCR first and retries with OCR when the
		// extracted text looks empty.
		SmartOCR bool
		// MarkerExtraArgs holds additional marker flags, already split
		// into argv elements.
		MarkerExtraArgs []string
	}

	// Pipeline runs PDFs through extraction, math repair, and EPUB
	// assembly, one document at a time.
	Pipeline struct {
		extractor PDFExtractor
		compiler  EPUBCompiler
		detector  *HardwareDetector
		opts      Options
		logger    *log.Logger
		now       func() time.Time
	}

	// PipelineOption configures a Pipeline.
	PipelineOption func(*Pipeline)
)

// WithExtractor replaces the marker driver.
func WithExtractor(extractor PDFExtractor) PipelineOption {
	return func(p *Pipeline) {
		p.extractor = extractor
	}
}

// WithCompiler replaces the pandoc driver.
func WithCompiler(compiler EPUBCompiler) PipelineOption {
	return func(p *Pipeline) {
		p.compiler = compiler
	}
}

// WithDetector replaces the hardware detector.
func WithDetector(detector *HardwareDetector) PipelineOption {
	return func(p *Pipeline) {
		p.detector = detector
	}
}

// WithPipelineLogger sets the logger used for run progress.
func WithPipelineLogger(logger *log.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// NewPipeline creates a conversion pipeline with real marker and pandoc
// drivers. An empty output dir means the current directory.
func NewPipeline(opts Options, popts ...PipelineOption) *Pipeline {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	p := &Pipeline{
		extractor: NewMarkerEngine(),
		compiler:  NewPandocEngine(),
		detector:  NewHardwareDetector(),
		opts:      opts,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "convert",
		}),
		now: time.Now,
	}
	for _, opt := range popts {
		opt(p)
	}
	return p
}

// Run converts the input, a PDF file or a directory of PDFs, and writes
// the batch manifest next to the EPUBs. Per-file failures are recorded in
// the report while the batch carries on; Run itself only fails when the
// input is unusable, a required tool is missing, or the context ends.
func (p *Pipeline) Run(ctx context.Context, input string) (*BatchReport, error) {
	files, err := collectInputs(input)
	if err != nil {
		return nil, err
	}

	if _, err := p.extractor.Probe(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("locate the pdf extractor").
			WithResource(MarkerBinary).
			WithSuggestion("Install the marker CLI with: pip install marker-pdf").
			WithSuggestion("Run bookforge check for a full tool report").
			Wrap(&ToolNotFoundError{Tool: MarkerBinary, Cause: err}).
			BuildError()
	}
	if _, err := p.compiler.Probe(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("locate the epub compiler").
			WithResource(PandocBinary).
			WithSuggestion("Install pandoc with the system package manager").
			WithSuggestion("Run bookforge check for a full tool report").
			Wrap(&ToolNotFoundError{Tool: PandocBinary, Cause: err}).
			BuildError()
	}

	if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	prof := p.sizing(ctx)
	p.logger.Info("starting conversion", "files", len(files), "sizing", prof.String())

	report := NewBatchReport(input, p.opts.OutputDir, p.now())
	for _, pdf := range files {
		if ctx.Err() != nil {
			p.logger.Warn("conversion interrupted",
				"done", len(report.Files), "total", len(files))
			break
		}

		fr := p.convertOne(ctx, pdf, prof)
		report.Add(fr)

		switch fr.Status {
		case StatusConverted:
			p.logger.Info("converted", "pdf", filepath.Base(pdf), "epub", fr.EPUB)
		case StatusSkipped:
			p.logger.Info("skipped, epub already exists", "pdf", filepath.Base(pdf))
		case StatusFailed:
			p.logger.Error("conversion failed", "pdf", filepath.Base(pdf), "err", fr.Failure)
		}
	}
	report.Finish(p.now())

	// The manifest is reporting, not conversion: losing it does not fail
	// a batch that produced its EPUBs.
	if err := report.WriteManifest(); err != nil {
		p.logger.Warn("could not write batch manifest", "err", err)
	}

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("conversion interrupted: %w", err)
	}
	return report, nil
}

// convertOne takes a single PDF through marker, math repair, and pandoc.
// Every failure lands in the returned FileReport.
func (p *Pipeline) convertOne(ctx context.Context, pdfPath string, prof Profile) FileReport {
	fr := FileReport{Source: pdfPath, Status: StatusFailed}
	stem := docStem(pdfPath)
	epubPath := filepath.Join(p.opts.OutputDir, stem+".epub")

	if p.opts.SkipExisting && fileExists(epubPath) {
		fr.Status = StatusSkipped
		fr.EPUB = epubPath
		return fr
	}

	stagingDir := filepath.Join(p.opts.OutputDir, stagingDirName)
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		fr.Failure = fmt.Sprintf("create staging dir: %v", err)
		return fr
	}

	markerStart := p.now()
	markdownPath, retried, err := p.extract(ctx, pdfPath, stagingDir, prof)
	fr.MarkerSeconds = p.now().Sub(markerStart).Seconds()
	fr.OCRRetried = retried
	if err != nil {
		fr.Failure = err.Error()
		return fr
	}

	if err := repairMathFile(markdownPath); err != nil {
		fr.Failure = err.Error()
		return fr
	}

	pandocStart := p.now()
	err = p.compiler.Compile(ctx, markdownPath, epubPath)
	fr.PandocSeconds = p.now().Sub(pandocStart).Seconds()
	if err != nil {
		fr.Failure = err.Error()
		return fr
	}

	fr.Status = StatusConverted
	fr.EPUB = epubPath
	return fr
}

// extract runs marker, applying the no-OCR first pass and the OCR retry
// when the smart heuristic is active. The returned bool reports whether
// the retry ran.
func (p *Pipeline) extract(ctx context.Context, pdfPath, stagingDir string, prof Profile) (string, bool, error) {
	xopts := ExtractOptions{
		PDFPath:         pdfPath,
		StagingDir:      stagingDir,
		Workers:         prof.Workers,
		LayoutBatchSize: prof.LayoutBatchSize,
		ForceCPU:        p.opts.ForceCPU,
		ExtraArgs:       p.opts.MarkerExtraArgs,
	}

	// An explicit DisableOCR wins over the heuristic: it means no OCR at
	// all, retry included.
	smart := p.opts.SmartOCR && !p.opts.DisableOCR
	xopts.DisableOCR = p.opts.DisableOCR || smart

	markdownPath, err := p.extractor.Extract(ctx, xopts)
	if err != nil {
		return "", false, err
	}
	if !smart || !looksEmpty(markdownPath) {
		return markdownPath, false, nil
	}

	p.logger.Info("extracted text looks empty, retrying with ocr", "pdf", filepath.Base(pdfPath))
	xopts.DisableOCR = false
	markdownPath, err = p.extractor.Extract(ctx, xopts)
	if err != nil {
		return "", true, err
	}
	return markdownPath, true, nil
}

// sizing resolves the worker profile for this run. Explicit worker or
// batch settings win over detection.
func (p *Pipeline) sizing(ctx context.Context) Profile {
	var prof Profile
	if p.opts.ForceCPU {
		prof = p.detector.CPUProfile()
	} else {
		prof = p.detector.Detect(ctx)
	}
	if p.opts.Workers > 0 {
		prof.Workers = p.opts.Workers
	}
	if p.opts.LayoutBatchSize > 0 {
		prof.LayoutBatchSize = p.opts.LayoutBatchSize
	}
	return prof
}

// collectInputs resolves the input argument into the list of PDFs to
// convert. Extension matching is case-insensitive; directory entries come
// back in name order.
func collectInputs(input string) ([]string, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if !info.IsDir() {
		if !isPDF(input) {
			return nil, fmt.Errorf("input %s is not a pdf file", input)
		}
		return []string{input}, nil
	}

	entries, err := os.ReadDir(input)
	if err != nil {
		return nil, fmt.Errorf("read input dir: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && isPDF(entry.Name()) {
			files = append(files, filepath.Join(input, entry.Name()))
		}
	}
	if len(files) == 0 {
		return nil, &NoInputFilesError{Path: input}
	}
	return files, nil
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// looksEmpty reports whether the extracted Markdown has too little
// non-whitespace text to be a plausible book.
func looksEmpty(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return true
	}

	nonSpace := 0
	for _, r := range string(data) {
		if unicode.IsSpace(r) {
			continue
		}
		nonSpace++
		if nonSpace >= minExtractedChars {
			return false
		}
	}
	return true
}

// repairMathFile applies the LaTeX repairs to the Markdown in place.
func repairMathFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read markdown: %w", err)
	}

	repaired := RepairMath(string(data))
	if repaired == string(data) {
		return nil
	}

	if err := os.WriteFile(path, []byte(repaired), 0o644); err != nil {
		return fmt.Errorf("write repaired markdown: %w", err)
	}
	return nil
}
