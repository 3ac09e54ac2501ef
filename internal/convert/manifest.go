// SPDX-License-Identifier: MPL-2.0

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// manifestFilename is the batch manifest written into the output dir.
const manifestFilename = "bookforge-manifest.toml"

// FileStatus is the per-document outcome recorded in the manifest.
type FileStatus string

const (
	// StatusConverted marks a document whose EPUB was produced.
	StatusConverted FileStatus = "converted"
	// StatusSkipped marks a document whose EPUB already existed.
	StatusSkipped FileStatus = "skipped"
	// StatusFailed marks a document that did not make it to an EPUB.
	StatusFailed FileStatus = "failed"
)

// String returns the string representation of the FileStatus.
func (s FileStatus) String() string { return string(s) }

type (
	// BatchReport summarizes one conversion run. It is written as a TOML
	// manifest into the output directory so batch jobs leave an auditable
	// record behind.
	BatchReport struct {
		// Input is the file or directory the run was started with.
		Input string `toml:"input"`
		// OutputDir is where the EPUBs were written.
		OutputDir string `toml:"output_dir"`
		// StartedAt is when the batch began.
		StartedAt time.Time `toml:"started_at"`
		// FinishedAt is when the batch ended.
		FinishedAt time.Time `toml:"finished_at"`
		// Converted counts documents whose EPUB was produced.
		Converted int `toml:"converted"`
		// Skipped counts documents whose EPUB already existed.
		Skipped int `toml:"skipped"`
		// Failed counts documents that did not convert.
		Failed int `toml:"failed"`
		// Files holds the per-document outcomes in input order.
		Files []FileReport `toml:"files"`
	}

	// FileReport is the manifest entry for a single document.
	FileReport struct {
		// Source is the input PDF path.
		Source string `toml:"source"`
		// EPUB is the produced (or pre-existing) EPUB path.
		EPUB string `toml:"epub,omitempty"`
		// Status is the outcome for this document.
		Status FileStatus `toml:"status"`
		// MarkerSeconds is the time spent in extraction.
		MarkerSeconds float64 `toml:"marker_seconds,omitempty"`
		// PandocSeconds is the time spent in EPUB assembly.
		PandocSeconds float64 `toml:"pandoc_seconds,omitempty"`
		// OCRRetried reports that the no-OCR pass looked empty and the
		// document was re-extracted with OCR on.
		OCRRetried bool `toml:"ocr_retried,omitempty"`
		// Failure holds the error message for failed documents.
		Failure string `toml:"failure,omitempty"`
	}
)

// NewBatchReport creates an empty report for a run over input.
func NewBatchReport(input, outputDir string, startedAt time.Time) *BatchReport {
	return &BatchReport{
		Input:     input,
		OutputDir: outputDir,
		StartedAt: startedAt,
	}
}

// Add records one document outcome and updates the counters.
func (r *BatchReport) Add(fr FileReport) {
	r.Files = append(r.Files, fr)
	switch fr.Status {
	case StatusConverted:
		r.Converted++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}

// Finish stamps the batch end time.
func (r *BatchReport) Finish(at time.Time) {
	r.FinishedAt = at
}

// Succeeded reports whether every document either converted or was
// skipped.
func (r *BatchReport) Succeeded() bool {
	return r.Failed == 0
}

// ManifestPath returns where WriteManifest places the manifest.
func (r *BatchReport) ManifestPath() string {
	return filepath.Join(r.OutputDir, manifestFilename)
}

// WriteManifest serializes the report as TOML into the output directory.
func (r *BatchReport) WriteManifest() error {
	data, err := toml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal batch manifest: %w", err)
	}
	if err := os.WriteFile(r.ManifestPath(), data, 0o644); err != nil {
		return fmt.Errorf("write batch manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*BatchReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch manifest: %w", err)
	}

	var report BatchReport
	if err := toml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse batch manifest: %w", err)
	}
	return &report, nil
}
