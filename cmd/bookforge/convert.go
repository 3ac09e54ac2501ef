// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"bookforge/internal/config"
	"bookforge/internal/convert"

	"github.com/spf13/cobra"
)

// newConvertCommand creates the `bookforge convert` command.
func newConvertCommand() *cobra.Command {
	var (
		outputDir    string
		workers      int
		batchSize    int
		skipExisting bool
		forceCPU     bool
		noOCR        bool
		smartOCR     bool
		markerArgs   string
	)

	cmd := &cobra.Command{
		Use:   "convert <pdf-or-directory>",
		Short: "Convert PDFs to EPUB books",
		Long: TitleStyle.Render("bookforge convert") + `

Converts a PDF file, or every PDF in a directory, into EPUB. Each
document goes through the marker extractor, a LaTeX repair pass, and
pandoc. Worker count and layout batch size are sized from the available
GPU memory unless pinned with flags.

A bookforge-manifest.toml with per-document outcomes and timings is
written into the output directory.

` + SubtitleStyle.Render("Examples:") + `
  bookforge convert book.pdf
  bookforge convert ./library -o ./epubs --skip-existing
  bookforge convert scan.pdf --force-cpu --marker-args "--max_pages 50"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, loadErr := config.LoadOrDefault()
			if loadErr != nil {
				fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+
					"config load failed, continuing with defaults: "+loadErr.Error())
			}

			flags := cmd.Flags()
			if flags.Changed("output") {
				cfg.Convert.OutputDir = outputDir
			}
			if flags.Changed("workers") {
				cfg.Convert.Workers = workers
			}
			if flags.Changed("batch-size") {
				cfg.Convert.LayoutBatchSize = batchSize
			}
			if flags.Changed("skip-existing") {
				cfg.Convert.SkipExisting = skipExisting
			}
			if flags.Changed("force-cpu") {
				cfg.Convert.ForceCPU = forceCPU
			}
			if flags.Changed("no-ocr") {
				cfg.Convert.DisableOCR = noOCR
			}
			if flags.Changed("smart-ocr") {
				cfg.Convert.SmartOCR = smartOCR
			}
			if flags.Changed("marker-args") {
				cfg.Convert.MarkerExtraArgs = markerArgs
			}

			opts, err := pipelineOptions(cfg.Convert)
			if err != nil {
				return err
			}

			pipeline := convert.NewPipeline(opts,
				convert.WithPipelineLogger(newCmdLogger("convert")))
			report, err := pipeline.Run(cmd.Context(), args[0])
			if report != nil {
				printBatchSummary(report)
			}
			if err != nil {
				renderIssue(os.Stderr, convertIssue(err))
				return &ExitError{Code: 1, Err: err}
			}
			if !report.Succeeded() {
				return &ExitError{Code: 1, Err: fmt.Errorf(
					"%d of %d documents failed", report.Failed, len(report.Files))}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputDir, "output", "o", "", "output directory for EPUBs (default from config)")
	flags.IntVar(&workers, "workers", 0, "extractor worker count (0 = size from hardware)")
	flags.IntVar(&batchSize, "batch-size", 0, "layout model batch size (0 = size from hardware)")
	flags.BoolVar(&skipExisting, "skip-existing", false, "skip PDFs whose EPUB already exists")
	flags.BoolVar(&forceCPU, "force-cpu", false, "convert on CPU even when a GPU is available")
	flags.BoolVar(&noOCR, "no-ocr", false, "disable OCR entirely")
	flags.BoolVar(&smartOCR, "smart-ocr", true, "retry with OCR when a no-OCR pass extracts nothing")
	flags.StringVar(&markerArgs, "marker-args", "", "extra marker_single flags, shell-quoted")

	return cmd
}

// pipelineOptions converts the effective configuration into pipeline
// options, splitting the extra marker flags with shell word rules.
func pipelineOptions(cc config.ConvertConfig) (convert.Options, error) {
	extraArgs, err := convert.SplitExtraArgs(cc.MarkerExtraArgs)
	if err != nil {
		return convert.Options{}, fmt.Errorf("invalid marker-args: %w", err)
	}
	return convert.Options{
		OutputDir:       cc.OutputDir,
		Workers:         cc.Workers,
		LayoutBatchSize: cc.LayoutBatchSize,
		SkipExisting:    cc.SkipExisting,
		ForceCPU:        cc.ForceCPU,
		DisableOCR:      cc.DisableOCR,
		SmartOCR:        cc.SmartOCR,
		MarkerExtraArgs: extraArgs,
	}, nil
}

// printBatchSummary prints the outcome counts, the failed documents, and
// where the manifest landed.
func printBatchSummary(report *convert.BatchReport) {
	elapsed := report.FinishedAt.Sub(report.StartedAt).Round(100 * time.Millisecond)

	fmt.Println()
	if report.Succeeded() {
		fmt.Printf("%s %d converted, %d skipped in %s\n",
			SuccessStyle.Render("✓"), report.Converted, report.Skipped, elapsed)
	} else {
		fmt.Printf("%s %d converted, %d skipped, %d failed in %s\n",
			ErrorStyle.Render("✗"), report.Converted, report.Skipped, report.Failed, elapsed)
		for _, fr := range report.Files {
			if fr.Status == convert.StatusFailed {
				fmt.Printf("  %s %s: %s\n",
					ErrorStyle.Render("✗"), filepath.Base(fr.Source), fr.Failure)
			}
		}
	}
	fmt.Printf("%s: %s\n", CmdStyle.Render("Manifest"), report.ManifestPath())
}
