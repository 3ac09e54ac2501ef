// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for bookforge.
//
// This package implements the Cobra command hierarchy for the bookforge
// CLI: the container entrypoint, the PDF-to-EPUB conversion pipeline, the
// environment check report, and configuration management.
package cmd
