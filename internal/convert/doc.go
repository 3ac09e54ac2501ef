// SPDX-License-Identifier: MPL-2.0

// Package convert turns PDF ebooks into EPUBs. Extraction is delegated to
// the marker CLI (PDF to Markdown) and assembly to pandoc (Markdown to
// EPUB), with a LaTeX repair pass in between for the math notation marker
// tends to mangle. Worker counts and batch sizes are sized from the
// hardware the container actually has, unless the operator pins them.
package convert
