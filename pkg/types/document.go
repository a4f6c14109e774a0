// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared domain model and configuration for the
// chapterize pipeline: documents, pages, extraction decisions, chapters,
// and the output bundle.
package types

import "strings"

// Method identifies which extraction path produced a document's text.
type Method string

const (
	// MethodEmbedded means the embedded PDF text layer was trusted.
	MethodEmbedded Method = "embedded-text"
	// MethodOCR means every page was re-derived through OCR.
	MethodOCR Method = "tesseract-ocr"
	// MethodMixed is reserved for documents assembled from both paths.
	// The pipeline's document-global decision never produces it.
	MethodMixed Method = "mixed"
)

// Page is one page of a document: its 1-based index and the text extracted
// for it. Rendering handles never appear here; they are scoped inside the
// OCR adapter and released before a Page is built.
type Page struct {
	// Index is the 1-based page number.
	Index int

	// Text is the extracted text, possibly empty.
	Text string
}

// CharCount returns the number of non-whitespace characters in the page text,
// the unit the density threshold is expressed in.
func (p Page) CharCount() int {
	n := 0
	for _, r := range p.Text {
		if !isSpace(r) {
			n++
		}
	}
	return n
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

// Document is one input PDF after extraction: its identifier (the source
// filename stem), pages in order, and how the text was obtained. Immutable
// once the pipeline completes.
type Document struct {
	ID      string
	Pages   []Page
	Method  Method
	Density int
}

// Lines flattens the document into page-tagged lines in page order, the
// input shape the segmenter consumes. Pages are separated by an empty line
// so paragraphs do not fuse across page breaks.
func (d Document) Lines() []Line {
	var lines []Line
	for _, p := range d.Pages {
		for _, text := range strings.Split(p.Text, "\n") {
			lines = append(lines, Line{Page: p.Index, Text: text})
		}
		lines = append(lines, Line{Page: p.Index, Text: ""})
	}
	return lines
}

// Line is one line of extracted text tagged with its originating page.
type Line struct {
	Page int
	Text string
}

// ExtractionDecision records which extraction path was chosen for a
// document and why. It feeds the report verbatim.
// Invariant: Method == MethodOCR iff Forced || Density < Threshold.
type ExtractionDecision struct {
	Method    Method
	Threshold int
	Density   int
	Forced    bool
}

// Chapter is one segmented chapter: a normalized title, a 1-based ordinal
// assigned sequentially by the segmenter, the body lines verbatim, and the
// source page range.
type Chapter struct {
	Title     string
	Ordinal   int
	Lines     []string
	StartPage int
	EndPage   int

	// Cleaned reports whether the body passed through AI cleanup.
	Cleaned bool
}

// Body returns the chapter lines joined, trimmed of surrounding blank space.
func (c Chapter) Body() string {
	return strings.TrimSpace(strings.Join(c.Lines, "\n"))
}

// Note records a recoverable degradation: a page whose OCR failed or a
// chapter whose cleanup call failed. Notes are accumulated into the report
// and never abort the run.
type Note struct {
	// Stage is the pipeline stage that degraded: "ocr" or "cleanup".
	Stage string

	// Index is the 1-based page or chapter ordinal the note refers to.
	Index int

	// Message describes the failure.
	Message string
}

// Stage values for Note.
const (
	StageOCR     = "ocr"
	StageCleanup = "cleanup"
)

// OutputBundle is the final artifact of a successful run: the flattened
// PDF, the extraction report, and the chapters, ready for packaging.
// Constructed once; never mutated.
type OutputBundle struct {
	// SourceName is the input filename the bundle was derived from.
	SourceName string

	// FlattenedPDF is the page-normalized PDF the text was extracted from.
	FlattenedPDF []byte

	// Report is the human-readable extraction report.
	Report string

	// Chapters are the segmented (and possibly cleaned) chapters in
	// ordinal order.
	Chapters []Chapter
}
