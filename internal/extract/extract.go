// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract reads the embedded text layer of a PDF page by page and
// decides whether it can be trusted. The density of extracted text (average
// non-whitespace characters per page) is the proxy for "did embedded
// extraction actually work"; scanned or obfuscated documents score low and
// fall back to OCR.
package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/chapterize/pkg/types"
)

// ErrCorruptDocument marks input that cannot be opened as a PDF.
var ErrCorruptDocument = errors.New("corrupt document")

// Pages extracts the embedded text of every page in pdfBytes. A page that
// yields no text, or whose extraction errors, is recorded as empty; only a
// document-level parse failure is an error.
func Pages(pdfBytes []byte) ([]types.Page, error) {
	reader, err := pdf.NewReader(bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	numPages := reader.NumPage()
	pages := make([]types.Page, 0, numPages)
	fonts := make(map[string]*pdf.Font)

	for i := 1; i <= numPages; i++ {
		pages = append(pages, types.Page{
			Index: i,
			Text:  pageText(reader.Page(i), fonts),
		})
	}
	return pages, nil
}

// pageText extracts one page's plain text, degrading to empty on any error.
// The font cache is shared across pages; documents reuse font objects and
// re-parsing them per page is wasted work.
func pageText(p pdf.Page, fonts map[string]*pdf.Font) (text string) {
	// The pdf package panics on some malformed content streams. A broken
	// page degrades to empty text, same as a page with no text layer.
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	if p.V.IsNull() {
		return ""
	}
	for _, name := range p.Fonts() {
		if _, ok := fonts[name]; !ok {
			f := p.Font(name)
			fonts[name] = &f
		}
	}
	s, err := p.GetPlainText(fonts)
	if err != nil {
		return ""
	}
	return s
}

// Density returns the average non-whitespace character count per page,
// using integer division. An empty document has density zero.
func Density(pages []types.Page) int {
	if len(pages) == 0 {
		return 0
	}
	total := 0
	for _, p := range pages {
		total += p.CharCount()
	}
	return total / len(pages)
}
