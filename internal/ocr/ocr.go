// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr re-derives page text through optical character recognition.
// Each page is rasterized with MuPDF (go-fitz) and handed to an Engine.
// Rasters are scoped to a single page's OCR call and released immediately
// after encoding.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"

	"github.com/pdiddy/chapterize/pkg/types"
)

// ErrUnavailable marks an OCR engine that is unreachable or failing on
// every probed page. It is fatal for the run.
var ErrUnavailable = errors.New("ocr unavailable")

// Engine recognizes text in a rasterized page. Implementations must be
// safe for concurrent use; the page runner calls Recognize from multiple
// workers.
type Engine interface {
	// Name identifies the engine in reports and errors.
	Name() string

	// Recognize returns the text found in a PNG-encoded page image.
	// An empty string for a blank page is not an error.
	Recognize(ctx context.Context, pngImage []byte, lang string) (string, error)
}

// renderer rasterizes document pages to PNG. Implementations must be safe
// for concurrent use.
type renderer interface {
	NumPages() int
	RenderPNG(index int, dpi float64) ([]byte, error)
}

// fitzRenderer renders through MuPDF. MuPDF documents are not safe for
// concurrent access, so rendering is serialized; only the recognition
// calls overlap.
type fitzRenderer struct {
	mu  sync.Mutex
	doc *fitz.Document
}

func (r *fitzRenderer) NumPages() int {
	return r.doc.NumPage()
}

func (r *fitzRenderer) RenderPNG(index int, dpi float64) ([]byte, error) {
	r.mu.Lock()
	img, err := r.doc.ImageDPI(index, dpi)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run OCRs every page of pdfBytes and returns the pages in index order,
// plus one note per page whose recognition failed. Failed pages degrade to
// empty text. Run returns ErrUnavailable only when the first probe pages
// (cfg.FailureProbe, zero meaning all) all failed, which indicates a broken
// engine rather than a few bad pages.
func Run(ctx context.Context, engine Engine, pdfBytes []byte, cfg types.ExtractionConfig) ([]types.Page, []types.Note, error) {
	doc, err := fitz.NewFromMemory(pdfBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("opening document for rasterization: %w", err)
	}
	defer doc.Close()

	return run(ctx, engine, &fitzRenderer{doc: doc}, cfg)
}

// run drives the page worker pool over an abstract renderer. Results are
// written into index-aligned slices, so completion order never affects
// page order.
func run(ctx context.Context, engine Engine, r renderer, cfg types.ExtractionConfig) ([]types.Page, []types.Note, error) {
	numPages := r.NumPages()
	pages := make([]types.Page, numPages)
	failures := make([]string, numPages)

	workers := cfg.Concurrency
	if workers <= 0 {
		workers = 4
	}
	if workers > numPages {
		workers = numPages
	}

	dpi := cfg.RenderDPI
	if dpi <= 0 {
		dpi = 144
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				text, err := recognizePage(ctx, engine, r, i, dpi, cfg.OCRLanguage)
				if err != nil {
					failures[i] = err.Error()
					text = ""
				}
				pages[i] = types.Page{Index: i + 1, Text: strings.TrimSpace(text)}
			}
		}()
	}

	for i := 0; i < numPages; i++ {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	var notes []types.Note
	for i, msg := range failures {
		if msg != "" {
			notes = append(notes, types.Note{Stage: types.StageOCR, Index: i + 1, Message: msg})
		}
	}

	if err := probeFailed(failures, cfg.FailureProbe); err != nil {
		return nil, notes, err
	}
	return pages, notes, nil
}

// recognizePage rasterizes one page and runs recognition on the encoded
// image. The raster is released as soon as recognition returns.
func recognizePage(ctx context.Context, engine Engine, r renderer, index, dpi int, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	img, err := r.RenderPNG(index, float64(dpi))
	if err != nil {
		return "", fmt.Errorf("rendering page %d: %w", index+1, err)
	}

	text, err := engine.Recognize(ctx, img, lang)
	if err != nil {
		return "", fmt.Errorf("%s: %v", engine.Name(), err)
	}
	return text, nil
}

// probeFailed reports ErrUnavailable when the first probe pages all failed.
// probe <= 0 or beyond the page count means every page must have failed.
func probeFailed(failures []string, probe int) error {
	if len(failures) == 0 {
		return nil
	}
	if probe <= 0 || probe > len(failures) {
		probe = len(failures)
	}
	for i := 0; i < probe; i++ {
		if failures[i] == "" {
			return nil
		}
	}
	return fmt.Errorf("%w: first %d page(s) all failed recognition", ErrUnavailable, probe)
}
