// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline wires the conversion stages together: flatten, extract,
// decide, OCR, segment, clean, package. Each run owns its own document data;
// nothing is shared between concurrent runs.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/chapterize/internal/bundle"
	"github.com/pdiddy/chapterize/internal/cleanup"
	"github.com/pdiddy/chapterize/internal/extract"
	"github.com/pdiddy/chapterize/internal/flatten"
	"github.com/pdiddy/chapterize/internal/ocr"
	"github.com/pdiddy/chapterize/internal/report"
	"github.com/pdiddy/chapterize/internal/segment"
	"github.com/pdiddy/chapterize/pkg/types"
)

// Cleaner is the per-chapter cleanup collaborator. The production
// implementation posts to a chat completions endpoint; tests supply fakes.
type Cleaner interface {
	Enabled() bool
	CleanChapters(ctx context.Context, chapters []types.Chapter) ([]types.Chapter, []types.Note)
}

// Pipeline runs the conversion stages for one configuration. The stage
// functions are fields so tests can substitute fakes for the ones that
// need external tooling (PDF parsing, Tesseract).
type Pipeline struct {
	cfg types.PipelineConfig

	flattenPDF   func(pdfBytes []byte) ([]byte, error)
	extractPages func(pdfBytes []byte) ([]types.Page, error)
	runOCR       func(ctx context.Context, pdfBytes []byte, cfg types.ExtractionConfig) ([]types.Page, []types.Note, error)
	cleaner      Cleaner
}

// New builds a pipeline with the production stage implementations.
func New(cfg types.PipelineConfig) *Pipeline {
	return &Pipeline{
		cfg:          cfg,
		flattenPDF:   flatten.Flatten,
		extractPages: extract.Pages,
		runOCR:       runEngineOCR,
		cleaner:      cleanup.New(cfg.Cleanup),
	}
}

// runEngineOCR constructs the configured OCR engine and runs it. The engine
// is built here, not at pipeline construction, so documents with a healthy
// embedded text layer never require a Tesseract install.
func runEngineOCR(ctx context.Context, pdfBytes []byte, cfg types.ExtractionConfig) ([]types.Page, []types.Note, error) {
	engine, err := ocr.NewEngine(string(cfg.Engine))
	if err != nil {
		return nil, nil, err
	}
	return ocr.Run(ctx, engine, pdfBytes, cfg)
}

// Run converts one PDF: it returns the assembled bundle and its serialized
// bytes. Fatal errors (corrupt input, OCR engine down, packaging failure)
// abort with no partial output; per-page and per-chapter degradations are
// folded into the bundle's report instead.
func (p *Pipeline) Run(ctx context.Context, pdfBytes []byte, sourceName string, w io.Writer) (*types.OutputBundle, []byte, error) {
	flattened, err := p.flattenPDF(pdfBytes)
	if err != nil {
		return nil, nil, fmt.Errorf("flattening %s: %w", sourceName, err)
	}

	pages, err := p.extractPages(flattened)
	if err != nil {
		return nil, nil, fmt.Errorf("extracting text from %s: %w", sourceName, err)
	}

	density := extract.Density(pages)
	decision := extract.Decide(density, p.cfg.Extraction.MinCharsPerPage, p.cfg.Extraction.ForceOCR)
	fmt.Fprintf(w, "%s: method=%s density=%d threshold=%d\n",
		sourceName, decision.Method, decision.Density, decision.Threshold)

	var notes []types.Note
	if decision.Method == types.MethodOCR {
		ocrPages, ocrNotes, err := p.runOCR(ctx, flattened, p.cfg.Extraction)
		if err != nil {
			return nil, nil, fmt.Errorf("ocr on %s: %w", sourceName, err)
		}
		pages = ocrPages
		notes = append(notes, ocrNotes...)
	}

	doc := types.Document{
		ID:      bundle.Stem(sourceName),
		Pages:   pages,
		Method:  decision.Method,
		Density: decision.Density,
	}

	chapters := segment.Segment(doc.Lines(), doc.ID)
	fmt.Fprintf(w, "%s: %d chapter(s)\n", sourceName, len(chapters))

	if p.cleaner != nil && p.cleaner.Enabled() {
		cleaned, cleanNotes := p.cleaner.CleanChapters(ctx, chapters)
		chapters = cleaned
		notes = append(notes, cleanNotes...)
		for _, n := range cleanNotes {
			fmt.Fprintf(w, "warning: cleanup of chapter %d failed: %s\n", n.Index, n.Message)
		}
	}

	b := &types.OutputBundle{
		SourceName:   sourceName,
		FlattenedPDF: flattened,
		Report:       report.Build(decision, notes),
		Chapters:     chapters,
	}

	data, err := bundle.Write(b, p.cfg.Output)
	if err != nil {
		return nil, nil, fmt.Errorf("packaging %s: %w", sourceName, err)
	}
	return b, data, nil
}

// OutputName derives the default output filename for an input PDF:
// "<stem>-chapters.zip" or "<stem>-chapters.apkg" next to the input.
func OutputName(sourceName string, format types.BundleFormat) string {
	ext := "zip"
	if format == types.FormatAPKG {
		ext = "apkg"
	}
	stem := strings.TrimSuffix(sourceName, ".pdf")
	stem = strings.TrimSuffix(stem, ".PDF")
	return stem + "-chapters." + ext
}
