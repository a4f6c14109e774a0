// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
}

// Total returns the total number of documents processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any documents failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// RunFile converts one PDF from disk and writes the bundle to outPath.
// When outPath is empty a default name is derived next to the input.
func (p *Pipeline) RunFile(ctx context.Context, pdfPath, outPath string, w io.Writer) error {
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return fmt.Errorf("%s is not a PDF path", pdfPath)
	}

	pdfBytes, err := os.ReadFile(pdfPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", pdfPath, err)
	}

	if outPath == "" {
		outPath = OutputName(pdfPath, p.cfg.Output.Format)
	}

	_, data, err := p.Run(ctx, pdfBytes, filepath.Base(pdfPath), w)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	fmt.Fprintf(w, "converted: %s -> %s\n", pdfPath, outPath)
	return nil
}

// RunBatch converts a list of PDFs, printing per-file status to w and
// returning a summary. Inputs whose output bundle already exists are
// skipped; one file's failure does not stop the rest.
func (p *Pipeline) RunBatch(ctx context.Context, pdfPaths []string, w io.Writer) BatchResult {
	var result BatchResult
	for _, path := range pdfPaths {
		outPath := OutputName(path, p.cfg.Output.Format)

		if _, err := os.Stat(outPath); err == nil {
			fmt.Fprintf(w, "skipped: %s (bundle already exists)\n", path)
			result.Skipped++
			continue
		}

		if err := p.RunFile(ctx, path, outPath, w); err != nil {
			fmt.Fprintf(w, "failed:  %s (%v)\n", path, err)
			result.Failed++
			continue
		}
		result.Converted++
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}
