// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package flatten rewrites a PDF into a fresh, page-normalized document
// before extraction. Rewriting every page through pdfcpu defeats structural
// tricks (incremental updates, dangling objects, off-page content) that can
// evade naive text extraction.
package flatten

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrCorruptDocument marks input that cannot be parsed as a PDF at all.
// It is fatal for the whole run; no partial output is written.
var ErrCorruptDocument = errors.New("corrupt document")

// Flatten parses pdfBytes, rewrites every page into a new document, and
// returns the new document's bytes. The output has exactly one page per
// input page.
func Flatten(pdfBytes []byte) ([]byte, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdfBytes), conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if ctx.PageCount == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrCorruptDocument)
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, fmt.Errorf("rewriting document: %w", err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages in pdfBytes, or ErrCorruptDocument
// if the input is not a parseable PDF.
func PageCount(pdfBytes []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	n, err := api.PageCount(bytes.NewReader(pdfBytes), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	return n, nil
}
