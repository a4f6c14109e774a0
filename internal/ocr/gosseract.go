// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ocr

import (
	"context"

	"github.com/otiai10/gosseract/v2"
)

// Gosseract recognizes text through the linked Tesseract library. A fresh
// client is created per call and closed immediately; gosseract clients are
// not safe to share across goroutines.
type Gosseract struct{}

// NewGosseract returns the library-backed Tesseract engine.
func NewGosseract() *Gosseract {
	return &Gosseract{}
}

func (g *Gosseract) Name() string { return "gosseract" }

// Recognize runs Tesseract on a PNG-encoded page image.
func (g *Gosseract) Recognize(ctx context.Context, pngImage []byte, lang string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if lang != "" {
		if err := client.SetLanguage(lang); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(pngImage); err != nil {
		return "", err
	}
	return client.Text()
}
