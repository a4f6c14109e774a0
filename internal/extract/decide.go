// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import "github.com/pdiddy/chapterize/pkg/types"

// Decide is the OCR fallback decision: force always selects OCR, otherwise
// OCR is selected exactly when the measured density falls below the
// threshold. The decision is document-global: when OCR wins, every page is
// re-derived through it, even pages that individually had good density, so
// no document mixes text from two extraction engines.
func Decide(density, threshold int, force bool) types.ExtractionDecision {
	d := types.ExtractionDecision{
		Method:    types.MethodEmbedded,
		Threshold: threshold,
		Density:   density,
		Forced:    force,
	}
	if force || density < threshold {
		d.Method = types.MethodOCR
	}
	return d
}
