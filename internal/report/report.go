// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders the extraction decision and any degraded-path
// notes into the human-readable extraction report shipped inside every
// bundle. It holds no decision logic; it formats what the pipeline records.
package report

import (
	"fmt"
	"strings"

	"github.com/pdiddy/chapterize/pkg/types"
)

// Build renders the report text: the extraction decision first, then one
// line per page or chapter that took a degraded path. An empty notes slice
// produces a report with no degradation section.
func Build(decision types.ExtractionDecision, notes []types.Note) string {
	var b strings.Builder

	fmt.Fprintf(&b, "method=%s\n", decision.Method)
	fmt.Fprintf(&b, "avg_chars_per_page=%d\n", decision.Density)
	fmt.Fprintf(&b, "threshold=%d\n", decision.Threshold)
	fmt.Fprintf(&b, "forced=%t\n", decision.Forced)

	if len(notes) == 0 {
		return b.String()
	}

	b.WriteString("\ndegraded:\n")
	for _, n := range notes {
		switch n.Stage {
		case types.StageOCR:
			fmt.Fprintf(&b, "  page %d: ocr failed, empty text substituted (%s)\n", n.Index, n.Message)
		case types.StageCleanup:
			fmt.Fprintf(&b, "  chapter %d: cleanup failed, original text kept (%s)\n", n.Index, n.Message)
		default:
			fmt.Fprintf(&b, "  %s %d: %s\n", n.Stage, n.Index, n.Message)
		}
	}
	return b.String()
}
