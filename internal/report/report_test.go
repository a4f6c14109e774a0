// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/chapterize/pkg/types"
)

func TestBuild_CleanRun(t *testing.T) {
	decision := types.ExtractionDecision{
		Method:    types.MethodEmbedded,
		Threshold: 25,
		Density:   310,
	}

	got := Build(decision, nil)

	assert.Equal(t, "method=embedded-text\navg_chars_per_page=310\nthreshold=25\nforced=false\n", got)
	assert.NotContains(t, got, "degraded")
}

func TestBuild_DegradedRun(t *testing.T) {
	decision := types.ExtractionDecision{
		Method:    types.MethodOCR,
		Threshold: 25,
		Density:   4,
		Forced:    false,
	}
	notes := []types.Note{
		{Stage: types.StageOCR, Index: 3, Message: "tesseract: exit status 1"},
		{Stage: types.StageCleanup, Index: 2, Message: "endpoint returned 500 Internal Server Error"},
	}

	got := Build(decision, notes)

	assert.Contains(t, got, "method=tesseract-ocr\n")
	assert.Contains(t, got, "degraded:\n")
	assert.Contains(t, got, "page 3: ocr failed, empty text substituted (tesseract: exit status 1)")
	assert.Contains(t, got, "chapter 2: cleanup failed, original text kept (endpoint returned 500 Internal Server Error)")

	// Decision block comes before the degradation block.
	assert.Less(t, strings.Index(got, "method="), strings.Index(got, "degraded:"))
}

func TestBuild_Forced(t *testing.T) {
	got := Build(types.ExtractionDecision{Method: types.MethodOCR, Threshold: 25, Density: 300, Forced: true}, nil)
	assert.Contains(t, got, "forced=true")
}
