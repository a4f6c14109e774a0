// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chapterize/pkg/types"
)

func TestNewCardSplitter(t *testing.T) {
	s, err := NewCardSplitter(types.SplitParagraph)
	require.NoError(t, err)
	assert.IsType(t, ParagraphSplitter{}, s)

	s, err = NewCardSplitter(types.SplitQA)
	require.NoError(t, err)
	assert.IsType(t, QASplitter{}, s)

	s, err = NewCardSplitter("")
	require.NoError(t, err)
	assert.IsType(t, ParagraphSplitter{}, s)

	_, err = NewCardSplitter("sentence")
	assert.Error(t, err)
}

func TestParagraphSplitter(t *testing.T) {
	ch := types.Chapter{
		Title:   "Intro",
		Ordinal: 1,
		Lines: []string{
			"first paragraph line one",
			"first paragraph line two",
			"",
			"second paragraph",
		},
	}

	cards := ParagraphSplitter{}.Split(ch)
	require.Len(t, cards, 2)
	assert.Equal(t, "Intro (1/2)", cards[0].Front)
	assert.Equal(t, "first paragraph line one\nfirst paragraph line two", cards[0].Back)
	assert.Equal(t, "Intro (2/2)", cards[1].Front)
	assert.Equal(t, "second paragraph", cards[1].Back)
}

func TestParagraphSplitter_SingleParagraph(t *testing.T) {
	ch := types.Chapter{Title: "Intro", Lines: []string{"only paragraph"}}

	cards := ParagraphSplitter{}.Split(ch)
	require.Len(t, cards, 1)
	assert.Equal(t, "Intro", cards[0].Front)
	assert.Equal(t, "only paragraph", cards[0].Back)
}

func TestParagraphSplitter_EmptyChapter(t *testing.T) {
	cards := ParagraphSplitter{}.Split(types.Chapter{Title: "Empty"})
	require.Len(t, cards, 1)
	assert.Equal(t, "Empty", cards[0].Front)
	assert.Equal(t, "", cards[0].Back)
}

func TestQASplitter(t *testing.T) {
	ch := types.Chapter{
		Title: "Quiz",
		Lines: []string{
			"Q: What is the capital of France?",
			"A: Paris",
			"",
			"Q: Largest planet?",
			"A: Jupiter,",
			"by a wide margin.",
		},
	}

	cards := QASplitter{}.Split(ch)
	require.Len(t, cards, 2)
	assert.Equal(t, "What is the capital of France?", cards[0].Front)
	assert.Equal(t, "Paris", cards[0].Back)
	assert.Equal(t, "Largest planet?", cards[1].Front)
	assert.Equal(t, "Jupiter,\nby a wide margin.", cards[1].Back)
}

func TestQASplitter_NoMarkersFallsBack(t *testing.T) {
	ch := types.Chapter{Title: "Prose", Lines: []string{"no markers here"}}

	cards := QASplitter{}.Split(ch)
	require.Len(t, cards, 1)
	assert.Equal(t, "Prose", cards[0].Front)
	assert.Equal(t, "no markers here", cards[0].Back)
}
