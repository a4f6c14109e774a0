// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"fmt"
	"strings"

	"github.com/pdiddy/chapterize/pkg/types"
)

// Card is one flashcard: a front (question) and a back (answer).
type Card struct {
	Front string
	Back  string
}

// CardSplitter turns one chapter into flashcards. Splitting policy is a
// presentation concern, kept out of the segmenter; pick a splitter per run.
type CardSplitter interface {
	Split(ch types.Chapter) []Card
}

// NewCardSplitter returns the splitter for the configured policy.
func NewCardSplitter(kind types.CardSplitKind) (CardSplitter, error) {
	switch kind {
	case types.SplitParagraph, "":
		return ParagraphSplitter{}, nil
	case types.SplitQA:
		return QASplitter{}, nil
	default:
		return nil, fmt.Errorf("unknown card split policy %q (want paragraph or qa)", kind)
	}
}

// ParagraphSplitter makes one card per blank-line-separated paragraph.
// The front carries the chapter title, numbered when the chapter yields
// more than one card.
type ParagraphSplitter struct{}

func (ParagraphSplitter) Split(ch types.Chapter) []Card {
	paragraphs := splitParagraphs(ch.Body())
	if len(paragraphs) == 0 {
		return []Card{{Front: ch.Title, Back: ""}}
	}
	if len(paragraphs) == 1 {
		return []Card{{Front: ch.Title, Back: paragraphs[0]}}
	}

	cards := make([]Card, len(paragraphs))
	for i, p := range paragraphs {
		cards[i] = Card{
			Front: fmt.Sprintf("%s (%d/%d)", ch.Title, i+1, len(paragraphs)),
			Back:  p,
		}
	}
	return cards
}

// QASplitter pairs "Q:" lines with the "A:" block that follows them. Text
// outside Q/A pairs is ignored. A chapter without any markers degrades to
// a single whole-body card so no chapter silently produces zero cards.
type QASplitter struct{}

func (QASplitter) Split(ch types.Chapter) []Card {
	var cards []Card
	var question, answer []string
	inAnswer := false

	flush := func() {
		if len(question) == 0 {
			return
		}
		cards = append(cards, Card{
			Front: strings.TrimSpace(strings.Join(question, "\n")),
			Back:  strings.TrimSpace(strings.Join(answer, "\n")),
		})
		question, answer = nil, nil
		inAnswer = false
	}

	for _, line := range strings.Split(ch.Body(), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "Q:"):
			flush()
			question = append(question, strings.TrimSpace(trimmed[2:]))
		case strings.HasPrefix(trimmed, "A:"):
			inAnswer = true
			answer = append(answer, strings.TrimSpace(trimmed[2:]))
		case inAnswer:
			answer = append(answer, line)
		case len(question) > 0:
			question = append(question, line)
		}
	}
	flush()

	if len(cards) == 0 {
		return []Card{{Front: ch.Title, Back: ch.Body()}}
	}
	return cards
}

// splitParagraphs breaks text into blank-line-separated paragraphs.
func splitParagraphs(text string) []string {
	var paragraphs []string
	var current []string

	flush := func() {
		p := strings.TrimSpace(strings.Join(current, "\n"))
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
		current = nil
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return paragraphs
}
