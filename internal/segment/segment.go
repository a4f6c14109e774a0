// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package segment partitions extracted document text into titled chapters.
// Boundaries are detected per line by an ordered list of heading heuristics;
// everything between two boundaries is the earlier chapter's body. The
// heuristics are inherently approximate; the patterns below are the
// documented, concrete choice, not a strict contract.
package segment

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/chapterize/pkg/types"
)

const (
	// defaultTitle names the preamble chapter when text precedes the first
	// detected boundary.
	defaultTitle = "Introduction"

	// fallbackTitle names the single chapter of a document with no
	// detected boundaries and no usable document ID.
	fallbackTitle = "Document"

	// maxHeadingWords bounds how long a line may be and still count as a
	// heading for the all-caps and numbered rules.
	maxHeadingWords = 8

	// minCapsRunes is the minimum length of an all-caps heading; shorter
	// shouting ("NOTE", "TODO") is too common in running text.
	minCapsRunes = 7
)

// Boundary rules, in priority order.
var (
	// chapterMarkerRE matches an explicit chapter label: "Chapter 3",
	// "CHAPTER 12: The Sea", "chapter 4 - Results".
	chapterMarkerRE = regexp.MustCompile(`(?i)^\s*(chapter\s+\d+[:\-.]?.*)$`)

	// numberedHeadingRE matches "3. Results" or "3) Results" style
	// headings with a capitalized title.
	numberedHeadingRE = regexp.MustCompile(`^\s*(\d+[.)]\s+[A-Z].*)$`)
)

// classify applies the boundary rules to one line. It returns the raw
// matched heading and true when the line starts a new chapter.
func classify(line string) (string, bool) {
	if m := chapterMarkerRE.FindStringSubmatch(line); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	if isAllCapsHeading(line) {
		return strings.TrimSpace(line), true
	}
	if m := numberedHeadingRE.FindStringSubmatch(line); m != nil && wordCount(line) <= maxHeadingWords {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

// isAllCapsHeading reports whether the line is a short all-uppercase
// heading: it contains at least one letter, no lowercase letters, and is
// neither too short to be a heading nor too long to be one.
func isAllCapsHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len([]rune(trimmed)) < minCapsRunes || wordCount(trimmed) > maxHeadingWords {
		return false
	}
	hasLetter := false
	for _, r := range trimmed {
		if unicode.IsLetter(r) {
			if unicode.IsLower(r) {
				return false
			}
			hasLetter = true
		}
	}
	return hasLetter
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

// NormalizeTitle strips surrounding punctuation and whitespace and
// collapses internal whitespace runs to single spaces.
func NormalizeTitle(title string) string {
	trimmed := strings.TrimFunc(title, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	return strings.Join(strings.Fields(trimmed), " ")
}

// chapterDraft accumulates one chapter during the scan.
type chapterDraft struct {
	title     string
	lines     []string
	startPage int
	endPage   int
}

func (d *chapterDraft) add(line types.Line) {
	d.lines = append(d.lines, line.Text)
	if d.startPage == 0 {
		d.startPage = line.Page
	}
	d.endPage = line.Page
}

func (d *chapterDraft) empty() bool {
	return strings.TrimSpace(strings.Join(d.lines, "\n")) == ""
}

// Segment partitions page-tagged lines into chapters. docID titles the
// whole-document fallback chapter when no boundary is ever detected.
//
// Guarantees: at least one chapter is always returned; ordinals are
// contiguous from 1; every non-boundary line lands in exactly one chapter,
// in order; chapters with nothing but whitespace between their boundary
// and the next are dropped (the later boundary wins).
func Segment(lines []types.Line, docID string) []types.Chapter {
	var drafts []*chapterDraft
	current := &chapterDraft{title: defaultTitle}
	boundaryFound := false

	for _, line := range lines {
		title, ok := classify(line.Text)
		if !ok {
			current.add(line)
			continue
		}

		boundaryFound = true
		if current.title == defaultTitle && len(drafts) == 0 && current.empty() {
			// Boundary before any body text: no preamble chapter.
			current = &chapterDraft{title: title, startPage: line.Page, endPage: line.Page}
			continue
		}
		drafts = append(drafts, current)
		current = &chapterDraft{title: title, startPage: line.Page, endPage: line.Page}
	}
	drafts = append(drafts, current)

	if !boundaryFound {
		title := NormalizeTitle(docID)
		if title == "" {
			title = fallbackTitle
		}
		return []types.Chapter{finish(current, title, 1)}
	}

	// Drop empty-bodied chapters (collapsed consecutive boundaries), but
	// never drop the last remaining one: a run always yields a chapter.
	var kept []*chapterDraft
	for _, d := range drafts {
		if !d.empty() {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 {
		kept = drafts[len(drafts)-1:]
	}

	chapters := make([]types.Chapter, len(kept))
	for i, d := range kept {
		chapters[i] = finish(d, NormalizeTitle(d.title), i+1)
	}
	return chapters
}

func finish(d *chapterDraft, title string, ordinal int) types.Chapter {
	if title == "" {
		title = fallbackTitle
	}
	startPage := d.startPage
	if startPage == 0 {
		startPage = 1
	}
	endPage := d.endPage
	if endPage < startPage {
		endPage = startPage
	}
	return types.Chapter{
		Title:     title,
		Ordinal:   ordinal,
		Lines:     d.lines,
		StartPage: startPage,
		EndPage:   endPage,
	}
}
