// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package bundle packages a finished pipeline run into its output artifact:
// a zip archive of chapter Markdown files, or an importable Anki deck.
// Bundles are deterministic: the same input produces byte-identical
// output, so archives can be diffed and cached.
package bundle

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdiddy/chapterize/pkg/types"
)

// ErrPackagingFailed marks a bundle that cannot be built. Fatal for the run.
var ErrPackagingFailed = errors.New("packaging failed")

// Write serializes the bundle in the configured format.
func Write(b *types.OutputBundle, cfg types.OutputConfig) ([]byte, error) {
	if len(b.Chapters) == 0 {
		return nil, fmt.Errorf("%w: no chapters produced", ErrPackagingFailed)
	}

	switch cfg.Format {
	case types.FormatAPKG:
		return writeDeck(b, cfg)
	case types.FormatZip, "":
		return writeArchive(b)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrPackagingFailed, cfg.Format)
	}
}

// Stem returns the source filename without directory or extension, used to
// name the flattened PDF and derive default output paths.
func Stem(sourceName string) string {
	base := filepath.Base(sourceName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var nonSlugRE = regexp.MustCompile(`[^a-zA-Z0-9\-_\s]`)
var spaceRE = regexp.MustCompile(`\s+`)

// slugify turns a chapter title into a filename-safe slug: punctuation
// removed, lowercased, whitespace collapsed to hyphens, capped at 80 bytes.
func slugify(title string) string {
	clean := nonSlugRE.ReplaceAllString(title, "")
	clean = strings.ToLower(strings.TrimSpace(clean))
	clean = spaceRE.ReplaceAllString(clean, "-")
	if len(clean) > 80 {
		clean = clean[:80]
	}
	if clean == "" {
		return "chapter"
	}
	return clean
}

// deckSegment sanitizes a title for use inside an Anki deck name, where
// "::" is the hierarchy separator and newlines are not allowed.
func deckSegment(name string) string {
	clean := strings.NewReplacer("\r", " ", "\n", " ").Replace(name)
	clean = strings.TrimSpace(strings.ReplaceAll(clean, "::", "-"))
	if clean == "" {
		return "Untitled"
	}
	return clean
}

// deckName builds the full deck name for a chapter: the root deck alone, or
// "Root::Chapter" when subdecks are enabled.
func deckName(spec types.DeckSpec, chapterTitle string) string {
	root := deckSegment(spec.Name)
	if !spec.Subdecks {
		return root
	}
	return root + "::" + deckSegment(chapterTitle)
}

// disambiguate makes names unique by suffixing repeats with " (2)", " (3)",
// and so on, preserving first occurrences as-is.
func disambiguate(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, len(names))
	for i, name := range names {
		seen[name]++
		if n := seen[name]; n > 1 {
			out[i] = fmt.Sprintf("%s (%d)", name, n)
		} else {
			out[i] = name
		}
	}
	return out
}
