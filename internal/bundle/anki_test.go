// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"archive/zip"
	"bytes"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chapterize/pkg/types"
)

// extractCollection unpacks collection.anki2 from an .apkg and opens it.
func extractCollection(t *testing.T, apkg []byte) *sql.DB {
	t.Helper()

	zr, err := zip.NewReader(bytes.NewReader(apkg), int64(len(apkg)))
	require.NoError(t, err)

	var names []string
	var collection []byte
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == collectionFile {
			rc, err := f.Open()
			require.NoError(t, err)
			collection, err = io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
		}
	}
	assert.ElementsMatch(t, []string{collectionFile, mediaFile}, names)
	require.NotEmpty(t, collection)

	dbPath := filepath.Join(t.TempDir(), collectionFile)
	require.NoError(t, os.WriteFile(dbPath, collection, 0o644))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestWriteDeck_Subdecks(t *testing.T) {
	b := sampleBundle()
	cfg := types.OutputConfig{
		Format:    types.FormatAPKG,
		Deck:      types.DeckSpec{Name: "Root", Subdecks: true},
		CardSplit: types.SplitParagraph,
	}

	apkg, err := Write(b, cfg)
	require.NoError(t, err)

	db := extractCollection(t, apkg)

	var decks string
	require.NoError(t, db.QueryRow(`SELECT decks FROM col`).Scan(&decks))
	assert.Contains(t, decks, `"Root::Chapter 1: Intro"`)
	assert.Contains(t, decks, `"Root::Chapter 2: Next"`)
	assert.Contains(t, decks, `"Default"`)

	var notes int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM notes`).Scan(&notes))
	assert.Equal(t, 2, notes)

	var cards int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cards`).Scan(&cards))
	assert.Equal(t, 2, cards)
}

func TestWriteDeck_DuplicateTitlesDisambiguated(t *testing.T) {
	b := &types.OutputBundle{
		SourceName: "notes.pdf",
		Chapters: []types.Chapter{
			{Title: "Intro", Ordinal: 1, Lines: []string{"first"}},
			{Title: "Intro", Ordinal: 2, Lines: []string{"second"}},
		},
	}
	cfg := types.OutputConfig{
		Format: types.FormatAPKG,
		Deck:   types.DeckSpec{Name: "Root", Subdecks: true},
	}

	apkg, err := Write(b, cfg)
	require.NoError(t, err)

	db := extractCollection(t, apkg)

	var decks string
	require.NoError(t, db.QueryRow(`SELECT decks FROM col`).Scan(&decks))
	assert.Contains(t, decks, `"Root::Intro"`)
	assert.Contains(t, decks, `"Root::Intro (2)"`)
}

func TestWriteDeck_NoSubdecks(t *testing.T) {
	apkg, err := Write(sampleBundle(), types.OutputConfig{
		Format: types.FormatAPKG,
		Deck:   types.DeckSpec{Name: "Root", Subdecks: false},
	})
	require.NoError(t, err)

	db := extractCollection(t, apkg)

	var decks string
	require.NoError(t, db.QueryRow(`SELECT decks FROM col`).Scan(&decks))
	assert.Contains(t, decks, `"Root"`)
	assert.NotContains(t, decks, "Root::")

	// Both chapters' cards attach to the root deck.
	var distinctDecks int
	require.NoError(t, db.QueryRow(`SELECT COUNT(DISTINCT did) FROM cards`).Scan(&distinctDecks))
	assert.Equal(t, 1, distinctDecks)
}

func TestWriteDeck_MultilineBodyBecomesHTML(t *testing.T) {
	b := &types.OutputBundle{
		SourceName: "notes.pdf",
		Chapters: []types.Chapter{
			{Title: "Intro", Ordinal: 1, Lines: []string{"line one", "line two"}},
		},
	}

	apkg, err := Write(b, types.OutputConfig{
		Format: types.FormatAPKG,
		Deck:   types.DeckSpec{Name: "Root", Subdecks: true},
	})
	require.NoError(t, err)

	db := extractCollection(t, apkg)

	var flds string
	require.NoError(t, db.QueryRow(`SELECT flds FROM notes`).Scan(&flds))
	assert.Contains(t, flds, "line one<br>line two")
}

func TestStableID_Deterministic(t *testing.T) {
	assert.Equal(t, stableID("Root::Intro"), stableID("Root::Intro"))
	assert.NotEqual(t, stableID("Root::Intro"), stableID("Root::Other"))
	assert.Greater(t, stableID("anything"), int64(1))
}
