// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"archive/zip"
	"bytes"
	"crypto/sha1"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/chapterize/pkg/types"
)

// An .apkg file is a zip archive holding an SQLite collection database and
// a media manifest. The schema below matches what Anki 2.0/2.1 imports.
const (
	collectionFile = "collection.anki2"
	mediaFile      = "media"

	// ankiTimestamp is the fixed creation/modification time stamped into
	// the collection so identical inputs produce identical decks.
	ankiTimestamp = 1388552400

	schemaVersion = 11
)

// writeDeck builds the deck-mode bundle: an Anki .apkg with one subdeck per
// chapter (or a single root deck), cards split per the configured policy.
func writeDeck(b *types.OutputBundle, cfg types.OutputConfig) ([]byte, error) {
	splitter, err := NewCardSplitter(cfg.CardSplit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackagingFailed, err)
	}

	names := make([]string, len(b.Chapters))
	for i, ch := range b.Chapters {
		names[i] = deckName(cfg.Deck, ch.Title)
	}
	// With subdecks off every chapter shares the root deck; only
	// per-chapter subdecks need unique names.
	if cfg.Deck.Subdecks {
		names = disambiguate(names)
	}

	db, err := buildCollection(b, names, splitter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPackagingFailed, err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range []struct {
		name string
		data []byte
	}{
		{collectionFile, db},
		{mediaFile, []byte("{}")},
	} {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate})
		if err != nil {
			return nil, fmt.Errorf("%w: creating %s: %v", ErrPackagingFailed, e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("%w: writing %s: %v", ErrPackagingFailed, e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalizing deck: %v", ErrPackagingFailed, err)
	}
	return buf.Bytes(), nil
}

// buildCollection writes the collection database to a scratch file and
// returns its bytes. deckNames holds the disambiguated deck name for each
// chapter, index-aligned with b.Chapters.
func buildCollection(b *types.OutputBundle, deckNames []string, splitter CardSplitter) ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "chapterize-apkg-")
	if err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbPath := filepath.Join(tmpDir, collectionFile)
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening collection db: %w", err)
	}

	if err := populateCollection(db, b, deckNames, splitter); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.Close(); err != nil {
		return nil, fmt.Errorf("closing collection db: %w", err)
	}

	return os.ReadFile(dbPath)
}

func populateCollection(db *sql.DB, b *types.OutputBundle, deckNames []string, splitter CardSplitter) error {
	for _, stmt := range collectionSchema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating collection schema: %w", err)
		}
	}

	modelID := stableID(b.SourceName + "-chapter-basic-model")

	decks := map[string]any{
		"1": deckJSON(1, "Default"),
	}
	deckIDs := make([]int64, len(deckNames))
	for i, name := range deckNames {
		id := stableID(name)
		deckIDs[i] = id
		decks[strconv.FormatInt(id, 10)] = deckJSON(id, name)
	}

	colRow := []any{
		1, ankiTimestamp, ankiTimestamp, ankiTimestamp, schemaVersion, 0, 0, 0,
		mustJSON(confJSON(modelID)),
		mustJSON(map[string]any{strconv.FormatInt(modelID, 10): modelJSON(modelID)}),
		mustJSON(decks),
		mustJSON(map[string]any{"1": deckConfJSON()}),
		"{}",
	}
	if _, err := db.Exec(
		`INSERT INTO col (id, crt, mod, scm, ver, dty, usn, ls, conf, models, decks, dconf, tags)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, colRow...); err != nil {
		return fmt.Errorf("writing col row: %w", err)
	}

	noteStmt, err := db.Prepare(
		`INSERT INTO notes (id, guid, mid, mod, usn, tags, flds, sfld, csum, flags, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing notes insert: %w", err)
	}
	defer noteStmt.Close()

	cardStmt, err := db.Prepare(
		`INSERT INTO cards (id, nid, did, ord, mod, usn, type, queue, due, ivl, factor, reps, lapses, left, odue, odid, flags, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cards insert: %w", err)
	}
	defer cardStmt.Close()

	noteID := int64(ankiTimestamp) * 1000
	for i, ch := range b.Chapters {
		for _, card := range splitter.Split(ch) {
			noteID++
			front := card.Front
			back := strings.ReplaceAll(card.Back, "\n", "<br>")
			flds := front + "\x1f" + back

			if _, err := noteStmt.Exec(
				noteID, noteGUID(flds), modelID, ankiTimestamp, -1, "",
				flds, front, fieldChecksum(front), 0, "",
			); err != nil {
				return fmt.Errorf("writing note for chapter %d: %w", ch.Ordinal, err)
			}
			if _, err := cardStmt.Exec(
				noteID, noteID, deckIDs[i], 0, ankiTimestamp, -1,
				0, 0, noteID%100000, 0, 0, 0, 0, 0, 0, 0, 0, "",
			); err != nil {
				return fmt.Errorf("writing card for chapter %d: %w", ch.Ordinal, err)
			}
		}
	}
	return nil
}

// collectionSchema is the table set Anki expects inside collection.anki2.
var collectionSchema = []string{
	`CREATE TABLE col (
		id integer primary key, crt integer not null, mod integer not null,
		scm integer not null, ver integer not null, dty integer not null,
		usn integer not null, ls integer not null, conf text not null,
		models text not null, decks text not null, dconf text not null,
		tags text not null
	)`,
	`CREATE TABLE notes (
		id integer primary key, guid text not null, mid integer not null,
		mod integer not null, usn integer not null, tags text not null,
		flds text not null, sfld text not null, csum integer not null,
		flags integer not null, data text not null
	)`,
	`CREATE TABLE cards (
		id integer primary key, nid integer not null, did integer not null,
		ord integer not null, mod integer not null, usn integer not null,
		type integer not null, queue integer not null, due integer not null,
		ivl integer not null, factor integer not null, reps integer not null,
		lapses integer not null, left integer not null, odue integer not null,
		odid integer not null, flags integer not null, data text not null
	)`,
	`CREATE TABLE revlog (
		id integer primary key, cid integer not null, usn integer not null,
		ease integer not null, ivl integer not null, lastIvl integer not null,
		factor integer not null, time integer not null, type integer not null
	)`,
	`CREATE TABLE graves (
		usn integer not null, oid integer not null, type integer not null
	)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
}

// stableID derives a deterministic ten-digit Anki object ID from a name.
func stableID(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	id := int64(h.Sum64() % 1e10)
	if id <= 1 {
		id += 2
	}
	return id
}

// noteGUID derives a deterministic note GUID from the joined fields.
func noteGUID(flds string) string {
	sum := sha1.Sum([]byte(flds))
	return base64.RawStdEncoding.EncodeToString(sum[:8])
}

// fieldChecksum is Anki's duplicate-detection checksum: the first eight hex
// digits of the SHA-1 of the sort field, as an integer.
func fieldChecksum(field string) int64 {
	sum := sha1.Sum([]byte(field))
	n, _ := strconv.ParseInt(fmt.Sprintf("%x", sum[:])[:8], 16, 64)
	return n
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

func deckJSON(id int64, name string) map[string]any {
	return map[string]any{
		"id": id, "name": name, "desc": "",
		"mod": ankiTimestamp, "usn": -1,
		"collapsed": false, "browserCollapsed": false,
		"newToday": []int{0, 0}, "revToday": []int{0, 0},
		"lrnToday": []int{0, 0}, "timeToday": []int{0, 0},
		"dyn": 0, "extendNew": 0, "extendRev": 0, "conf": 1,
	}
}

func modelJSON(id int64) map[string]any {
	return map[string]any{
		"id": id, "name": "Chapter Basic", "type": 0,
		"mod": ankiTimestamp, "usn": -1, "sortf": 0, "did": 1,
		"tmpls": []map[string]any{{
			"name": "Card 1", "ord": 0,
			"qfmt": "{{Front}}",
			"afmt": "{{FrontSide}}<hr id=answer>{{Back}}",
			"bqfmt": "", "bafmt": "", "did": nil,
		}},
		"flds": []map[string]any{
			{"name": "Front", "ord": 0, "sticky": false, "rtl": false, "font": "Arial", "size": 20, "media": []string{}},
			{"name": "Back", "ord": 1, "sticky": false, "rtl": false, "font": "Arial", "size": 20, "media": []string{}},
		},
		"css": ".card {\n font-family: arial;\n font-size: 20px;\n text-align: center;\n color: black;\n background-color: white;\n}\n",
		"latexPre": "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n" +
			"\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n" +
			"\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}\n",
		"latexPost": "\\end{document}",
		"req":       []any{[]any{0, "all", []int{0}}},
	}
}

func confJSON(modelID int64) map[string]any {
	return map[string]any{
		"activeDecks": []int{1}, "curDeck": 1,
		"newSpread": 0, "collapseTime": 1200, "timeLim": 0,
		"estTimes": true, "dueCounts": true,
		"curModel": strconv.FormatInt(modelID, 10), "nextPos": 1,
		"sortType": "noteFld", "sortBackwards": false, "addToCur": true,
	}
}

func deckConfJSON() map[string]any {
	return map[string]any{
		"id": 1, "name": "Default", "replayq": true, "timer": 0,
		"maxTaken": 60, "usn": -1, "mod": ankiTimestamp, "autoplay": true,
		"lapse": map[string]any{
			"delays": []int{10}, "mult": 0, "minInt": 1, "leechFails": 8, "leechAction": 0,
		},
		"rev": map[string]any{
			"perDay": 100, "ease4": 1.3, "fuzz": 0.05, "ivlFct": 1,
			"maxIvl": 36500, "bury": true, "minSpace": 1,
		},
		"new": map[string]any{
			"delays": []int{1, 10}, "ints": []int{1, 4, 7}, "initialFactor": 2500,
			"separate": true, "order": 1, "perDay": 20, "bury": true,
		},
	}
}
