// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package bundle

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/pdiddy/chapterize/pkg/types"
)

const reportFilename = "extraction-report.txt"

// writeArchive builds the zip-mode bundle: the flattened PDF, the
// extraction report, and one Markdown file per chapter named
// NN-<slug>.md in ordinal order. Entry timestamps are zeroed so the
// archive bytes depend only on the content.
func writeArchive(b *types.OutputBundle) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{Stem(b.SourceName) + "_flattened.pdf", b.FlattenedPDF},
		{reportFilename, []byte(b.Report)},
	}
	for _, ch := range b.Chapters {
		entries = append(entries, struct {
			name string
			data []byte
		}{
			fmt.Sprintf("%02d-%s.md", ch.Ordinal, slugify(ch.Title)),
			[]byte(fmt.Sprintf("# %s\n\n%s\n", ch.Title, ch.Body())),
		})
	}

	for _, e := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   e.name,
			Method: zip.Deflate,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: creating entry %s: %v", ErrPackagingFailed, e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			return nil, fmt.Errorf("%w: writing entry %s: %v", ErrPackagingFailed, e.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalizing archive: %v", ErrPackagingFailed, err)
	}
	return buf.Bytes(), nil
}
