// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/chapterize/pkg/types"
)

// fakeCleaner implements Cleaner without a network.
type fakeCleaner struct {
	enabled bool
	clean   func(chapters []types.Chapter) ([]types.Chapter, []types.Note)
	called  bool
}

func (f *fakeCleaner) Enabled() bool { return f.enabled }

func (f *fakeCleaner) CleanChapters(_ context.Context, chapters []types.Chapter) ([]types.Chapter, []types.Note) {
	f.called = true
	if f.clean == nil {
		return chapters, nil
	}
	return f.clean(chapters)
}

// densePage fabricates a page whose character density clears any threshold.
func densePage(index int, heading, body string) types.Page {
	return types.Page{Index: index, Text: heading + "\n" + body + "\n" + strings.Repeat("x ", 200)}
}

func testPipeline(pages []types.Page) *Pipeline {
	cfg := types.DefaultPipelineConfig()
	return &Pipeline{
		cfg:          cfg,
		flattenPDF:   func(pdfBytes []byte) ([]byte, error) { return pdfBytes, nil },
		extractPages: func([]byte) ([]types.Page, error) { return pages, nil },
		runOCR: func(context.Context, []byte, types.ExtractionConfig) ([]types.Page, []types.Note, error) {
			return nil, nil, errors.New("ocr should not run")
		},
		cleaner: &fakeCleaner{},
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		out[f.Name] = string(body)
	}
	return out
}

func TestRun_EmbeddedPath(t *testing.T) {
	p := testPipeline([]types.Page{
		densePage(1, "Chapter 1: Basics", "alpha beta"),
		densePage(2, "Chapter 2: More", "gamma delta"),
	})

	var progress bytes.Buffer
	b, data, err := p.Run(context.Background(), []byte("%PDF-fake"), "thesis.pdf", &progress)
	require.NoError(t, err)

	assert.Equal(t, "thesis.pdf", b.SourceName)
	require.Len(t, b.Chapters, 2)
	assert.Equal(t, "Chapter 1: Basics", b.Chapters[0].Title)
	assert.Equal(t, "Chapter 2: More", b.Chapters[1].Title)
	assert.Contains(t, b.Report, "method=embedded-text")

	entries := readZip(t, data)
	assert.Contains(t, entries, "thesis_flattened.pdf")
	assert.Contains(t, entries, "extraction-report.txt")
	assert.Contains(t, entries, "01-chapter-1-basics.md")
	assert.Contains(t, entries, "02-chapter-2-more.md")

	assert.Contains(t, progress.String(), "method=embedded-text")
	assert.Contains(t, progress.String(), "2 chapter(s)")
}

func TestRun_OCRPath(t *testing.T) {
	p := testPipeline([]types.Page{{Index: 1, Text: ""}})

	var ocrCalled bool
	p.runOCR = func(_ context.Context, _ []byte, cfg types.ExtractionConfig) ([]types.Page, []types.Note, error) {
		ocrCalled = true
		return []types.Page{
			densePage(1, "CHAPTER ONE", "recovered text"),
			{Index: 2, Text: ""},
		}, []types.Note{{Stage: types.StageOCR, Index: 2, Message: "exit status 1"}}, nil
	}

	var progress bytes.Buffer
	b, _, err := p.Run(context.Background(), []byte("%PDF-fake"), "scan.pdf", &progress)
	require.NoError(t, err)

	assert.True(t, ocrCalled)
	assert.Contains(t, b.Report, "method=tesseract-ocr")
	assert.Contains(t, b.Report, "page 2: ocr failed, empty text substituted")
	require.NotEmpty(t, b.Chapters)
	assert.Equal(t, "CHAPTER ONE", b.Chapters[0].Title)
}

func TestRun_OCRFailureIsFatal(t *testing.T) {
	p := testPipeline([]types.Page{{Index: 1, Text: "thin"}})
	p.runOCR = func(context.Context, []byte, types.ExtractionConfig) ([]types.Page, []types.Note, error) {
		return nil, nil, errors.New("tesseract not found on PATH")
	}

	_, _, err := p.Run(context.Background(), []byte("%PDF-fake"), "scan.pdf", io.Discard)
	assert.ErrorContains(t, err, "ocr on scan.pdf")
}

func TestRun_CleanupFailureDegrades(t *testing.T) {
	p := testPipeline([]types.Page{densePage(1, "Chapter 1: Basics", "alpha")})
	p.cleaner = &fakeCleaner{
		enabled: true,
		clean: func(chapters []types.Chapter) ([]types.Chapter, []types.Note) {
			return chapters, []types.Note{
				{Stage: types.StageCleanup, Index: 1, Message: "endpoint returned 500"},
			}
		},
	}

	var progress bytes.Buffer
	b, _, err := p.Run(context.Background(), []byte("%PDF-fake"), "thesis.pdf", &progress)
	require.NoError(t, err)

	assert.Contains(t, b.Report, "chapter 1: cleanup failed, original text kept")
	assert.Contains(t, progress.String(), "warning: cleanup of chapter 1 failed")
	assert.False(t, b.Chapters[0].Cleaned)
}

func TestRun_CleanupApplied(t *testing.T) {
	p := testPipeline([]types.Page{densePage(1, "Chapter 1: Basics", "alpha")})
	cleaner := &fakeCleaner{
		enabled: true,
		clean: func(chapters []types.Chapter) ([]types.Chapter, []types.Note) {
			out := make([]types.Chapter, len(chapters))
			copy(out, chapters)
			for i := range out {
				out[i].Lines = []string{"polished"}
				out[i].Cleaned = true
			}
			return out, nil
		},
	}
	p.cleaner = cleaner

	b, _, err := p.Run(context.Background(), []byte("%PDF-fake"), "thesis.pdf", io.Discard)
	require.NoError(t, err)

	assert.True(t, cleaner.called)
	assert.Equal(t, "polished", b.Chapters[0].Body())
	assert.NotContains(t, b.Report, "degraded")
}

func TestRun_DisabledCleanerIsSkipped(t *testing.T) {
	p := testPipeline([]types.Page{densePage(1, "Chapter 1: Basics", "alpha")})
	cleaner := &fakeCleaner{enabled: false}
	p.cleaner = cleaner

	_, _, err := p.Run(context.Background(), []byte("%PDF-fake"), "thesis.pdf", io.Discard)
	require.NoError(t, err)
	assert.False(t, cleaner.called)
}

func TestRun_FlattenFailureIsFatal(t *testing.T) {
	p := testPipeline(nil)
	p.flattenPDF = func([]byte) ([]byte, error) { return nil, errors.New("bad xref") }

	_, _, err := p.Run(context.Background(), []byte("junk"), "broken.pdf", io.Discard)
	assert.ErrorContains(t, err, "flattening broken.pdf")
}

func TestOutputName(t *testing.T) {
	assert.Equal(t, "thesis-chapters.zip", OutputName("thesis.pdf", types.FormatZip))
	assert.Equal(t, "thesis-chapters.apkg", OutputName("thesis.pdf", types.FormatAPKG))
	assert.Equal(t, "dir/thesis-chapters.zip", OutputName("dir/thesis.pdf", types.FormatZip))
	assert.Equal(t, "SCAN-chapters.zip", OutputName("SCAN.PDF", types.FormatZip))
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	pdfPath := filepath.Join(dir, "thesis.pdf")
	require.NoError(t, os.WriteFile(pdfPath, []byte("%PDF-fake"), 0o644))

	p := testPipeline([]types.Page{densePage(1, "Chapter 1: Basics", "alpha")})

	var progress bytes.Buffer
	require.NoError(t, p.RunFile(context.Background(), pdfPath, "", &progress))

	outPath := filepath.Join(dir, "thesis-chapters.zip")
	assert.FileExists(t, outPath)
	assert.Contains(t, progress.String(), "converted: "+pdfPath)
}

func TestRunFile_RejectsNonPDF(t *testing.T) {
	p := testPipeline(nil)
	err := p.RunFile(context.Background(), "notes.txt", "", io.Discard)
	assert.ErrorContains(t, err, "not a PDF path")
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.pdf")
	require.NoError(t, os.WriteFile(good, []byte("%PDF-fake"), 0o644))

	existing := filepath.Join(dir, "done.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("%PDF-fake"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "done-chapters.zip"), []byte("old"), 0o644))

	missing := filepath.Join(dir, "absent.pdf")

	p := testPipeline([]types.Page{densePage(1, "Chapter 1: Basics", "alpha")})

	var progress bytes.Buffer
	result := p.RunBatch(context.Background(), []string{good, existing, missing}, &progress)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasFailures())

	out := progress.String()
	assert.Contains(t, out, "skipped: "+existing)
	assert.Contains(t, out, "failed:  "+missing)
	assert.Contains(t, out, "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)")
}
