// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/chapterize/internal/pipeline"
	"github.com/pdiddy/chapterize/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdf...]",
	Short: "Convert PDFs into chapter bundles",
	Long: `Convert flattens each input PDF, extracts its text (embedded text layer
or OCR fallback), segments it into chapters, and writes a bundle per input:
a zip of Markdown chapter files plus the flattened PDF and an extraction
report, or an Anki .apkg deck.

Multiple inputs run as a batch; inputs whose bundle already exists are
skipped. --output applies only to a single input.`,
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().Bool("force-ocr", false, "force OCR for all pages")
	convertCmd.Flags().String("ocr-lang", "", "Tesseract language code (default eng)")
	convertCmd.Flags().Int("min-chars-per-page", 0, "fall back to OCR when embedded extraction avg chars/page is below this (default 25)")
	convertCmd.Flags().Int("ocr-dpi", 0, "rasterization DPI for OCR (default 144)")
	convertCmd.Flags().String("ocr-engine", "", "OCR backend: gosseract or tesseract (default gosseract)")
	convertCmd.Flags().Int("concurrency", 0, "max pages OCRed in parallel (default 4)")
	convertCmd.Flags().Bool("ai-cleanup", false, "enable AI cleanup of chapter text")
	convertCmd.Flags().String("api-key", "", "API key for AI cleanup (default: .secrets/openai-api-key)")
	convertCmd.Flags().String("model", "", "model for AI cleanup")
	convertCmd.Flags().String("endpoint", "", "OpenAI-compatible chat completions endpoint")
	convertCmd.Flags().String("output", "", "output file path (single input only)")
	convertCmd.Flags().String("format", "", "bundle format: zip or apkg (default zip)")
	convertCmd.Flags().String("deck-name", "", `root deck name for apkg output (default "PDF Imports")`)
	convertCmd.Flags().Bool("no-subdecks", false, "keep all cards in the root deck instead of chapter subdecks")
	convertCmd.Flags().String("card-split", "", "flashcard split policy: paragraph or qa (default paragraph)")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more PDF paths")
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	outPath, _ := cmd.Flags().GetString("output")
	if outPath == "" {
		outPath = cfg.Output.Path
	}
	if outPath != "" && len(args) > 1 {
		return fmt.Errorf("--output cannot be combined with multiple inputs")
	}

	p := pipeline.New(cfg)
	ctx := cmd.Context()

	if len(args) == 1 {
		return p.RunFile(ctx, args[0], outPath, os.Stdout)
	}

	result := p.RunBatch(ctx, args, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d document(s) failed conversion", result.Failed)
	}
	return nil
}

// buildConfig assembles the run configuration: built-in defaults, then the
// viper config file, then explicitly set flags.
func buildConfig(cmd *cobra.Command) (types.PipelineConfig, error) {
	cfg := types.DefaultPipelineConfig()

	// Config-file values override defaults.
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	// Explicit flags override everything.
	flags := cmd.Flags()
	if flags.Changed("force-ocr") {
		cfg.Extraction.ForceOCR, _ = flags.GetBool("force-ocr")
	}
	if v, _ := flags.GetString("ocr-lang"); v != "" {
		cfg.Extraction.OCRLanguage = v
	}
	if v, _ := flags.GetInt("min-chars-per-page"); v > 0 {
		cfg.Extraction.MinCharsPerPage = v
	}
	if v, _ := flags.GetInt("ocr-dpi"); v > 0 {
		cfg.Extraction.RenderDPI = v
	}
	if v, _ := flags.GetString("ocr-engine"); v != "" {
		cfg.Extraction.Engine = types.OCREngineKind(v)
	}
	if v, _ := flags.GetInt("concurrency"); v > 0 {
		cfg.Extraction.Concurrency = v
	}
	if flags.Changed("ai-cleanup") {
		cfg.Cleanup.Enabled, _ = flags.GetBool("ai-cleanup")
	}
	if v, _ := flags.GetString("model"); v != "" {
		cfg.Cleanup.Model = v
	}
	if v, _ := flags.GetString("endpoint"); v != "" {
		cfg.Cleanup.Endpoint = v
	}
	if v, _ := flags.GetString("format"); v != "" {
		cfg.Output.Format = types.BundleFormat(v)
	}
	if v, _ := flags.GetString("deck-name"); v != "" {
		cfg.Output.Deck.Name = v
	}
	if flags.Changed("no-subdecks") {
		noSubdecks, _ := flags.GetBool("no-subdecks")
		cfg.Output.Deck.Subdecks = !noSubdecks
	}
	if v, _ := flags.GetString("card-split"); v != "" {
		cfg.Output.CardSplit = types.CardSplitKind(v)
	}

	apiKey, _ := flags.GetString("api-key")
	if v := cleanupAPIKey(apiKey); v != "" {
		cfg.Cleanup.APIKey = v
	}

	// Cleanup is best-effort: without credentials the stage is disabled,
	// never fatal.
	if cfg.Cleanup.Enabled && (cfg.Cleanup.APIKey == "" || cfg.Cleanup.Model == "") {
		fmt.Fprintln(os.Stderr, "warning: ai-cleanup requested without api-key/model; cleanup disabled")
		cfg.Cleanup.Enabled = false
	}
	return cfg, nil
}
