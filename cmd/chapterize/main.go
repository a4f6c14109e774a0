// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the chapterize CLI, which converts
// PDFs into chapter Markdown bundles or Anki decks.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/chapterize/internal/secrets"
	"github.com/pdiddy/chapterize/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Store

// cleanupAPIKey returns the explicitly supplied key when set, otherwise the
// one loaded from .secrets/.
func cleanupAPIKey(fallback string) string {
	if fallback != "" {
		return fallback
	}
	return loadedSecrets.OpenAIKey()
}

// rootCmd is the base command for the chapterize CLI.
var rootCmd = &cobra.Command{
	Use:   "chapterize",
	Short: "Convert PDFs into chapter Markdown bundles or Anki decks",
	Long: `chapterize extracts the text of a PDF, trusting the embedded text layer
when it is dense enough and falling back to OCR when it is not, segments it
into chapters using heading heuristics, optionally polishes each chapter
through an AI cleanup endpoint, and packages the result as a zip of
Markdown files or an importable Anki deck.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			names := s.Names()
			sort.Strings(names)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", names)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./chapterize.yaml or ~/.config/chapterize/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("chapterize")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "chapterize"))
		}
	}

	viper.SetEnvPrefix("CHAPTERIZE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindConfigDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// bindConfigDefaults registers every config key with viper. AutomaticEnv only
// resolves keys viper already knows about, so without this registration
// CHAPTERIZE_* environment variables would never reach Unmarshal.
func bindConfigDefaults() {
	d := types.DefaultPipelineConfig()

	viper.SetDefault("extraction.force_ocr", d.Extraction.ForceOCR)
	viper.SetDefault("extraction.min_chars_per_page", d.Extraction.MinCharsPerPage)
	viper.SetDefault("extraction.ocr_language", d.Extraction.OCRLanguage)
	viper.SetDefault("extraction.render_dpi", d.Extraction.RenderDPI)
	viper.SetDefault("extraction.engine", string(d.Extraction.Engine))
	viper.SetDefault("extraction.concurrency", d.Extraction.Concurrency)
	viper.SetDefault("extraction.failure_probe", d.Extraction.FailureProbe)

	viper.SetDefault("cleanup.enabled", d.Cleanup.Enabled)
	viper.SetDefault("cleanup.model", d.Cleanup.Model)
	viper.SetDefault("cleanup.api_key", d.Cleanup.APIKey)
	viper.SetDefault("cleanup.max_retries", d.Cleanup.MaxRetries)
	viper.SetDefault("cleanup.timeout", d.Cleanup.Timeout)
	viper.SetDefault("cleanup.user_agent", d.Cleanup.UserAgent)
	viper.SetDefault("cleanup.endpoint", d.Cleanup.Endpoint)
	viper.SetDefault("cleanup.concurrency", d.Cleanup.Concurrency)

	viper.SetDefault("output.format", string(d.Output.Format))
	viper.SetDefault("output.path", d.Output.Path)
	viper.SetDefault("output.deck.name", d.Output.Deck.Name)
	viper.SetDefault("output.deck.subdecks", d.Output.Deck.Subdecks)
	viper.SetDefault("output.card_split", string(d.Output.CardSplit))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
