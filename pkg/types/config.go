package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "chapterize/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// OCREngineKind identifies the OCR backend.
type OCREngineKind string

const (
	// EngineGosseract recognizes text through the linked Tesseract library.
	EngineGosseract OCREngineKind = "gosseract"
	// EngineTesseract shells out to the tesseract binary.
	EngineTesseract OCREngineKind = "tesseract"
)

// ExtractionConfig holds settings for embedded-text extraction and the OCR fallback.
type ExtractionConfig struct {
	// ForceOCR discards embedded text and re-derives every page via OCR.
	ForceOCR bool `json:"force_ocr" yaml:"force_ocr" mapstructure:"force_ocr"`

	// MinCharsPerPage is the density threshold below which OCR is selected
	// (default 25 non-whitespace characters per page).
	MinCharsPerPage int `json:"min_chars_per_page" yaml:"min_chars_per_page" mapstructure:"min_chars_per_page"`

	// OCRLanguage is the Tesseract language code (default "eng").
	OCRLanguage string `json:"ocr_language" yaml:"ocr_language" mapstructure:"ocr_language"`

	// RenderDPI is the rasterization resolution for OCR (default 144).
	RenderDPI int `json:"render_dpi" yaml:"render_dpi" mapstructure:"render_dpi"`

	// Engine selects the OCR backend: gosseract or tesseract.
	Engine OCREngineKind `json:"engine" yaml:"engine" mapstructure:"engine"`

	// Concurrency bounds the number of pages OCRed in parallel (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// FailureProbe is the number of leading pages that must all fail OCR
	// before the run aborts. Zero means every page (default).
	FailureProbe int `json:"failure_probe" yaml:"failure_probe" mapstructure:"failure_probe"`
}

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CleanupConfig holds settings for the optional per-chapter AI cleanup stage.
// The stage is disabled entirely when Enabled is false or APIKey is empty.
type CleanupConfig struct {
	AIConfig   `yaml:",inline" mapstructure:",squash"`
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Enabled turns the cleanup stage on.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Endpoint is an OpenAI-compatible chat completions URL.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Concurrency bounds the number of chapters cleaned in parallel (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// BundleFormat selects the output bundle format.
type BundleFormat string

const (
	// FormatZip packages chapters as a zip of Markdown files.
	FormatZip BundleFormat = "zip"
	// FormatAPKG packages chapters as an importable Anki deck.
	FormatAPKG BundleFormat = "apkg"
)

// CardSplitKind selects how a chapter body is split into flashcards.
type CardSplitKind string

const (
	// SplitParagraph makes one card per blank-line-separated paragraph.
	SplitParagraph CardSplitKind = "paragraph"
	// SplitQA pairs "Q:"/"A:" marker lines into question/answer cards.
	SplitQA CardSplitKind = "qa"
)

// DeckSpec names the Anki deck hierarchy for deck-mode output.
type DeckSpec struct {
	// Name is the root deck name (default "PDF Imports").
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Subdecks places each chapter in its own "Root::Chapter" subdeck.
	Subdecks bool `json:"subdecks" yaml:"subdecks" mapstructure:"subdecks"`
}

// OutputConfig holds settings for the packaging stage.
type OutputConfig struct {
	// Format selects the bundle format: zip or apkg.
	Format BundleFormat `json:"format" yaml:"format" mapstructure:"format"`

	// Path is the output file path. Empty derives one from the input name.
	Path string `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`

	// Deck configures deck-mode output.
	Deck DeckSpec `json:"deck" yaml:"deck" mapstructure:"deck"`

	// CardSplit selects the flashcard splitting strategy (default paragraph).
	CardSplit CardSplitKind `json:"card_split" yaml:"card_split" mapstructure:"card_split"`
}

// PipelineConfig groups all stage configurations for one conversion run.
// It is built once by the CLI and threaded through the pipeline unchanged.
type PipelineConfig struct {
	Extraction ExtractionConfig `json:"extraction" yaml:"extraction" mapstructure:"extraction"`
	Cleanup    CleanupConfig    `json:"cleanup" yaml:"cleanup" mapstructure:"cleanup"`
	Output     OutputConfig     `json:"output" yaml:"output" mapstructure:"output"`
}

// DefaultPipelineConfig returns the built-in defaults, matching the CLI flag
// defaults. Callers overlay config-file and flag values on top.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Extraction: ExtractionConfig{
			MinCharsPerPage: 25,
			OCRLanguage:     "eng",
			RenderDPI:       144,
			Engine:          EngineGosseract,
			Concurrency:     4,
		},
		Cleanup: CleanupConfig{
			AIConfig: AIConfig{
				MaxRetries: 3,
			},
			HTTPConfig: HTTPConfig{
				Timeout:   90 * time.Second,
				UserAgent: "chapterize/0.1",
			},
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Concurrency: 2,
		},
		Output: OutputConfig{
			Format: FormatZip,
			Deck: DeckSpec{
				Name:     "PDF Imports",
				Subdecks: true,
			},
			CardSplit: SplitParagraph,
		},
	}
}
