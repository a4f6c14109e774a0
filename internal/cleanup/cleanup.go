// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cleanup sends chapter text to an OpenAI-compatible chat
// completions endpoint for light editorial polish. The stage is strictly
// best-effort: any failure or timeout keeps the chapter's original text and
// records a note, never aborting the run. Without an API key the stage is
// disabled entirely.
package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/chapterize/internal/httputil"
	"github.com/pdiddy/chapterize/pkg/types"
)

// systemPrompt instructs the model to clean without rewriting content.
const systemPrompt = "You are an expert technical editor. Clean OCR/PDF extraction noise, " +
	"fix typos, and lightly polish readability without changing factual meaning. " +
	"Preserve headings and code blocks. Return markdown only."

// backoffBase controls the base duration for exponential backoff between
// failed attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// errRateLimited marks a call that already exhausted the transport-level
// 429 retries inside httputil.DoWithRetry. Retrying it again at this level
// would multiply the request count against an endpoint that asked us to
// slow down.
var errRateLimited = errors.New("rate limited")

// Client calls the cleanup endpoint for one pipeline run.
type Client struct {
	cfg  types.CleanupConfig
	http *http.Client
}

// New builds a cleanup client from the run configuration.
func New(cfg types.CleanupConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the stage should run at all. A missing API key or
// model disables cleanup without error.
func (c *Client) Enabled() bool {
	return c.cfg.Enabled && c.cfg.APIKey != "" && c.cfg.Model != ""
}

// CleanChapters runs cleanup over all chapters with a bounded worker pool
// and returns the chapters in their original ordinal order, plus one note
// per chapter whose cleanup failed. Failed chapters keep their original
// text.
func (c *Client) CleanChapters(ctx context.Context, chapters []types.Chapter) ([]types.Chapter, []types.Note) {
	if !c.Enabled() || len(chapters) == 0 {
		return chapters, nil
	}

	workers := c.cfg.Concurrency
	if workers <= 0 {
		workers = 2
	}
	if workers > len(chapters) {
		workers = len(chapters)
	}

	out := make([]types.Chapter, len(chapters))
	copy(out, chapters)
	failures := make([]string, len(chapters))

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				cleaned, err := c.cleanWithRetry(ctx, chapters[i].Body())
				if err != nil {
					failures[i] = err.Error()
					continue
				}
				out[i].Lines = strings.Split(cleaned, "\n")
				out[i].Cleaned = true
			}
		}()
	}

	for i := range chapters {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	var notes []types.Note
	for i, msg := range failures {
		if msg != "" {
			notes = append(notes, types.Note{Stage: types.StageCleanup, Index: chapters[i].Ordinal, Message: msg})
		}
	}
	return out, notes
}

// cleanWithRetry retries failed cleanup calls with exponential backoff.
func (c *Client) cleanWithRetry(ctx context.Context, text string) (string, error) {
	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		cleaned, err := c.clean(ctx, text)
		if err == nil {
			return cleaned, nil
		}
		if errors.Is(err, errRateLimited) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// chatRequest is the OpenAI-compatible chat completions request body.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse holds the fields of the response we consume.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// clean performs one cleanup call.
func (c *Client) clean(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: endpoint still returning %s after transport retries", errRateLimited, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("endpoint returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("response contained no choices")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
