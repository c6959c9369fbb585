// Package llm provides a provider-agnostic client for the two LLM-backed
// background jobs (cue proposal and file-chunk extraction).
package llm

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cuemap/cuemap/internal/config"
)

const requestTimeout = 20 * time.Second

// Client proposes cues for existing content or extracts a summary and cues
// from a freshly-ingested file chunk.
type Client interface {
	ProposeCues(ctx context.Context, content string) ([]string, error)
	ExtractSummaryAndCues(ctx context.Context, content string) (summary string, cues []string, err error)
}

var (
	sharedHTTPClientOnce sync.Once
	sharedHTTPClient     *http.Client
)

// httpClient returns the process-wide HTTP client used by every provider,
// initialized once on first use.
func httpClient() *http.Client {
	sharedHTTPClientOnce.Do(func() {
		sharedHTTPClient = &http.Client{Timeout: requestTimeout}
	})
	return sharedHTTPClient
}

// NewClient selects a provider implementation from config.
func NewClient(cfg config.Config) Client {
	switch cfg.LLMProvider {
	case "openai":
		return NewOpenAIClient("", cfg.LLMModel, cfg.LLMAPIKey)
	default:
		return NewOllamaClient(cfg.OllamaURL, cfg.LLMModel)
	}
}

// completer performs one prompt-completion round trip against a provider.
type completer interface {
	complete(ctx context.Context, prompt string) (string, error)
}

// baseClient implements Client against any completer, keeping the
// prompt-building and response-parsing logic provider-agnostic.
type baseClient struct {
	c completer
}

func (b baseClient) ProposeCues(ctx context.Context, content string) ([]string, error) {
	raw, err := b.c.complete(ctx, proposeCuesPrompt(content))
	if err != nil {
		return nil, err
	}
	return parseCues(raw)
}

func (b baseClient) ExtractSummaryAndCues(ctx context.Context, content string) (string, []string, error) {
	raw, err := b.c.complete(ctx, extractPrompt(content))
	if err != nil {
		return "", nil, err
	}
	return parseSummaryAndCues(raw)
}
