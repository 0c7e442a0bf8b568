// Package llm provides a provider-agnostic completion client for the
// enrichment and fallback stages. Two providers are supported: Anthropic
// (via langchaingo) and Gemini (via the official SDK).
package llm

import (
	"context"
	"fmt"
	"strings"
)

// Client issues one prompt to a generative text model and returns the raw
// response text. Implementations must honor ctx cancellation and deadlines.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config selects and configures a provider.
type Config struct {
	// Provider is "anthropic" or "gemini".
	Provider string

	// Model overrides the provider's default model name.
	Model string

	APIKey string

	// BaseURL overrides the provider API base URL. Useful for proxies/testing.
	BaseURL string
}

const (
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultGeminiModel    = "gemini-2.5-flash"

	// maxOutputTokens bounds completions; enrichment batches are sized so
	// judgments for a full batch fit well inside it.
	maxOutputTokens = 4096
)

// New constructs the configured provider client.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "anthropic", "claude":
		return NewAnthropic(cfg)
	case "gemini", "google":
		return NewGemini(ctx, cfg)
	case "":
		return nil, fmt.Errorf("llm provider is required")
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
