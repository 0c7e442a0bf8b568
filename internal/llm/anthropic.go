package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// Anthropic is a Client backed by the Anthropic Messages API via langchaingo.
type Anthropic struct {
	model llms.Model
}

// NewAnthropic constructs an Anthropic client. The model name falls back to
// DefaultAnthropicModel when unset.
func NewAnthropic(cfg Config) (*Anthropic, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultAnthropicModel
	}

	opts := []anthropic.Option{
		anthropic.WithToken(strings.TrimSpace(cfg.APIKey)),
		anthropic.WithModel(model),
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSpace(cfg.BaseURL)))
	}

	client, err := anthropic.New(opts...)
	if err != nil {
		return nil, err
	}
	return &Anthropic{model: client}, nil
}

func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := llms.GenerateFromSinglePrompt(ctx, a.model, prompt, llms.WithMaxTokens(maxOutputTokens))
	if err != nil {
		return "", fmt.Errorf("anthropic generate: %w", err)
	}
	return out, nil
}
