// Package llm adapts LLM providers behind a single completion interface.
// Providers return raw JSON text; decoding and repair belong to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/daviddao/mailtriage/internal/config"
)

// ErrNotImplemented marks providers that are configured but have no backing
// implementation yet. The server surfaces it as 501.
var ErrNotImplemented = errors.New("llm provider not implemented")

// Client is a chat-completion provider. Complete sends a system prompt and a
// user message and returns the raw completion text.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userContent string) (string, error)
	// Name identifies the provider and model for logs, e.g. "openai/gpt-5.2".
	Name() string
}

// New selects a provider from settings.
func New(cfg *config.Settings) (Client, error) {
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return NewOpenAI(cfg)
	case config.ProviderLocal:
		return NewLocal(), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", cfg.LLMProvider)
	}
}
