package core

import (
	"context"

	"github.com/pkg/errors"

	"gwi.com/wishlist-assistant/internal/config"
)

// NewGenerator picks the remote endpoint when GENERATOR_URL is set, otherwise
// the configured LLM provider.
func NewGenerator(ctx context.Context, cfg config.Config) (Generator, error) {
	if cfg.GeneratorURL != "" {
		return NewRemoteGenerator(cfg.GeneratorURL, cfg.HTTPClientTimeout), nil
	}
	switch cfg.LLMProvider {
	case "", "gemini":
		g, err := NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "openai":
		g, err := NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, errors.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}
