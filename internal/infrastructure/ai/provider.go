// Package ai selects the text generation backend for plan generation
package ai

import (
	"context"
	"fmt"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/ai/gemini"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"go.uber.org/zap"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	ollamaBaseURL = "http://localhost:11434/v1"
	ollamaModel   = "llama3.2:3b"
)

// Closer is implemented by providers holding long-lived connections
type Closer interface {
	Close() error
}

// NewTextGenerator builds the configured provider. Ollama is served through the
// OpenAI-compatible endpoint it exposes.
func NewTextGenerator(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (outbound.TextGenerator, error) {
	switch cfg.Provider {
	case ProviderOpenAI, "":
		return openai.NewClient(cfg, logger), nil

	case ProviderOllama:
		if cfg.BaseURL == "" {
			cfg.BaseURL = ollamaBaseURL
		}
		if cfg.EconomyModel == "" {
			cfg.EconomyModel = ollamaModel
		}
		logger.Info("Using local Ollama for plan generation",
			zap.String("base_url", cfg.BaseURL),
			zap.String("model", cfg.EconomyModel),
		)
		return openai.NewClient(cfg, logger), nil

	case ProviderGemini:
		return gemini.NewClient(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
