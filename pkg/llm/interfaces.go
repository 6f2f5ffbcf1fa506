// Package llm provides the LLM clients used by schema discovery and
// relationship inference.
package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/amantaras/call-center-performance-sub001/pkg/config"
)

// LLMClient defines the interface for LLM operations. Use this interface
// for dependency injection to enable mocking in tests.
type LLMClient interface {
	// GenerateResponse generates a chat completion response.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// NewFromConfig creates the client selected by the AI configuration.
func NewFromConfig(cfg *config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	if !cfg.IsAvailable() {
		return nil, fmt.Errorf("no AI model configured")
	}

	switch cfg.Provider {
	case "anthropic":
		return NewAnthropicClient(cfg.Model, cfg.APIKey, logger)
	case "", "openai":
		return NewClient(&Config{
			Endpoint: cfg.BaseURL,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}
}
