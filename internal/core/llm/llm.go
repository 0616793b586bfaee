// Package llm abstracts the generative-model calls the pipeline depends on.
// The model is an injected capability with explicit failure modes: both
// operations may fail outright or return malformed text, and callers are
// expected to degrade gracefully.
package llm

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/review-pulse/internal/platform/config"
)

// Client is the model interface the pipeline components consume.
type Client interface {
	// Classify sends a classification prompt and returns the raw model text.
	// Callers parse the text themselves and must tolerate malformed output.
	Classify(ctx context.Context, prompt string) (string, error)

	// Compose sends a summarization prompt and returns the raw model text.
	Compose(ctx context.Context, prompt string) (string, error)
}

// New selects a provider from configuration. An empty API key yields the
// mock provider so local runs and tests never hit the network.
func New(cfg *config.Config, logger *zerolog.Logger) Client {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	if cfg.LLMAPIKey == "" {
		logger.Warn().Msg("LLM_API_KEY not set, using mock LLM provider")

		return NewMock()
	}

	return NewOpenAI(cfg, logger)
}
