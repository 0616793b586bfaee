package llm

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/reviewpulse/review-pulse/internal/core/errors"
	"github.com/reviewpulse/review-pulse/internal/platform/observability"
)

const (
	defaultMaxRetries   = 2
	defaultInitialDelay = 500 * time.Millisecond
	delayMultiplier     = 2
	maxDelay            = 10 * time.Second
)

// RetryConfig configures retry behavior for model calls.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   defaultMaxRetries,
		InitialDelay: defaultInitialDelay,
	}
}

// CallFunc is a single model invocation attempt.
type CallFunc func(ctx context.Context) (string, error)

// WithRetry invokes call with capped exponential backoff. Circuit-breaker
// rejections are not retried since the breaker stays open for its full
// timeout anyway. The last error is wrapped in ErrRetriesExhausted so
// callers can mark the affected review and continue the batch.
func WithRetry(ctx context.Context, cfg RetryConfig, call CallFunc) (string, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = defaultInitialDelay
	}

	var lastErr error

	delay := cfg.InitialDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			observability.LLMRetries.Inc()

			select {
			case <-ctx.Done():
				return "", fmt.Errorf("retry interrupted: %w", ctx.Err())
			case <-time.After(delay):
				delay *= delayMultiplier
				if delay > maxDelay {
					delay = maxDelay
				}
			}
		}

		var text string

		text, lastErr = call(ctx)
		if lastErr == nil {
			return text, nil
		}

		if apperrors.Is(lastErr, apperrors.ErrCircuitBreakerOpen) || apperrors.Is(lastErr, context.Canceled) {
			break
		}
	}

	return "", fmt.Errorf("%w: %w", apperrors.ErrRetriesExhausted, lastErr)
}
