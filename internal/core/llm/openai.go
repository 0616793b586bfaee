package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	apperrors "github.com/reviewpulse/review-pulse/internal/core/errors"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
	"github.com/reviewpulse/review-pulse/internal/platform/observability"
)

const (
	rateLimiterBurst = 5

	operationClassify = "classify"
	operationCompose  = "compose"

	statusOK    = "ok"
	statusError = "error"
)

type openaiClient struct {
	cfg         *config.Config
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI creates a Client backed by the OpenAI chat completions API.
func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	return &openaiClient{
		cfg:         cfg,
		client:      openai.NewClient(cfg.LLMAPIKey),
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitRPS)), rateLimiterBurst),
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", apperrors.ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= c.circuitThreshold() {
		c.circuitOpenUntil = time.Now().Add(c.circuitTimeout())
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

func (c *openaiClient) circuitThreshold() int {
	if c.cfg.LLMCircuitThreshold > 0 {
		return c.cfg.LLMCircuitThreshold
	}

	return 5
}

func (c *openaiClient) circuitTimeout() time.Duration {
	if c.cfg.LLMCircuitTimeout > 0 {
		return c.cfg.LLMCircuitTimeout
	}

	return time.Minute
}

// Classify implements Client. The response format hint nudges the model
// toward parseable JSON, but callers still harden their parsing.
func (c *openaiClient) Classify(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, operationClassify, prompt, &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	})
}

// Compose implements Client.
func (c *openaiClient) Compose(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, operationCompose, prompt, nil)
}

func (c *openaiClient) complete(ctx context.Context, operation, prompt string, format *openai.ChatCompletionResponseFormat) (string, error) {
	if err := c.checkCircuit(); err != nil {
		return "", err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.LLMTimeout)
	defer cancel()

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:          c.cfg.LLMModel,
		Temperature:    c.cfg.LLMTemperature,
		ResponseFormat: format,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})

	observability.LLMRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()
		observability.LLMRequests.WithLabelValues(operation, statusError).Inc()

		return "", fmt.Errorf("chat completion: %w", err)
	}

	c.recordSuccess()
	observability.LLMRequests.WithLabelValues(operation, statusOK).Inc()

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", apperrors.ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}

// Ensure openaiClient implements Client.
var _ Client = (*openaiClient)(nil)
