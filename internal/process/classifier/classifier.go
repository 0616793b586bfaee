// Package classifier assigns each review a theme from the fixed set using a
// two-pass strategy: keyword heuristics first, then an LLM pass allowing
// unclassified, then a forced LLM pass over the leftovers.
package classifier

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	"github.com/reviewpulse/review-pulse/internal/core/llm"
	"github.com/reviewpulse/review-pulse/internal/core/themes"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
	"github.com/reviewpulse/review-pulse/internal/platform/observability"
)

const (
	reasonHeuristic  = "keyword heuristic match"
	reasonLLMFailed  = "llm call failed after retries"
	reasonLLMInvalid = "llm output invalid for this review"
)

type Classifier struct {
	cfg    *config.Config
	client llm.Client
	logger *zerolog.Logger
}

func New(cfg *config.Config, client llm.Client, logger *zerolog.Logger) *Classifier {
	return &Classifier{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// ClassifyBucket classifies every review in the bucket. The result holds
// exactly one Classification per review, in bucket order. LLM failures
// degrade individual reviews to unclassified; the bucket never fails.
func (c *Classifier) ClassifyBucket(ctx context.Context, bucket domain.WeekBucket) []domain.Classification {
	assignments := make(map[string]domain.Classification, len(bucket.Reviews))

	// Heuristic pass: confident keyword matches skip the LLM entirely.
	var needLLM []domain.Review

	for _, review := range bucket.Reviews {
		themeID := themes.MatchHeuristic(review.Text, c.cfg.HeuristicMinMatches)
		if themeID == "" {
			needLLM = append(needLLM, review)
			continue
		}

		assignments[review.ID] = domain.Classification{
			ReviewID:   review.ID,
			Theme:      domain.FixedTheme(themeID),
			ThemeName:  themes.ByID(themeID).Name,
			Reason:     reasonHeuristic,
			Confidence: 1,
			Pass:       domain.PassHeuristic,
		}
	}

	c.logger.Debug().
		Int("total", len(bucket.Reviews)).
		Int("heuristic", len(bucket.Reviews)-len(needLLM)).
		Time("week_start", bucket.WeekStart).
		Msg("heuristic pass done")

	// First LLM pass: unclassified is an allowed output.
	firstPass := c.runPass(ctx, needLLM, domain.PassFirst)
	for id, cls := range firstPass {
		assignments[id] = cls
	}

	// Second LLM pass: force-assign everything still unclassified. Reviews
	// whose second-pass output is again unusable keep their first-pass
	// unclassified record.
	var leftovers []domain.Review

	for _, review := range needLLM {
		if cls, ok := assignments[review.ID]; ok && cls.Theme.Kind == domain.ThemeUnclassified {
			leftovers = append(leftovers, review)
		}
	}

	if len(leftovers) > 0 {
		secondPass := c.runPass(ctx, leftovers, domain.PassSecond)
		for id, cls := range secondPass {
			if cls.Theme.Kind != domain.ThemeUnclassified {
				assignments[id] = cls
			}
		}
	}

	results := make([]domain.Classification, 0, len(bucket.Reviews))

	for _, review := range bucket.Reviews {
		cls := assignments[review.ID]
		results = append(results, cls)
		observability.ReviewsClassified.WithLabelValues(cls.Theme.ID, string(cls.Pass)).Inc()
	}

	return results
}

// runPass sends reviews to the model in batches with bounded concurrency and
// returns one classification per review.
func (c *Classifier) runPass(ctx context.Context, reviews []domain.Review, pass domain.Pass) map[string]domain.Classification {
	results := make(map[string]domain.Classification, len(reviews))
	if len(reviews) == 0 {
		return results
	}

	batches := splitBatches(reviews, c.cfg.ClassifierBatchSize)

	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency())

	for _, batch := range batches {
		batch := batch
		group.Go(func() error {
			batchResults := c.classifyBatch(groupCtx, batch, pass)

			mu.Lock()
			for id, cls := range batchResults {
				results[id] = cls
			}
			mu.Unlock()

			return nil
		})
	}

	// Workers never return errors; degraded batches produce unclassified
	// records instead.
	_ = group.Wait()

	return results
}

func (c *Classifier) classifyBatch(ctx context.Context, batch []domain.Review, pass domain.Pass) map[string]domain.Classification {
	allowUnclassified := pass == domain.PassFirst
	prompt := buildClassificationPrompt(batch, allowUnclassified)

	retryCfg := llm.RetryConfig{
		MaxRetries:   c.cfg.LLMMaxRetries,
		InitialDelay: c.cfg.LLMRetryInitialDelay,
	}

	payload, err := llm.WithRetry(ctx, retryCfg, func(callCtx context.Context) (string, error) {
		text, callErr := c.client.Classify(callCtx, prompt)
		if callErr != nil {
			return "", callErr
		}

		// A response no item can be parsed from counts as a failed attempt.
		if _, parseErr := parseBatchResponse(text); parseErr != nil {
			return "", parseErr
		}

		return text, nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Int("batch_size", len(batch)).Str("pass", string(pass)).Msg("classification batch failed")

		return c.fallbackBatch(batch, pass)
	}

	items, err := parseBatchResponse(payload)
	if err != nil {
		return c.fallbackBatch(batch, pass)
	}

	return c.buildClassifications(items, batch, pass)
}

// buildClassifications maps parsed items back onto the batch. Items with
// unknown review ids are dropped; reviews missing from the response fall
// back to unclassified.
func (c *Classifier) buildClassifications(items []batchItem, batch []domain.Review, pass domain.Pass) map[string]domain.Classification {
	inBatch := make(map[string]struct{}, len(batch))
	for _, review := range batch {
		inBatch[review.ID] = struct{}{}
	}

	results := make(map[string]domain.Classification, len(batch))

	for _, item := range items {
		if _, ok := inBatch[item.ReviewID]; !ok {
			c.logger.Warn().Str("review_id", item.ReviewID).Msg("skipping classification with unknown review_id")
			continue
		}

		themeID, fixed := resolveThemeID(item.ChosenTheme)

		assignment := domain.Unclassified()
		if fixed {
			assignment = domain.FixedTheme(themeID)
		}

		reason := item.ShortReason
		if reason == "" {
			reason = "no reason provided"
		}

		results[item.ReviewID] = domain.Classification{
			ReviewID:  item.ReviewID,
			Theme:     assignment,
			ThemeName: themes.ByID(assignment.ID).Name,
			Reason:    reason,
			Pass:      pass,
		}
	}

	for _, review := range batch {
		if _, ok := results[review.ID]; ok {
			continue
		}

		results[review.ID] = unclassifiedRecord(review.ID, reasonLLMInvalid, pass)
	}

	return results
}

func (c *Classifier) fallbackBatch(batch []domain.Review, pass domain.Pass) map[string]domain.Classification {
	results := make(map[string]domain.Classification, len(batch))

	for _, review := range batch {
		results[review.ID] = unclassifiedRecord(review.ID, reasonLLMFailed, pass)
	}

	return results
}

func unclassifiedRecord(reviewID, reason string, pass domain.Pass) domain.Classification {
	return domain.Classification{
		ReviewID:  reviewID,
		Theme:     domain.Unclassified(),
		ThemeName: themes.ByID(themes.DefaultThemeID).Name,
		Reason:    reason,
		Pass:      pass,
	}
}

func (c *Classifier) concurrency() int {
	if c.cfg.LLMConcurrency > 0 {
		return c.cfg.LLMConcurrency
	}

	return 1
}

func splitBatches(reviews []domain.Review, size int) [][]domain.Review {
	if size <= 0 {
		size = 8
	}

	batches := make([][]domain.Review, 0, (len(reviews)+size-1)/size)

	for start := 0; start < len(reviews); start += size {
		end := start + size
		if end > len(reviews) {
			end = len(reviews)
		}

		batches = append(batches, reviews[start:end])
	}

	return batches
}
