// Package app wires the pipeline stages together and runs them end to end:
// load raw reviews, normalize, bucket by week, classify themes, fold counts
// into the aggregation document, and compose weekly pulse notes.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	"github.com/reviewpulse/review-pulse/internal/core/llm"
	"github.com/reviewpulse/review-pulse/internal/ingest"
	"github.com/reviewpulse/review-pulse/internal/output/artifacts"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
	"github.com/reviewpulse/review-pulse/internal/platform/observability"
	"github.com/reviewpulse/review-pulse/internal/process/aggregate"
	"github.com/reviewpulse/review-pulse/internal/process/bucketer"
	"github.com/reviewpulse/review-pulse/internal/process/classifier"
	"github.com/reviewpulse/review-pulse/internal/process/pulse"
)

const (
	daysPerWeek = 7

	reasonBelowThreshold = "below_threshold"
	reasonNoteExists     = "note_exists"

	statusComposed = "composed"
	statusSkipped  = "skipped"
	statusFailed   = "failed"
)

// App holds the pipeline dependencies for a single process lifetime.
type App struct {
	cfg    *config.Config
	logger *zerolog.Logger

	store      *artifacts.Store
	normalizer *ingest.Normalizer
	classifier *classifier.Classifier
	discovery  *classifier.Discovery
	composer   *pulse.Composer

	now func() time.Time
}

// New creates the App and wires all stages against one shared LLM client.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	client := llm.New(cfg, logger)

	return &App{
		cfg:        cfg,
		logger:     logger,
		store:      artifacts.NewStore(cfg, logger),
		normalizer: ingest.NewNormalizer(cfg.MinReviewTextLen, logger),
		classifier: classifier.New(cfg, client, logger),
		discovery:  classifier.NewDiscovery(cfg, client, logger),
		composer:   pulse.New(cfg, client, logger),
		now:        time.Now,
	}
}

// StartHealthServer serves liveness and metrics until ctx is cancelled.
func (a *App) StartHealthServer(ctx context.Context) error {
	return observability.NewServer(a.cfg.HealthPort, a.logger).Start(ctx)
}

// Run executes one full pipeline run over [rangeStart, rangeEnd). Zero
// bounds default to the configured lookback window ending today. Per-week
// classification and composition failures degrade to skipped or failed
// weeks; only input and persistence errors abort the run.
func (a *App) Run(ctx context.Context, rangeStart, rangeEnd time.Time) (domain.RunSummary, error) {
	startedAt := a.now().UTC()
	summary := domain.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: startedAt,
	}

	defer func() {
		observability.RunDurationSeconds.Observe(time.Since(startedAt).Seconds())
	}()

	rangeStart, rangeEnd = a.resolveRange(rangeStart, rangeEnd)

	a.logger.Info().
		Str("run_id", summary.RunID).
		Time("range_start", rangeStart).
		Time("range_end", rangeEnd).
		Msg("starting pipeline run")

	raw, err := ingest.LoadBatch(a.cfg.InputPath)
	if err != nil {
		return summary, fmt.Errorf("loading reviews: %w", err)
	}

	summary.RawReviews = len(raw)

	reviews := a.normalizer.Normalize(raw)
	summary.Normalized = len(reviews)

	buckets, err := bucketer.Bucket(reviews, rangeStart, rangeEnd)
	if err != nil {
		return summary, fmt.Errorf("bucketing reviews: %w", err)
	}

	buckets = bucketer.NonEmpty(buckets)

	aggregation, err := a.store.LoadAggregation()
	if err != nil {
		return summary, err
	}

	var allClassifications []domain.Classification

	for _, bucket := range buckets {
		classifications := a.classifier.ClassifyBucket(ctx, bucket)
		allClassifications = append(allClassifications, classifications...)

		aggregation = aggregate.Merge(aggregation, aggregate.CountBucket(bucket, classifications), a.now().UTC())

		summary.Weeks = append(summary.Weeks, a.processWeek(ctx, bucket, classifications))
	}

	tallySummary(&summary, allClassifications)

	if err := a.persist(aggregation, allClassifications); err != nil {
		return summary, err
	}

	if a.cfg.DiscoveryEnabled {
		suggested := a.discovery.Discover(ctx, reviews)
		if err := a.store.SaveSuggestedThemes(suggested, a.now()); err != nil {
			return summary, err
		}
	}

	summary.FinishedAt = a.now().UTC()

	a.logger.Info().
		Str("run_id", summary.RunID).
		Int("raw_reviews", summary.RawReviews).
		Int("normalized", summary.Normalized).
		Int("classified", summary.Classified).
		Int("unclassified", summary.Unclassified).
		Int("composed_weeks", summary.ComposedWeeks).
		Int("skipped_weeks", summary.SkippedWeeks).
		Int("failed_weeks", summary.FailedWeeks).
		Msg("pipeline run finished")

	return summary, nil
}

// processWeek composes and persists one week's pulse note. Every review
// already counted toward aggregation regardless of what happens here.
func (a *App) processWeek(ctx context.Context, bucket domain.WeekBucket, classifications []domain.Classification) domain.WeekOutcome {
	outcome := domain.WeekOutcome{
		WeekStart: domain.NewDate(bucket.WeekStart),
		Reviews:   len(bucket.Reviews),
	}

	if !bucket.Qualifies(a.cfg.MinReviewsPerWeek) {
		outcome.Status = domain.WeekSkipped
		outcome.Reason = reasonBelowThreshold

		observability.WeeksProcessed.WithLabelValues(statusSkipped).Inc()

		return outcome
	}

	if a.skipExisting(bucket) {
		outcome.Status = domain.WeekSkipped
		outcome.Reason = reasonNoteExists

		observability.WeeksProcessed.WithLabelValues(statusSkipped).Inc()
		a.logger.Debug().Time("week_start", bucket.WeekStart).Msg("pulse note already exists, skipping")

		return outcome
	}

	note, err := a.composer.ComposeWeek(ctx, bucket, classifications)
	if err != nil {
		outcome.Status = domain.WeekFailed
		outcome.Reason = err.Error()

		observability.WeeksProcessed.WithLabelValues(statusFailed).Inc()
		a.logger.Warn().Err(err).Time("week_start", bucket.WeekStart).Msg("pulse composition failed")

		return outcome
	}

	if err := a.store.SavePulse(note); err != nil {
		outcome.Status = domain.WeekFailed
		outcome.Reason = err.Error()

		observability.WeeksProcessed.WithLabelValues(statusFailed).Inc()
		a.logger.Error().Err(err).Time("week_start", bucket.WeekStart).Msg("pulse note write failed")

		return outcome
	}

	outcome.Status = domain.WeekComposed

	observability.WeeksProcessed.WithLabelValues(statusComposed).Inc()

	return outcome
}

// skipExisting reports whether the week's note should be left as-is. Recent
// weeks are always recomposed since late reviews may still arrive for them.
func (a *App) skipExisting(bucket domain.WeekBucket) bool {
	if !a.cfg.SkipExistingNotes {
		return false
	}

	if !a.store.PulseExists(domain.NewDate(bucket.WeekStart)) {
		return false
	}

	forceAfter := a.now().UTC().AddDate(0, 0, -daysPerWeek*a.cfg.ForceRecentWeeks)

	return !bucket.WeekEnd.After(forceAfter)
}

func (a *App) persist(aggregation domain.ThemeAggregation, classifications []domain.Classification) error {
	if err := a.store.SaveAggregation(aggregation); err != nil {
		return err
	}

	if err := a.store.SaveClassifications(classifications); err != nil {
		return err
	}

	return a.store.WriteManifest(a.now())
}

func (a *App) resolveRange(rangeStart, rangeEnd time.Time) (time.Time, time.Time) {
	if rangeEnd.IsZero() {
		// end of today so today's reviews land in the current week
		rangeEnd = a.now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 1)
	}

	if rangeStart.IsZero() {
		rangeStart = rangeEnd.AddDate(0, 0, -a.cfg.LookbackDays)
	}

	return rangeStart, rangeEnd
}

func tallySummary(summary *domain.RunSummary, classifications []domain.Classification) {
	for _, cls := range classifications {
		if cls.Theme.Kind == domain.ThemeUnclassified {
			summary.Unclassified++
		} else {
			summary.Classified++
		}
	}

	for _, week := range summary.Weeks {
		switch week.Status {
		case domain.WeekComposed:
			summary.ComposedWeeks++
		case domain.WeekSkipped:
			summary.SkippedWeeks++
		case domain.WeekFailed:
			summary.FailedWeeks++
		}
	}
}
