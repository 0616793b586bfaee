package app

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	"github.com/reviewpulse/review-pulse/internal/core/llm"
	"github.com/reviewpulse/review-pulse/internal/ingest"
	"github.com/reviewpulse/review-pulse/internal/output/artifacts"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
	"github.com/reviewpulse/review-pulse/internal/process/classifier"
	"github.com/reviewpulse/review-pulse/internal/process/pulse"
)

var testNow = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

func testInput(t *testing.T, dir string) string {
	t.Helper()

	// three payment complaints the heuristics catch, two generic ones the
	// mock LLM leaves unclassified in the first pass and force-assigns to
	// glitches in the second
	raw := `[
		{"id": "r1", "text": "My withdrawal delay is now over a week, money stuck", "rating": 1, "date": "2025-06-03T10:00:00Z", "author": "a1"},
		{"id": "r2", "text": "Withdrawal still pending after five days", "rating": 2, "date": "2025-06-04T11:00:00Z", "author": "a2"},
		{"id": "r3", "text": "Cannot withdraw my funds from the wallet", "rating": 1, "date": "2025-06-05T12:00:00Z", "author": "a3"},
		{"id": "r4", "text": "Very disappointing overall experience this month", "rating": 2, "date": "2025-06-06T09:00:00Z", "author": "a4"},
		{"id": "r5", "text": "Would never recommend this to my friends", "rating": 1, "date": "2025-06-07T08:00:00Z", "author": "a5"}
	]`

	path := filepath.Join(dir, "reviews.json")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	return path
}

func newTestApp(t *testing.T, mock *llm.Mock) *App {
	t.Helper()

	dir := t.TempDir()
	logger := zerolog.Nop()

	cfg := &config.Config{
		MinReviewTextLen:     10,
		LookbackDays:         28,
		MinReviewsPerWeek:    3,
		ClassifierBatchSize:  8,
		HeuristicMinMatches:  1,
		MaxThemesPerWeek:     3,
		MaxQuotesPerTheme:    3,
		MaxPulseWords:        250,
		ChunkSize:            20,
		SkipExistingNotes:    true,
		ForceRecentWeeks:     0,
		LLMMaxRetries:        1,
		LLMRetryInitialDelay: time.Millisecond,
		LLMConcurrency:       1,
		InputPath:            testInput(t, dir),
		OutputDir:            filepath.Join(dir, "processed"),
		PulseDir:             filepath.Join(dir, "processed", "weekly_pulse"),
	}

	return &App{
		cfg:        cfg,
		logger:     &logger,
		store:      artifacts.NewStore(cfg, &logger),
		normalizer: ingest.NewNormalizer(cfg.MinReviewTextLen, &logger),
		classifier: classifier.New(cfg, mock, &logger),
		discovery:  classifier.NewDiscovery(cfg, mock, &logger),
		composer:   pulse.New(cfg, mock, &logger),
		now:        func() time.Time { return testNow },
	}
}

func queueClassifyPasses(mock *llm.Mock) {
	mock.QueueClassify(
		`{"reviews": [
			{"review_id": "r4", "chosen_theme": "unclassified", "short_reason": "no clear theme"},
			{"review_id": "r5", "chosen_theme": "unclassified", "short_reason": "no clear theme"}
		]}`,
		`{"reviews": [
			{"review_id": "r4", "chosen_theme": "glitches", "short_reason": "closest fit"},
			{"review_id": "r5", "chosen_theme": "glitches", "short_reason": "closest fit"}
		]}`,
	)
}

func queueCompose(mock *llm.Mock) {
	mock.QueueCompose(
		`{"summary": "Withdrawals are stuck for days.", "quotes": ["money stuck"]}`,
		`{"summary": "Unspecific dissatisfaction, likely app quality.", "quotes": []}`,
		`{"title": "Withdrawal delays dominate", "overview": "Payment delays drove the week.", "actions": ["Audit the withdrawal queue"]}`,
	)
}

func rangeBounds() (time.Time, time.Time) {
	return time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC)
}

func loadAggregation(t *testing.T, a *App) domain.ThemeAggregation {
	t.Helper()

	raw, err := os.ReadFile(filepath.Join(a.cfg.OutputDir, "theme_aggregation.json"))
	require.NoError(t, err)

	var doc domain.ThemeAggregation
	require.NoError(t, json.Unmarshal(raw, &doc))

	return doc
}

func TestRun_EndToEnd(t *testing.T) {
	mock := llm.NewMock()
	queueClassifyPasses(mock)
	queueCompose(mock)

	a := newTestApp(t, mock)

	start, end := rangeBounds()

	summary, err := a.Run(context.Background(), start, end)
	require.NoError(t, err)

	assert.Equal(t, 5, summary.RawReviews)
	assert.Equal(t, 5, summary.Normalized)
	assert.Equal(t, 5, summary.Classified)
	assert.Zero(t, summary.Unclassified, "second pass force-assigned the leftovers")
	assert.Equal(t, 1, summary.ComposedWeeks)
	assert.Zero(t, summary.FailedWeeks)

	doc := loadAggregation(t, a)
	require.Len(t, doc.WeeklyCounts, 1)
	assert.Equal(t, "2025-06-02", doc.WeeklyCounts[0].WeekStart.String())
	assert.Equal(t, map[string]int{"payments": 3, "glitches": 2}, doc.WeeklyCounts[0].ThemeCounts)
	assert.Equal(t, 5, doc.WeeklyCounts[0].TotalReviews)
	assert.Equal(t, map[string]int{"payments": 3, "glitches": 2}, doc.Overall)
	require.Len(t, doc.TopThemes, 2)
	assert.Equal(t, "payments", doc.TopThemes[0].ThemeID)

	assert.FileExists(t, filepath.Join(a.cfg.PulseDir, "pulse_2025-06-02.json"))
	assert.FileExists(t, filepath.Join(a.cfg.PulseDir, "pulse_2025-06-02.md"))

	manifestRaw, err := os.ReadFile(filepath.Join(a.cfg.PulseDir, "manifest.json"))
	require.NoError(t, err)
	assert.Contains(t, string(manifestRaw), "pulse_2025-06-02.json")

	assert.FileExists(t, filepath.Join(a.cfg.OutputDir, "review_classifications.json"))
}

func TestRun_RerunReplacesWeekWithoutDoubleCounting(t *testing.T) {
	mock := llm.NewMock()
	queueClassifyPasses(mock)
	queueCompose(mock)

	a := newTestApp(t, mock)

	start, end := rangeBounds()

	_, err := a.Run(context.Background(), start, end)
	require.NoError(t, err)

	composeCallsAfterFirst := mock.ComposeCalls

	// second run over the same input reclassifies but must not double-count
	// or recompose the existing note
	queueClassifyPasses(mock)

	summary, err := a.Run(context.Background(), start, end)
	require.NoError(t, err)

	doc := loadAggregation(t, a)
	require.Len(t, doc.WeeklyCounts, 1)
	assert.Equal(t, map[string]int{"payments": 3, "glitches": 2}, doc.Overall)

	assert.Equal(t, 1, summary.SkippedWeeks)
	assert.Zero(t, summary.ComposedWeeks)
	assert.Equal(t, composeCallsAfterFirst, mock.ComposeCalls, "existing note must not be recomposed")
}

func TestRun_MissingInputFails(t *testing.T) {
	a := newTestApp(t, llm.NewMock())
	a.cfg.InputPath = filepath.Join(t.TempDir(), "nope.json")

	start, end := rangeBounds()

	_, err := a.Run(context.Background(), start, end)
	require.Error(t, err)
}

func TestRun_ComposeFailureDegradesToFailedWeek(t *testing.T) {
	mock := llm.NewMock()
	queueClassifyPasses(mock)
	// map succeeds for both themes, reduce garbage twice
	mock.QueueCompose(
		`{"summary": "Withdrawals stuck.", "quotes": []}`,
		`{"summary": "General complaints.", "quotes": []}`,
		`garbage`,
		`more garbage`,
	)

	a := newTestApp(t, mock)

	start, end := rangeBounds()

	summary, err := a.Run(context.Background(), start, end)
	require.NoError(t, err, "compose failures must not abort the run")

	assert.Equal(t, 1, summary.FailedWeeks)
	assert.Zero(t, summary.ComposedWeeks)

	// counts still landed in the aggregation
	doc := loadAggregation(t, a)
	assert.Equal(t, map[string]int{"payments": 3, "glitches": 2}, doc.Overall)

	assert.NoFileExists(t, filepath.Join(a.cfg.PulseDir, "pulse_2025-06-02.json"))
}

func TestRun_DiscoveryWritesSideArtifact(t *testing.T) {
	mock := llm.NewMock()
	queueClassifyPasses(mock)
	queueCompose(mock)
	mock.QueueClassify(`{"themes": [
		{"theme_id": "onboarding", "theme_name": "onboarding", "description": "Signup and first-run friction", "keywords": ["signup", "register"], "confidence": 0.8}
	]}`)

	a := newTestApp(t, mock)
	a.cfg.DiscoveryEnabled = true
	a.cfg.DiscoverySampleSize = 5
	a.cfg.DiscoveryMinConfidence = 0.6
	a.cfg.DiscoveryMaxThemes = 4

	start, end := rangeBounds()

	_, err := a.Run(context.Background(), start, end)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(a.cfg.OutputDir, "llm_suggested_themes.json"))
}
