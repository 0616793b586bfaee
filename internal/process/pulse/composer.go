// Package pulse composes the weekly pulse note from a classified week bucket
// using map/reduce prompting: per-theme summarization first, then a reduce
// call that assembles the note.
package pulse

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	apperrors "github.com/reviewpulse/review-pulse/internal/core/errors"
	"github.com/reviewpulse/review-pulse/internal/core/llm"
	"github.com/reviewpulse/review-pulse/internal/core/themes"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
	"github.com/reviewpulse/review-pulse/internal/platform/observability"
)

type Composer struct {
	cfg    *config.Config
	client llm.Client
	logger *zerolog.Logger
}

func New(cfg *config.Config, client llm.Client, logger *zerolog.Logger) *Composer {
	return &Composer{
		cfg:    cfg,
		client: client,
		logger: logger,
	}
}

// themeInsight is the output of one theme's map step.
type themeInsight struct {
	ThemeID string
	Name    string
	Summary string
	Quotes  []string
	Reviews int
}

// ComposeWeek builds the pulse note for one qualifying week bucket.
// Returns ErrWeekBelowThreshold when the bucket has too few reviews and
// ErrComposeFailed when the note cannot be assembled; neither is fatal to
// the run.
func (c *Composer) ComposeWeek(ctx context.Context, bucket domain.WeekBucket, classifications []domain.Classification) (domain.PulseNote, error) {
	if !bucket.Qualifies(c.cfg.MinReviewsPerWeek) {
		return domain.PulseNote{}, fmt.Errorf("%w: %d reviews", apperrors.ErrWeekBelowThreshold, len(bucket.Reviews))
	}

	grouped := groupByTheme(bucket, classifications)
	topThemes := selectTopThemes(grouped, c.cfg.MaxThemesPerWeek)

	if len(topThemes) == 0 {
		return domain.PulseNote{}, fmt.Errorf("%w: no classified themes", apperrors.ErrComposeFailed)
	}

	insights := c.mapThemes(ctx, topThemes, grouped)
	if len(insights) == 0 {
		return domain.PulseNote{}, fmt.Errorf("%w: all theme summaries failed", apperrors.ErrComposeFailed)
	}

	note, err := c.reduce(ctx, bucket, insights)
	if err != nil {
		return domain.PulseNote{}, err
	}

	observability.PulseWordCount.Observe(float64(note.WordCount))

	return note, nil
}

// groupByTheme collects each theme's reviews in bucket order. Unclassified
// and suggested assignments are left out: the pulse only surfaces fixed
// themes.
func groupByTheme(bucket domain.WeekBucket, classifications []domain.Classification) map[string][]domain.Review {
	assigned := make(map[string]string, len(classifications))

	for _, cls := range classifications {
		if cls.Theme.Kind == domain.ThemeFixed {
			assigned[cls.ReviewID] = cls.Theme.ID
		}
	}

	grouped := make(map[string][]domain.Review)

	for _, review := range bucket.Reviews {
		if themeID, ok := assigned[review.ID]; ok {
			grouped[themeID] = append(grouped[themeID], review)
		}
	}

	return grouped
}

// selectTopThemes ranks themes by review count within the week, descending,
// theme id ascending on ties, and keeps the first maxThemes.
func selectTopThemes(grouped map[string][]domain.Review, maxThemes int) []string {
	ids := make([]string, 0, len(grouped))
	for id := range grouped {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		if len(grouped[ids[i]]) != len(grouped[ids[j]]) {
			return len(grouped[ids[i]]) > len(grouped[ids[j]])
		}

		return ids[i] < ids[j]
	})

	if maxThemes > 0 && len(ids) > maxThemes {
		ids = ids[:maxThemes]
	}

	return ids
}

// mapThemes runs the per-theme map step with bounded concurrency. A failed
// theme is omitted rather than failing the week.
func (c *Composer) mapThemes(ctx context.Context, topThemes []string, grouped map[string][]domain.Review) []themeInsight {
	insights := make(map[string]themeInsight, len(topThemes))

	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.concurrency())

	for _, themeID := range topThemes {
		themeID := themeID
		group.Go(func() error {
			insight, err := c.summarizeTheme(groupCtx, themeID, grouped[themeID])
			if err != nil {
				c.logger.Warn().Err(err).Str("theme", themeID).Msg("theme map step failed, omitting theme")

				return nil
			}

			mu.Lock()
			insights[themeID] = insight
			mu.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	ordered := make([]themeInsight, 0, len(insights))

	for _, themeID := range topThemes {
		if insight, ok := insights[themeID]; ok {
			ordered = append(ordered, insight)
		}
	}

	return ordered
}

// summarizeTheme chunks the theme's reviews and merges chunk summaries.
// Most weeks fit one chunk; chunking only matters on heavy weeks.
func (c *Composer) summarizeTheme(ctx context.Context, themeID string, reviews []domain.Review) (themeInsight, error) {
	def := themes.ByID(themeID)

	var (
		summaries []string
		quotes    []string
	)

	for _, chunk := range chunkReviews(reviews, c.cfg.ChunkSize) {
		result, err := c.summarizeChunk(ctx, def, chunk)
		if err != nil {
			return themeInsight{}, err
		}

		if result.Summary != "" {
			summaries = append(summaries, result.Summary)
		}

		quotes = append(quotes, result.Quotes...)
	}

	if len(summaries) == 0 {
		return themeInsight{}, fmt.Errorf("%w: no summary for theme %s", apperrors.ErrComposeFailed, themeID)
	}

	return themeInsight{
		ThemeID: themeID,
		Name:    def.Name,
		Summary: strings.Join(summaries, " "),
		Quotes:  dedupeQuotes(quotes, c.cfg.MaxQuotesPerTheme),
		Reviews: len(reviews),
	}, nil
}

type chunkResult struct {
	Summary string   `json:"summary"`
	Quotes  []string `json:"quotes"`
}

func (c *Composer) summarizeChunk(ctx context.Context, def themes.Definition, chunk []domain.Review) (chunkResult, error) {
	prompt := buildMapPrompt(def, chunk, c.cfg.MaxQuotesPerTheme)

	retryCfg := llm.RetryConfig{
		MaxRetries:   c.cfg.LLMMaxRetries,
		InitialDelay: c.cfg.LLMRetryInitialDelay,
	}

	payload, err := llm.WithRetry(ctx, retryCfg, func(callCtx context.Context) (string, error) {
		return c.client.Compose(callCtx, prompt)
	})
	if err != nil {
		return chunkResult{}, err
	}

	var result chunkResult
	if err := json.Unmarshal([]byte(llm.ExtractJSON(strings.TrimSpace(payload))), &result); err != nil {
		return chunkResult{}, fmt.Errorf("%w: map response: %.100s", apperrors.ErrMalformedResponse, payload)
	}

	return result, nil
}

// reduceResult is the expected reduce-step response.
type reduceResult struct {
	Title    string   `json:"title"`
	Overview string   `json:"overview"`
	Actions  []string `json:"actions"`
}

// reduce combines theme insights into the final note. On a parse failure the
// call is repeated once with a stricter JSON-only follow-up; a second
// failure fails the week.
func (c *Composer) reduce(ctx context.Context, bucket domain.WeekBucket, insights []themeInsight) (domain.PulseNote, error) {
	prompt := buildReducePrompt(bucket, insights, c.cfg.MaxPulseWords)

	result, err := c.callReduce(ctx, prompt)
	if err != nil {
		c.logger.Warn().Err(err).Time("week_start", bucket.WeekStart).Msg("reduce parse failed, retrying with strict prompt")

		result, err = c.callReduce(ctx, prompt+strictJSONSuffix)
		if err != nil {
			return domain.PulseNote{}, fmt.Errorf("%w: %w", apperrors.ErrComposeFailed, err)
		}
	}

	note := assembleNote(bucket, insights, result)

	return note, nil
}

func (c *Composer) callReduce(ctx context.Context, prompt string) (reduceResult, error) {
	retryCfg := llm.RetryConfig{
		MaxRetries:   c.cfg.LLMMaxRetries,
		InitialDelay: c.cfg.LLMRetryInitialDelay,
	}

	payload, err := llm.WithRetry(ctx, retryCfg, func(callCtx context.Context) (string, error) {
		return c.client.Compose(callCtx, prompt)
	})
	if err != nil {
		return reduceResult{}, err
	}

	var result reduceResult
	if err := json.Unmarshal([]byte(llm.ExtractJSON(strings.TrimSpace(payload))), &result); err != nil {
		return reduceResult{}, fmt.Errorf("%w: reduce response: %.100s", apperrors.ErrMalformedResponse, payload)
	}

	if result.Title == "" || result.Overview == "" {
		return reduceResult{}, fmt.Errorf("%w: reduce response missing title or overview", apperrors.ErrMalformedResponse)
	}

	return result, nil
}

// assembleNote builds the immutable note. The word count is computed from
// the assembled text, never trusted from the model.
func assembleNote(bucket domain.WeekBucket, insights []themeInsight, result reduceResult) domain.PulseNote {
	note := domain.PulseNote{
		WeekStart: domain.NewDate(bucket.WeekStart),
		WeekEnd:   domain.NewDate(bucket.WeekEnd),
		Title:     strings.TrimSpace(result.Title),
		Overview:  strings.TrimSpace(result.Overview),
		Themes:    make([]domain.PulseTheme, 0, len(insights)),
		Quotes:    make([]string, 0),
		Actions:   make([]string, 0, len(result.Actions)),
	}

	for _, insight := range insights {
		note.Themes = append(note.Themes, domain.PulseTheme{
			ThemeID: insight.ThemeID,
			Name:    insight.Name,
			Summary: insight.Summary,
		})
		note.Quotes = append(note.Quotes, insight.Quotes...)
	}

	for _, action := range result.Actions {
		if trimmed := strings.TrimSpace(action); trimmed != "" {
			note.Actions = append(note.Actions, trimmed)
		}
	}

	note.WordCount = countWords(note)

	return note
}

func countWords(note domain.PulseNote) int {
	parts := []string{note.Title, note.Overview}

	for _, theme := range note.Themes {
		parts = append(parts, theme.Summary)
	}

	parts = append(parts, note.Quotes...)
	parts = append(parts, note.Actions...)

	return len(strings.Fields(strings.Join(parts, " ")))
}

func dedupeQuotes(quotes []string, maxQuotes int) []string {
	seen := make(map[string]struct{}, len(quotes))
	out := make([]string, 0, len(quotes))

	for _, quote := range quotes {
		quote = strings.TrimSpace(quote)
		if quote == "" {
			continue
		}

		key := strings.ToLower(quote)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}

		out = append(out, quote)
		if maxQuotes > 0 && len(out) >= maxQuotes {
			break
		}
	}

	return out
}

func chunkReviews(reviews []domain.Review, size int) [][]domain.Review {
	if size <= 0 {
		size = 20
	}

	chunks := make([][]domain.Review, 0, (len(reviews)+size-1)/size)

	for start := 0; start < len(reviews); start += size {
		end := start + size
		if end > len(reviews) {
			end = len(reviews)
		}

		chunks = append(chunks, reviews[start:end])
	}

	return chunks
}

func (c *Composer) concurrency() int {
	if c.cfg.LLMConcurrency > 0 {
		return c.cfg.LLMConcurrency
	}

	return 1
}
