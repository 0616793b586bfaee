package ingest

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	"github.com/reviewpulse/review-pulse/internal/platform/observability"
)

const (
	dropReasonMissingField = "missing_field"
	dropReasonBadRating    = "bad_rating"
	dropReasonBadDate      = "bad_date"
	dropReasonDuplicateID  = "duplicate_id"
	dropReasonTooShort     = "too_short"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)

	// Best-effort PII patterns. Downstream consumers must not assume zero PII.
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?\d[\d\-\s]{8,}\d)`)
	idPattern    = regexp.MustCompile(`\b[A-Z]{2,4}\d{6,}\b`)
)

// Normalizer turns raw scraper records into deduplicated, cleaned Reviews.
// It is a pure function over its input: no side effects beyond metrics.
type Normalizer struct {
	minTextLen int
	logger     *zerolog.Logger
}

// NewNormalizer creates a Normalizer. minTextLen is the minimum trimmed text
// length for a review to survive; shorter reviews are treated as noise.
func NewNormalizer(minTextLen int, logger *zerolog.Logger) *Normalizer {
	return &Normalizer{
		minTextLen: minTextLen,
		logger:     logger,
	}
}

// Normalize validates, cleans, redacts, and deduplicates the batch.
// Malformed records are dropped, never fatal. Duplicate ids keep the first
// occurrence by input order.
func (n *Normalizer) Normalize(records []domain.RawReview) []domain.Review {
	seen := make(map[string]struct{}, len(records))
	reviews := make([]domain.Review, 0, len(records))

	for _, record := range records {
		review, reason := n.normalizeOne(record)
		if reason == "" {
			if _, dup := seen[review.ID]; dup {
				reason = dropReasonDuplicateID
			}
		}

		if reason != "" {
			observability.ReviewsDropped.WithLabelValues(reason).Inc()
			n.logger.Debug().Str("review_id", record.ID).Str("reason", reason).Msg("dropping raw review")

			continue
		}

		seen[review.ID] = struct{}{}
		reviews = append(reviews, review)
		observability.ReviewsNormalized.Inc()
	}

	return reviews
}

func (n *Normalizer) normalizeOne(record domain.RawReview) (domain.Review, string) {
	if record.ID == "" || record.Date == "" {
		return domain.Review{}, dropReasonMissingField
	}

	if record.Rating < 1 || record.Rating > 5 {
		return domain.Review{}, dropReasonBadRating
	}

	ts, err := parseTimestamp(record.Date)
	if err != nil {
		return domain.Review{}, dropReasonBadDate
	}

	text := CleanText(record.Text)
	if len([]rune(text)) < n.minTextLen {
		return domain.Review{}, dropReasonTooShort
	}

	return domain.Review{
		ID:        record.ID,
		Text:      text,
		Rating:    record.Rating,
		Timestamp: ts,
		Author:    strings.TrimSpace(record.Author),
	}, ""
}

// CleanText collapses whitespace runs, trims ends, and redacts PII-like
// substrings.
func CleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = emailPattern.ReplaceAllString(text, "[email]")
	text = phonePattern.ReplaceAllString(text, "[phone]")
	text = idPattern.ReplaceAllString(text, "[id]")

	return text
}

// parseTimestamp accepts ISO-8601 first and degrades to loose parsing since
// store exports vary in date formatting.
func parseTimestamp(raw string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts.UTC(), nil
	}

	ts, err := dateparse.ParseAny(raw)
	if err != nil {
		return time.Time{}, err
	}

	return ts.UTC(), nil
}
