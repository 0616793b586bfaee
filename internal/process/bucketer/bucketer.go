// Package bucketer partitions normalized reviews into non-overlapping
// week-long buckets.
package bucketer

import (
	"sort"
	"time"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	apperrors "github.com/reviewpulse/review-pulse/internal/core/errors"
)

const daysPerWeek = 7

// Bucket partitions reviews into contiguous half-open seven-day buckets
// covering [rangeStart, rangeEnd). A review belongs to bucket
// floor((timestamp - rangeStart) / 7d). Reviews outside the range are
// ignored. Bucket boundaries depend only on rangeStart, so re-running with
// the same range reproduces identical buckets.
func Bucket(reviews []domain.Review, rangeStart, rangeEnd time.Time) ([]domain.WeekBucket, error) {
	rangeStart = rangeStart.UTC().Truncate(24 * time.Hour)
	rangeEnd = rangeEnd.UTC()

	if !rangeStart.Before(rangeEnd) {
		return nil, apperrors.ErrInvalidDateRange
	}

	weekCount := int(rangeEnd.Sub(rangeStart).Hours()/(daysPerWeek*24)) + 1

	buckets := make([]domain.WeekBucket, 0, weekCount)

	for i := 0; i < weekCount; i++ {
		start := rangeStart.AddDate(0, 0, i*daysPerWeek)
		if !start.Before(rangeEnd) {
			break
		}

		buckets = append(buckets, domain.WeekBucket{
			WeekStart: start,
			WeekEnd:   start.AddDate(0, 0, daysPerWeek),
		})
	}

	for _, review := range reviews {
		ts := review.Timestamp.UTC()
		if ts.Before(rangeStart) || !ts.Before(rangeEnd) {
			continue
		}

		idx := int(ts.Sub(rangeStart).Hours() / (daysPerWeek * 24))
		if idx < 0 || idx >= len(buckets) {
			continue
		}

		buckets[idx].Reviews = append(buckets[idx].Reviews, review)
	}

	// Stable order inside each bucket so re-runs are byte-identical.
	for i := range buckets {
		sort.SliceStable(buckets[i].Reviews, func(a, b int) bool {
			ra, rb := buckets[i].Reviews[a], buckets[i].Reviews[b]
			if !ra.Timestamp.Equal(rb.Timestamp) {
				return ra.Timestamp.Before(rb.Timestamp)
			}

			return ra.ID < rb.ID
		})
	}

	return buckets, nil
}

// NonEmpty filters out buckets with no reviews at all. Buckets below the
// pulse threshold are kept; they still contribute to aggregation counts.
func NonEmpty(buckets []domain.WeekBucket) []domain.WeekBucket {
	kept := make([]domain.WeekBucket, 0, len(buckets))

	for _, b := range buckets {
		if len(b.Reviews) > 0 {
			kept = append(kept, b)
		}
	}

	return kept
}
