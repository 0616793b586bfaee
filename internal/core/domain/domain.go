package domain

import "time"

// RawReview is a review record as delivered by the store scraper.
// Date is kept as the raw string; the normalizer parses and validates it.
type RawReview struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Rating int    `json:"rating"`
	Date   string `json:"date"`
	Author string `json:"author"`
}

// Review is a normalized, deduplicated review. Immutable once produced
// by the normalizer.
type Review struct {
	ID        string
	Text      string
	Rating    int
	Timestamp time.Time
	Author    string
}

// WeekBucket is a half-open seven-day window of reviews.
// Every review satisfies WeekStart <= Timestamp < WeekEnd.
type WeekBucket struct {
	WeekStart time.Time
	WeekEnd   time.Time
	Reviews   []Review
}

// Qualifies reports whether the bucket has enough reviews for pulse composition.
func (b WeekBucket) Qualifies(minReviews int) bool {
	return len(b.Reviews) >= minReviews
}
