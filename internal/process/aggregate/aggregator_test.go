package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
)

func week(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func entry(start time.Time, counts map[string]int) domain.WeeklyCount {
	total := 0
	for _, c := range counts {
		total += c
	}

	return domain.WeeklyCount{
		WeekStart:    domain.NewDate(start),
		WeekEnd:      domain.NewDate(start.AddDate(0, 0, 7)),
		ThemeCounts:  counts,
		TotalReviews: total,
	}
}

func TestCountBucket(t *testing.T) {
	bucket := domain.WeekBucket{WeekStart: week(2), WeekEnd: week(9)}

	classifications := []domain.Classification{
		{ReviewID: "r1", Theme: domain.FixedTheme("payments"), Pass: domain.PassHeuristic},
		{ReviewID: "r2", Theme: domain.FixedTheme("payments"), Pass: domain.PassFirst},
		{ReviewID: "r3", Theme: domain.Unclassified(), Pass: domain.PassFirst},
		{ReviewID: "r4", Theme: domain.SuggestedTheme("dark_mode"), Pass: domain.PassFirst},
	}

	wc := CountBucket(bucket, classifications)

	assert.Equal(t, map[string]int{"payments": 2, "unclassified": 1}, wc.ThemeCounts)
	assert.Equal(t, 3, wc.TotalReviews, "suggested themes never enter aggregation")
}

func TestMerge_AddsAndReplaces(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	agg := Merge(domain.ThemeAggregation{}, entry(week(2), map[string]int{"payments": 3, "glitches": 2}), now)
	agg = Merge(agg, entry(week(9), map[string]int{"payments": 1, "fees": 4}), now)

	require.Len(t, agg.WeeklyCounts, 2)
	assert.Equal(t, map[string]int{"payments": 4, "glitches": 2, "fees": 4}, agg.Overall)

	// Replacing week(2) must not double-count.
	agg = Merge(agg, entry(week(2), map[string]int{"payments": 1, "slow": 5}), now)

	require.Len(t, agg.WeeklyCounts, 2)
	assert.Equal(t, map[string]int{"payments": 2, "fees": 4, "slow": 5}, agg.Overall)

	// overall_counts stays the column sum of weekly_counts for every theme.
	recomputed := map[string]int{}
	for _, wc := range agg.WeeklyCounts {
		for id, count := range wc.ThemeCounts {
			recomputed[id] += count
		}
	}

	assert.Equal(t, recomputed, agg.Overall)
}

func TestMerge_TopThemesRanking(t *testing.T) {
	now := time.Now()

	agg := Merge(domain.ThemeAggregation{}, entry(week(2), map[string]int{
		"payments":     3,
		"glitches":     3,
		"fees":         1,
		"unclassified": 7,
	}), now)

	require.Len(t, agg.TopThemes, 3, "unclassified is excluded from the ranking")
	assert.Equal(t, domain.ThemeCount{ThemeID: "glitches", Count: 3}, agg.TopThemes[0], "ties break by theme id")
	assert.Equal(t, domain.ThemeCount{ThemeID: "payments", Count: 3}, agg.TopThemes[1])
	assert.Equal(t, domain.ThemeCount{ThemeID: "fees", Count: 1}, agg.TopThemes[2])

	assert.Equal(t, 7, agg.Overall["unclassified"], "unclassified stays in overall counts")
}

func TestMerge_DoesNotMutateInput(t *testing.T) {
	now := time.Now()
	original := Merge(domain.ThemeAggregation{}, entry(week(2), map[string]int{"fees": 1}), now)

	_ = Merge(original, entry(week(2), map[string]int{"fees": 9}), now)

	assert.Equal(t, 1, original.Overall["fees"])
	assert.Equal(t, 1, original.WeeklyCounts[0].ThemeCounts["fees"])
}

func TestMerge_SortsWeeksAscending(t *testing.T) {
	now := time.Now()

	agg := Merge(domain.ThemeAggregation{}, entry(week(16), map[string]int{"fees": 1}), now)
	agg = Merge(agg, entry(week(2), map[string]int{"fees": 1}), now)
	agg = Merge(agg, entry(week(9), map[string]int{"fees": 1}), now)

	require.Len(t, agg.WeeklyCounts, 3)
	assert.True(t, agg.WeeklyCounts[0].WeekStart.Before(agg.WeeklyCounts[1].WeekStart.Time))
	assert.True(t, agg.WeeklyCounts[1].WeekStart.Before(agg.WeeklyCounts[2].WeekStart.Time))
}
