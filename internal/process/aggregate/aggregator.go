// Package aggregate rolls per-review classifications into the cumulative
// ThemeAggregation document.
package aggregate

import (
	"sort"
	"time"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
)

// DocumentVersion is bumped when the aggregation file layout changes.
const DocumentVersion = 1

// CountBucket computes per-theme counts for one week bucket. Suggested-theme
// assignments cannot occur here by construction (the classifier only emits
// fixed or unclassified), but the tagged union is still checked so discovery
// output can never leak into counts.
func CountBucket(bucket domain.WeekBucket, classifications []domain.Classification) domain.WeeklyCount {
	counts := make(map[string]int)
	total := 0

	for _, cls := range classifications {
		if !cls.Theme.CountsTowardAggregation() {
			continue
		}

		counts[cls.Theme.ID]++
		total++
	}

	return domain.WeeklyCount{
		WeekStart:    domain.NewDate(bucket.WeekStart),
		WeekEnd:      domain.NewDate(bucket.WeekEnd),
		ThemeCounts:  counts,
		TotalReviews: total,
	}
}

// Merge folds a new weekly entry into an existing aggregation document and
// returns the updated document. An entry with the same week_start is
// replaced wholesale, never partially merged, so reprocessing a week cannot
// double-count. Overall counts and the top-themes ranking are recomputed
// from scratch to stay consistent under replacement. Pure function: the
// input document is not mutated.
func Merge(existing domain.ThemeAggregation, entry domain.WeeklyCount, now time.Time) domain.ThemeAggregation {
	weekly := make([]domain.WeeklyCount, 0, len(existing.WeeklyCounts)+1)
	replaced := false

	for _, wc := range existing.WeeklyCounts {
		if wc.WeekStart.Equal(entry.WeekStart.Time) {
			weekly = append(weekly, entry)
			replaced = true

			continue
		}

		weekly = append(weekly, wc)
	}

	if !replaced {
		weekly = append(weekly, entry)
	}

	sort.Slice(weekly, func(i, j int) bool {
		return weekly[i].WeekStart.Before(weekly[j].WeekStart.Time)
	})

	overall := make(map[string]int)

	for _, wc := range weekly {
		for themeID, count := range wc.ThemeCounts {
			overall[themeID] += count
		}
	}

	return domain.ThemeAggregation{
		Version:      DocumentVersion,
		GeneratedAt:  now.UTC(),
		WeeklyCounts: weekly,
		Overall:      overall,
		TopThemes:    rankThemes(overall),
	}
}

// rankThemes sorts overall counts descending, theme id ascending on ties.
// The unclassified bucket stays in overall_counts but is excluded from the
// ranking.
func rankThemes(overall map[string]int) []domain.ThemeCount {
	ranked := make([]domain.ThemeCount, 0, len(overall))

	for themeID, count := range overall {
		if themeID == domain.UnclassifiedThemeID {
			continue
		}

		ranked = append(ranked, domain.ThemeCount{ThemeID: themeID, Count: count})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}

		return ranked[i].ThemeID < ranked[j].ThemeID
	})

	return ranked
}
