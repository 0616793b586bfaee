package domain

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day serialized as YYYY-MM-DD in artifacts.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	u := t.UTC()

	return Date{Time: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)

	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return fmt.Errorf("parsing date %q: %w", raw, err)
	}

	d.Time = parsed

	return nil
}

// WeeklyCount holds per-theme counts for one week bucket.
type WeeklyCount struct {
	WeekStart    Date           `json:"week_start"`
	WeekEnd      Date           `json:"week_end"`
	ThemeCounts  map[string]int `json:"theme_counts"`
	TotalReviews int            `json:"total_reviews"`
}

// ThemeCount is one entry of the ranked top-themes list.
type ThemeCount struct {
	ThemeID string `json:"theme_id"`
	Count   int    `json:"count"`
}

// ThemeAggregation is the cumulative per-theme count state across all
// processed weeks. It is the single source of truth for the dashboard and is
// persisted as theme_aggregation.json. Callers own persistence; the
// aggregator only transforms documents.
type ThemeAggregation struct {
	Version      int            `json:"version"`
	GeneratedAt  time.Time      `json:"generated_at"`
	WeeklyCounts []WeeklyCount  `json:"weekly_counts"`
	Overall      map[string]int `json:"overall_counts"`
	TopThemes    []ThemeCount   `json:"top_themes"`
}

// SuggestedThemeRecord is one discovery-pass proposal, recorded to the
// llm_suggested_themes.json side artifact. MappedTo is set when the proposal
// overlaps an existing fixed theme.
type SuggestedThemeRecord struct {
	ThemeID     string   `json:"theme_id"`
	ThemeName   string   `json:"theme_name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	MappedTo    string   `json:"mapped_to_predefined,omitempty"`
	Confidence  float64  `json:"confidence"`
}
