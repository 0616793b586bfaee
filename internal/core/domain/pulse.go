package domain

import "time"

// PulseTheme is one theme section of a weekly pulse note.
type PulseTheme struct {
	ThemeID string `json:"theme_id"`
	Name    string `json:"name"`
	Summary string `json:"summary"`
}

// PulseNote is the composed weekly summary artifact. Immutable once written;
// a re-run may overwrite the same week's file wholesale.
type PulseNote struct {
	WeekStart Date         `json:"week_start"`
	WeekEnd   Date         `json:"week_end"`
	Title     string       `json:"title"`
	Overview  string       `json:"overview"`
	Themes    []PulseTheme `json:"themes"`
	Quotes    []string     `json:"quotes"`
	Actions   []string     `json:"actions"`
	WordCount int          `json:"word_count"`
}

// WeekStatus is the per-week outcome of a pipeline run.
type WeekStatus string

const (
	WeekComposed WeekStatus = "composed"
	WeekSkipped  WeekStatus = "skipped"
	WeekFailed   WeekStatus = "failed"
)

// WeekOutcome records what happened to one week bucket during a run.
type WeekOutcome struct {
	WeekStart Date       `json:"week_start"`
	Status    WeekStatus `json:"status"`
	Reviews   int        `json:"reviews"`
	Reason    string     `json:"reason,omitempty"`
}

// RunSummary is the user-visible completion report of a single pipeline run.
type RunSummary struct {
	RunID         string        `json:"run_id"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	RawReviews    int           `json:"raw_reviews"`
	Normalized    int           `json:"normalized"`
	Classified    int           `json:"classified"`
	Unclassified  int           `json:"unclassified"`
	Weeks         []WeekOutcome `json:"weeks"`
	ComposedWeeks int           `json:"composed_weeks"`
	SkippedWeeks  int           `json:"skipped_weeks"`
	FailedWeeks   int           `json:"failed_weeks"`
}
