package domain

// ThemeKind distinguishes how a theme assignment should be treated downstream.
// Only fixed themes and the unclassified bucket may enter aggregation counts;
// suggested themes are analysis-only and live in a side artifact.
type ThemeKind int

const (
	ThemeUnclassified ThemeKind = iota
	ThemeFixed
	ThemeSuggested
)

// Pass identifies which classification cycle produced an assignment.
type Pass string

const (
	// PassHeuristic means a keyword match assigned the theme without an LLM call.
	PassHeuristic Pass = "heuristic"
	// PassFirst is the first LLM pass, where unclassified is an allowed output.
	PassFirst Pass = "first"
	// PassSecond is the forced-assignment LLM pass over first-pass leftovers.
	PassSecond Pass = "second"
)

// ThemeAssignment is a tagged union of fixed theme, suggested theme, or
// unclassified.
type ThemeAssignment struct {
	Kind ThemeKind
	ID   string
}

// Unclassified returns the terminal fallback assignment.
func Unclassified() ThemeAssignment {
	return ThemeAssignment{Kind: ThemeUnclassified, ID: UnclassifiedThemeID}
}

// FixedTheme returns an assignment to one of the fixed themes.
func FixedTheme(id string) ThemeAssignment {
	return ThemeAssignment{Kind: ThemeFixed, ID: id}
}

// SuggestedTheme returns an assignment to an LLM-proposed theme.
func SuggestedTheme(id string) ThemeAssignment {
	return ThemeAssignment{Kind: ThemeSuggested, ID: id}
}

// CountsTowardAggregation reports whether the assignment may be folded into
// the aggregation counts.
func (a ThemeAssignment) CountsTowardAggregation() bool {
	return a.Kind != ThemeSuggested
}

// UnclassifiedThemeID is the terminal fallback theme id.
const UnclassifiedThemeID = "unclassified"

// Classification is the result of classifying a single review.
// At most one classification exists per review per run.
type Classification struct {
	ReviewID   string
	Theme      ThemeAssignment
	ThemeName  string
	Reason     string
	Confidence float64
	Pass       Pass
}
