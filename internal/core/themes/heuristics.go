package themes

import "regexp"

// heuristicPatterns maps each fixed theme to keyword patterns that indicate
// it strongly enough to skip the LLM call. Order of evaluation follows
// heuristicOrder so matches are deterministic when several themes fire.
var heuristicPatterns = map[string][]*regexp.Regexp{
	"customer_support": compileAll(
		`customer support`,
		`support team`,
		`call ?back`,
		`contacted support`,
		`ticket`,
		`agent`,
		`on[-\s]?board`,
		`onboarding`,
		`\bkyc\b`,
		`know your customer`,
		`verification`,
		`re[-\s]?kyc`,
		`e-?kyc`,
	),
	"payments": compileAll(
		`payment`,
		`payout`,
		`withdraw`,
		`withdrawal`,
		`deposit`,
		`\bupi\b`,
		`autopay`,
		`transfer`,
		`\bbank\b`,
		`statement`,
		`passbook`,
		`settlement`,
		`refund`,
		`redeem`,
	),
	"fees": compileAll(
		`\bfees?\b`,
		`charges?`,
		`commission`,
		`deduct`,
		`charged`,
		`\btax\b`,
	),
	"glitches": compileAll(
		`\bbug\b`,
		`error`,
		`glitch`,
		`crash`,
		`issue`,
		`fail(ed)?`,
		`not working`,
		`incorrect`,
	),
	"slow": compileAll(
		`\bslow\b`,
		`\blag\b`,
		`buffer`,
		`loading`,
		`\bhang\b`,
		`delay`,
	),
}

// heuristicOrder resolves ties when a review matches several themes.
// More specific financial themes are checked before generic ones.
var heuristicOrder = []string{"customer_support", "payments", "fees", "glitches", "slow"}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))

	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}

	return compiled
}

// MatchHeuristic returns the first theme whose keyword table accumulates at
// least minMatches distinct pattern hits in text, or "" when no theme
// qualifies. minMatches below 1 is treated as 1.
func MatchHeuristic(text string, minMatches int) string {
	if minMatches < 1 {
		minMatches = 1
	}

	for _, themeID := range heuristicOrder {
		hits := 0

		for _, pattern := range heuristicPatterns[themeID] {
			if pattern.MatchString(text) {
				hits++
				if hits >= minMatches {
					return themeID
				}
			}
		}
	}

	return ""
}
