// Package themes holds the fixed theme taxonomy reviews are classified into,
// plus the keyword heuristics used to short-circuit LLM classification.
package themes

import "sort"

// Definition describes one fixed theme.
type Definition struct {
	ID          string
	Name        string
	Description string
}

// DefaultThemeID is the terminal fallback for invalid or empty classifications.
const DefaultThemeID = "unclassified"

// Fixed is the fixed theme taxonomy. The unclassified entry is part of the
// table so prompts and lookups treat it uniformly, but it is never offered
// in the second classification pass.
var Fixed = map[string]Definition{
	"customer_support": {
		ID:          "customer_support",
		Name:        "Customer Support",
		Description: "Support responsiveness, callbacks, issue resolution timelines, and customer service quality.",
	},
	"payments": {
		ID:          "payments",
		Name:        "Payments",
		Description: "Deposits, withdrawals, UPI/Autopay failures, settlement delays, and transaction reliability.",
	},
	"fees": {
		ID:          "fees",
		Name:        "Fees & Charges",
		Description: "Brokerage, hidden charges, deductions, taxation concerns, and financial transparency.",
	},
	"glitches": {
		ID:          "glitches",
		Name:        "Glitches & Bugs",
		Description: "Crashes, broken features, order placement errors, incorrect balances, and functional defects.",
	},
	"slow": {
		ID:          "slow",
		Name:        "Slow Performance",
		Description: "Lag, loading delays, buffering, login slowness, and general performance complaints.",
	},
	DefaultThemeID: {
		ID:          DefaultThemeID,
		Name:        "Unclassified",
		Description: "Used when the classifier or heuristics cannot confidently map the review to a defined theme.",
	},
}

// ByID returns the definition for id, falling back to the unclassified theme.
func ByID(id string) Definition {
	if def, ok := Fixed[id]; ok {
		return def
	}

	return Fixed[DefaultThemeID]
}

// IsFixed reports whether id is a classifiable fixed theme (unclassified
// excluded).
func IsFixed(id string) bool {
	_, ok := Fixed[id]

	return ok && id != DefaultThemeID
}

// IDs returns all theme ids in deterministic order, unclassified last.
func IDs() []string {
	ids := make([]string, 0, len(Fixed))

	for id := range Fixed {
		if id == DefaultThemeID {
			continue
		}

		ids = append(ids, id)
	}

	sort.Strings(ids)

	return append(ids, DefaultThemeID)
}

// ClassifiableIDs returns the fixed theme ids without unclassified, in
// deterministic order. Used for the forced second pass.
func ClassifiableIDs() []string {
	ids := IDs()

	return ids[:len(ids)-1]
}
