package themes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchHeuristic(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		minMatches int
		want       string
	}{
		{name: "payments keyword", text: "my withdrawal has been pending for a week", minMatches: 1, want: "payments"},
		{name: "support keyword", text: "KYC verification stuck, no callback from anyone", minMatches: 1, want: "customer_support"},
		{name: "support wins over payments by order", text: "contacted support about my deposit", minMatches: 1, want: "customer_support"},
		{name: "slow keyword", text: "charts keep loading forever on my phone", minMatches: 1, want: "slow"},
		{name: "case insensitive", text: "APP CRASH every morning", minMatches: 1, want: "glitches"},
		{name: "no match", text: "nothing special to report here", minMatches: 1, want: ""},
		{name: "two matches required", text: "refund please", minMatches: 2, want: ""},
		{name: "two matches satisfied", text: "refund of my deposit never arrived", minMatches: 2, want: "payments"},
		{name: "zero treated as one", text: "hidden charges everywhere", minMatches: 0, want: "fees"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchHeuristic(tt.text, tt.minMatches))
		})
	}
}

func TestIDs_UnclassifiedLast(t *testing.T) {
	ids := IDs()

	assert.Equal(t, DefaultThemeID, ids[len(ids)-1])
	assert.Equal(t, []string{"customer_support", "fees", "glitches", "payments", "slow"}, ClassifiableIDs())
}

func TestByID_FallsBackToUnclassified(t *testing.T) {
	assert.Equal(t, DefaultThemeID, ByID("nope").ID)
	assert.False(t, IsFixed(DefaultThemeID))
	assert.True(t, IsFixed("payments"))
}
