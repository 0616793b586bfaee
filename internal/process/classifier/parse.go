package classifier

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/reviewpulse/review-pulse/internal/core/errors"
	"github.com/reviewpulse/review-pulse/internal/core/llm"
	"github.com/reviewpulse/review-pulse/internal/core/themes"
)

// batchItem is one element of the model's classification response.
type batchItem struct {
	ReviewID    string `json:"review_id"`
	ChosenTheme string `json:"chosen_theme"`
	ShortReason string `json:"short_reason"`
}

// batchResponse is the expected response envelope. A bare array is also
// accepted since models drift on envelope shape.
type batchResponse struct {
	Reviews []batchItem `json:"reviews"`
}

// parseBatchResponse hardens against prose wrapping, fenced JSON, bare
// arrays, and single-object responses. Returns ErrMalformedResponse when no
// items can be recovered at all.
func parseBatchResponse(payload string) ([]batchItem, error) {
	cleaned := llm.ExtractJSON(strings.TrimSpace(payload))

	var items []batchItem
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, nil
	}

	var envelope batchResponse
	if err := json.Unmarshal([]byte(cleaned), &envelope); err == nil && envelope.Reviews != nil {
		return envelope.Reviews, nil
	}

	var single batchItem
	if err := json.Unmarshal([]byte(cleaned), &single); err == nil && single.ReviewID != "" {
		return []batchItem{single}, nil
	}

	return nil, fmt.Errorf("%w: %.100s", apperrors.ErrMalformedResponse, cleaned)
}

// resolveThemeID normalizes a model-chosen theme id onto the fixed set.
// Exact match wins; then substring fuzzy matching either way; otherwise the
// default theme. The bool reports whether a fixed theme was resolved.
func resolveThemeID(raw string) (string, bool) {
	id := strings.ToLower(strings.TrimSpace(raw))
	if id == "" {
		return themes.DefaultThemeID, false
	}

	if themes.IsFixed(id) {
		return id, true
	}

	if id == themes.DefaultThemeID {
		return themes.DefaultThemeID, false
	}

	for _, fixedID := range themes.ClassifiableIDs() {
		if strings.Contains(id, fixedID) || strings.Contains(fixedID, id) {
			return fixedID, true
		}
	}

	return themes.DefaultThemeID, false
}
