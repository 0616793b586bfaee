package classifier

import (
	"fmt"
	"strings"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	"github.com/reviewpulse/review-pulse/internal/core/themes"
)

const (
	// promptTextLimit caps review text in classification prompts to avoid
	// token blowups on rambling reviews.
	promptTextLimit = 400

	classificationPromptHeader = `You are tagging app-store reviews into at most %d themes.

Allowed themes:
%s
`

	classificationPromptAllowUnclassified = `
If a review does not clearly fit any theme, set chosen_theme to "unclassified".
`

	classificationPromptForbidUnclassified = `
Every review MUST be assigned to exactly one of the themes above. Pick the
closest theme even when the fit is imperfect. "unclassified" is NOT a valid
answer.
`

	classificationPromptFooter = `
For each review, output:
- review_id: the exact review_id from the input
- chosen_theme: exactly one theme ID from the list above (must be one of: %s)
- short_reason: 1 sentence explaining why this theme was chosen (no PII, no personal information)

Return a JSON object of the form:
{"reviews": [{"review_id": "...", "chosen_theme": "...", "short_reason": "..."}]}

Reviews:
%s

Return only the JSON object, no additional text.`
)

// buildClassificationPrompt renders the prompt for one batch. When
// allowUnclassified is false the unclassified escape hatch is removed and the
// model is told to force-assign (second pass).
func buildClassificationPrompt(reviews []domain.Review, allowUnclassified bool) string {
	ids := themes.ClassifiableIDs()
	if allowUnclassified {
		ids = themes.IDs()
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(classificationPromptHeader, len(ids), formatThemeList(ids)))

	if allowUnclassified {
		sb.WriteString(classificationPromptAllowUnclassified)
	} else {
		sb.WriteString(classificationPromptForbidUnclassified)
	}

	sb.WriteString(fmt.Sprintf(classificationPromptFooter, strings.Join(ids, ", "), formatReviews(reviews)))

	return sb.String()
}

func formatThemeList(ids []string) string {
	lines := make([]string, 0, len(ids))

	for i, id := range ids {
		def := themes.ByID(id)
		lines = append(lines, fmt.Sprintf("%d. %s (%s) - %s", i+1, def.Name, def.ID, def.Description))
	}

	return strings.Join(lines, "\n")
}

func formatReviews(reviews []domain.Review) string {
	blocks := make([]string, 0, len(reviews))

	for _, review := range reviews {
		blocks = append(blocks, fmt.Sprintf(
			"review_id: %s\nrating: %d/5\ntext: %s",
			review.ID, review.Rating, truncate(review.Text, promptTextLimit),
		))
	}

	return strings.Join(blocks, "\n\n---\n\n")
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "..."
}
