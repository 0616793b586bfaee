package pulse

import (
	"fmt"
	"strings"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	"github.com/reviewpulse/review-pulse/internal/core/themes"
)

const (
	// mapTextLimit caps review text in map prompts. Summaries do not need
	// full rambling reviews.
	mapTextLimit = 300

	mapPromptTemplate = `You are summarizing app-store reviews that were all tagged with the theme "%s" (%s).

Write a 2-3 sentence summary of what these reviews are saying, and pick up to %d short representative quotes (verbatim fragments, no PII).

Return a JSON object of the form:
{"summary": "...", "quotes": ["...", "..."]}

Reviews:
%s

Return only the JSON object, no additional text.`

	reducePromptTemplate = `You are writing a weekly product pulse note for the week %s to %s, based on per-theme summaries of app-store reviews.

Theme summaries:
%s

Write:
- title: a short headline for the week
- overview: 2-4 sentences covering the week as a whole
- actions: up to 3 concrete follow-up ideas for the product team

Keep the whole note under %d words.

Return a JSON object of the form:
{"title": "...", "overview": "...", "actions": ["...", "..."]}

Return only the JSON object, no additional text.`

	strictJSONSuffix = `

IMPORTANT: your previous answer was not valid JSON. Respond with ONLY the JSON object, nothing else. No markdown fences, no commentary.`
)

func buildMapPrompt(def themes.Definition, reviews []domain.Review, maxQuotes int) string {
	return fmt.Sprintf(mapPromptTemplate, def.Name, def.Description, maxQuotes, formatReviews(reviews))
}

func buildReducePrompt(bucket domain.WeekBucket, insights []themeInsight, maxWords int) string {
	blocks := make([]string, 0, len(insights))

	for _, insight := range insights {
		blocks = append(blocks, fmt.Sprintf("%s (%d reviews): %s", insight.Name, insight.Reviews, insight.Summary))
	}

	return fmt.Sprintf(
		reducePromptTemplate,
		bucket.WeekStart.Format("2006-01-02"),
		bucket.WeekEnd.Format("2006-01-02"),
		strings.Join(blocks, "\n"),
		maxWords,
	)
}

func formatReviews(reviews []domain.Review) string {
	blocks := make([]string, 0, len(reviews))

	for _, review := range reviews {
		blocks = append(blocks, fmt.Sprintf("- (%d/5) %s", review.Rating, truncate(review.Text, mapTextLimit)))
	}

	return strings.Join(blocks, "\n")
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	return string(runes[:limit]) + "..."
}
