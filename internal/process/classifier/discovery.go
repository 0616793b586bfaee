package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	apperrors "github.com/reviewpulse/review-pulse/internal/core/errors"
	"github.com/reviewpulse/review-pulse/internal/core/llm"
	"github.com/reviewpulse/review-pulse/internal/core/themes"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
)

const (
	discoveryTextLimit = 300
	discoveryMaxThemes = 4

	discoveryPrompt = `Analyze the following app reviews and identify exactly %d distinct themes/categories.

Reviews sample:
%s

For each theme, provide:
- theme_id: short lowercase identifier (e.g., "app_crashes", "payment_delays", "ui_navigation")
- theme_name: human-readable name (2-4 words)
- description: 1-2 sentences explaining what this theme covers
- keywords: list of 3-5 keywords that indicate this theme

Return JSON:
{"themes": [{"theme_id": "...", "theme_name": "...", "description": "...", "keywords": ["..."]}]}

Important constraints:
- Themes must be distinct and non-overlapping
- Focus on the most common and impactful issues

Return only the JSON object, no additional text.`
)

var themeIDSanitizer = regexp.MustCompile(`[^a-z0-9_]`)

// Discovery periodically samples reviews and asks the model to propose
// candidate themes. Proposals are analysis-only: they are recorded to a side
// artifact and never replace the fixed taxonomy in aggregation.
type Discovery struct {
	cfg    *config.Config
	client llm.Client
	logger *zerolog.Logger

	// rng is injectable for deterministic tests.
	rng *rand.Rand
}

func NewDiscovery(cfg *config.Config, client llm.Client, logger *zerolog.Logger) *Discovery {
	return &Discovery{
		cfg:    cfg,
		client: client,
		logger: logger,
		rng:    rand.New(rand.NewSource(rand.Int63())), //nolint:gosec // sampling, not crypto
	}
}

type discoveredTheme struct {
	ThemeID     string   `json:"theme_id"`
	ThemeName   string   `json:"theme_name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

type discoveryResponse struct {
	Themes []discoveredTheme `json:"themes"`
}

// Discover samples reviews, proposes candidate themes via the model, maps
// them onto the fixed taxonomy, and returns proposals above the confidence
// threshold. Failures return an empty slice: discovery is best-effort and
// never blocks the run.
func (d *Discovery) Discover(ctx context.Context, reviews []domain.Review) []domain.SuggestedThemeRecord {
	if len(reviews) == 0 {
		return nil
	}

	sampled := d.sample(reviews, d.cfg.DiscoverySampleSize)
	prompt := fmt.Sprintf(discoveryPrompt, d.maxThemes(), formatDiscoveryReviews(sampled))

	payload, err := d.client.Classify(ctx, prompt)
	if err != nil {
		d.logger.Warn().Err(err).Msg("theme discovery call failed")

		return nil
	}

	proposals, err := parseDiscoveryResponse(payload)
	if err != nil {
		d.logger.Warn().Err(err).Msg("theme discovery response unparseable")

		return nil
	}

	if len(proposals) > d.maxThemes() {
		proposals = proposals[:d.maxThemes()]
	}

	titleCaser := cases.Title(language.English)
	records := make([]domain.SuggestedThemeRecord, 0, len(proposals))

	for _, proposal := range proposals {
		mappedTo, confidence := mapToFixedTheme(proposal)
		if confidence < d.cfg.DiscoveryMinConfidence {
			mappedTo = ""
		}

		records = append(records, domain.SuggestedThemeRecord{
			ThemeID:     proposal.ThemeID,
			ThemeName:   titleCaser.String(proposal.ThemeName),
			Description: proposal.Description,
			Keywords:    proposal.Keywords,
			MappedTo:    mappedTo,
			Confidence:  confidence,
		})
	}

	return records
}

// sample draws up to n reviews, stratified by rating so one-star floods do
// not drown out the rest.
func (d *Discovery) sample(reviews []domain.Review, n int) []domain.Review {
	if n <= 0 || len(reviews) <= n {
		return reviews
	}

	byRating := make(map[int][]domain.Review)
	for _, review := range reviews {
		byRating[review.Rating] = append(byRating[review.Rating], review)
	}

	ratings := make([]int, 0, len(byRating))
	for rating := range byRating {
		ratings = append(ratings, rating)
	}

	sort.Ints(ratings)

	sampled := make([]domain.Review, 0, n)

	for _, rating := range ratings {
		group := byRating[rating]

		count := max(1, n*len(group)/len(reviews))
		if count > len(group) {
			count = len(group)
		}

		d.rng.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		sampled = append(sampled, group[:count]...)
	}

	if len(sampled) > n {
		sampled = sampled[:n]
	}

	return sampled
}

func (d *Discovery) maxThemes() int {
	if d.cfg.DiscoveryMaxThemes > 0 {
		return d.cfg.DiscoveryMaxThemes
	}

	return discoveryMaxThemes
}

func formatDiscoveryReviews(reviews []domain.Review) string {
	lines := make([]string, 0, len(reviews))

	for i, review := range reviews {
		lines = append(lines, fmt.Sprintf("Review %d (Rating: %d/5):\n%s",
			i+1, review.Rating, truncate(review.Text, discoveryTextLimit)))
	}

	return strings.Join(lines, "\n\n")
}

func parseDiscoveryResponse(payload string) ([]discoveredTheme, error) {
	cleaned := llm.ExtractJSON(strings.TrimSpace(payload))

	var resp discoveryResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, fmt.Errorf("%w: %.100s", apperrors.ErrMalformedResponse, cleaned)
	}

	proposals := make([]discoveredTheme, 0, len(resp.Themes))

	for i, theme := range resp.Themes {
		theme.ThemeID = sanitizeThemeID(theme.ThemeID, i)
		theme.ThemeName = strings.TrimSpace(theme.ThemeName)

		if theme.ThemeName == "" {
			continue
		}

		proposals = append(proposals, theme)
	}

	return proposals, nil
}

func sanitizeThemeID(id string, ordinal int) string {
	id = strings.ToLower(strings.TrimSpace(id))
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, "-", "_")
	id = themeIDSanitizer.ReplaceAllString(id, "")

	if id == "" {
		id = fmt.Sprintf("theme_%d", ordinal+1)
	}

	return id
}

// mapToFixedTheme scores word overlap between the proposal and each fixed
// theme's name and description, returning the best fixed theme and a
// Jaccard-style confidence in [0, 1].
func mapToFixedTheme(proposal discoveredTheme) (string, float64) {
	proposalWords := wordSet(proposal.ThemeName + " " + proposal.Description)
	for _, kw := range proposal.Keywords {
		proposalWords[strings.ToLower(kw)] = struct{}{}
	}

	bestID := ""
	bestScore := 0.0

	for _, fixedID := range themes.ClassifiableIDs() {
		def := themes.ByID(fixedID)
		fixedWords := wordSet(def.Name + " " + def.Description)

		intersection := 0

		for word := range proposalWords {
			if _, ok := fixedWords[word]; ok {
				intersection++
			}
		}

		union := len(proposalWords) + len(fixedWords) - intersection
		if union == 0 {
			continue
		}

		score := float64(intersection) / float64(union)

		// Direct keyword hits are a stronger signal than description overlap.
		for _, kw := range proposal.Keywords {
			if _, ok := fixedWords[strings.ToLower(kw)]; ok {
				score += 0.1
			}
		}

		if score > 1 {
			score = 1
		}

		if score > bestScore {
			bestScore = score
			bestID = fixedID
		}
	}

	return bestID, bestScore
}

var wordPattern = regexp.MustCompile(`[a-z0-9]{3,}`)

func wordSet(text string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(words))

	for _, word := range words {
		set[word] = struct{}{}
	}

	return set
}
