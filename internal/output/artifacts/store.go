// Package artifacts persists pipeline outputs as flat JSON/Markdown files.
// Persistence failures are the one fatal error category of a run: the
// aggregation document is the source of truth and a partial write would
// corrupt it.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
	"github.com/reviewpulse/review-pulse/internal/process/pulse"
)

const (
	aggregationFile     = "theme_aggregation.json"
	manifestFile        = "manifest.json"
	suggestedThemesFile = "llm_suggested_themes.json"
	classificationsFile = "review_classifications.json"

	pulseJSONPattern = "pulse_*.json"

	outputDirPerm  = 0o700
	outputFilePerm = 0o600
)

type Store struct {
	outputDir string
	pulseDir  string
	logger    *zerolog.Logger
}

func NewStore(cfg *config.Config, logger *zerolog.Logger) *Store {
	return &Store{
		outputDir: filepath.Clean(cfg.OutputDir),
		pulseDir:  filepath.Clean(cfg.PulseDir),
		logger:    logger,
	}
}

// LoadAggregation reads the persisted aggregation document. A missing file
// yields an empty document so first runs need no bootstrap step.
func (s *Store) LoadAggregation() (domain.ThemeAggregation, error) {
	path := filepath.Join(s.outputDir, aggregationFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ThemeAggregation{}, nil
		}

		return domain.ThemeAggregation{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc domain.ThemeAggregation
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.ThemeAggregation{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	return doc, nil
}

func (s *Store) SaveAggregation(doc domain.ThemeAggregation) error {
	return s.writeJSON(filepath.Join(s.outputDir, aggregationFile), doc)
}

// PulseExists reports whether the week already has a composed note on disk.
func (s *Store) PulseExists(weekStart domain.Date) bool {
	_, err := os.Stat(filepath.Join(s.pulseDir, pulseFileName(weekStart, "json")))

	return err == nil
}

// SavePulse writes the note's JSON artifact and its Markdown companion.
// Called only after the note is fully assembled.
func (s *Store) SavePulse(note domain.PulseNote) error {
	if err := s.writeJSON(filepath.Join(s.pulseDir, pulseFileName(note.WeekStart, "json")), note); err != nil {
		return err
	}

	mdPath := filepath.Join(s.pulseDir, pulseFileName(note.WeekStart, "md"))
	if err := os.WriteFile(mdPath, []byte(pulse.RenderMarkdown(note)), outputFilePerm); err != nil {
		return fmt.Errorf("writing %s: %w", mdPath, err)
	}

	s.logger.Info().Str("week_start", note.WeekStart.String()).Int("word_count", note.WordCount).Msg("pulse note written")

	return nil
}

// manifest lists the pulse JSON artifacts so the dashboard can fetch weeks
// without directory listings.
type manifest struct {
	GeneratedAt time.Time `json:"generated_at"`
	Files       []string  `json:"files"`
}

// WriteManifest rebuilds manifest.json from the pulse files on disk, sorted
// by name so order is stable across runs.
func (s *Store) WriteManifest(now time.Time) error {
	matches, err := filepath.Glob(filepath.Join(s.pulseDir, pulseJSONPattern))
	if err != nil {
		return fmt.Errorf("listing pulse notes: %w", err)
	}

	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, filepath.Base(match))
	}

	sort.Strings(names)

	return s.writeJSON(filepath.Join(s.pulseDir, manifestFile), manifest{
		GeneratedAt: now.UTC(),
		Files:       names,
	})
}

type suggestedThemesDoc struct {
	SuggestedAt time.Time                     `json:"suggested_at"`
	ThemeCount  int                           `json:"theme_count"`
	Themes      []domain.SuggestedThemeRecord `json:"themes"`
}

// SaveSuggestedThemes records discovery proposals to the side artifact.
// Nothing is written when discovery produced no themes.
func (s *Store) SaveSuggestedThemes(records []domain.SuggestedThemeRecord, now time.Time) error {
	if len(records) == 0 {
		return nil
	}

	return s.writeJSON(filepath.Join(s.outputDir, suggestedThemesFile), suggestedThemesDoc{
		SuggestedAt: now.UTC(),
		ThemeCount:  len(records),
		Themes:      records,
	})
}

type classificationRecord struct {
	ReviewID   string  `json:"review_id"`
	ThemeID    string  `json:"theme_id"`
	ThemeName  string  `json:"theme_name,omitempty"`
	Reason     string  `json:"reason,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Pass       string  `json:"pass"`
}

// SaveClassifications dumps per-review assignments for offline inspection,
// sorted by review id.
func (s *Store) SaveClassifications(classifications []domain.Classification) error {
	records := make([]classificationRecord, 0, len(classifications))

	for _, cls := range classifications {
		records = append(records, classificationRecord{
			ReviewID:   cls.ReviewID,
			ThemeID:    cls.Theme.ID,
			ThemeName:  cls.ThemeName,
			Reason:     cls.Reason,
			Confidence: cls.Confidence,
			Pass:       string(cls.Pass),
		})
	}

	sort.Slice(records, func(i, j int) bool { return records[i].ReviewID < records[j].ReviewID })

	return s.writeJSON(filepath.Join(s.outputDir, classificationsFile), records)
}

func (s *Store) writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), outputDirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}

	if err := os.WriteFile(path, append(data, '\n'), outputFilePerm); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func pulseFileName(weekStart domain.Date, ext string) string {
	return "pulse_" + weekStart.String() + "." + strings.TrimPrefix(ext, ".")
}
