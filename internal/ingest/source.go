// Package ingest loads raw review batches from the scraper boundary and
// normalizes them into the pipeline's Review model.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/reviewpulse/review-pulse/internal/core/domain"
)

// batchEnvelope tolerates both a bare array and the scraper's wrapped form.
type batchEnvelope struct {
	Reviews []domain.RawReview `json:"reviews"`
}

// LoadBatch reads a raw review batch from a JSON file produced by the
// scraper. Both `[...]` and `{"reviews": [...]}` layouts are accepted.
func LoadBatch(path string) ([]domain.RawReview, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading review batch %s: %w", path, err)
	}

	var records []domain.RawReview
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var envelope batchEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parsing review batch %s: %w", path, err)
	}

	return envelope.Reviews, nil
}
