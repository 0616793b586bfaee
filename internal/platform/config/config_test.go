package config

import (
	"testing"
	"time"
)

const testErrLoad = "Load() error = %v"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != "local" {
		t.Errorf("AppEnv = %q, want local", cfg.AppEnv)
	}

	if cfg.LLMModel != "gpt-4o-mini" {
		t.Errorf("LLMModel = %q, want gpt-4o-mini", cfg.LLMModel)
	}

	if cfg.MinReviewTextLen != 10 {
		t.Errorf("MinReviewTextLen = %d, want 10", cfg.MinReviewTextLen)
	}

	if cfg.MinReviewsPerWeek != 3 {
		t.Errorf("MinReviewsPerWeek = %d, want 3", cfg.MinReviewsPerWeek)
	}

	if cfg.ClassifierBatchSize != 8 {
		t.Errorf("ClassifierBatchSize = %d, want 8", cfg.ClassifierBatchSize)
	}

	if cfg.DiscoveryEnabled {
		t.Error("DiscoveryEnabled = true, want false by default")
	}

	if cfg.LLMTimeout != 60*time.Second {
		t.Errorf("LLMTimeout = %v, want 60s", cfg.LLMTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("THEME_CLASSIFIER_BATCH_SIZE", "4")
	t.Setenv("MIN_REVIEWS_PER_WEEK", "5")
	t.Setenv("THEME_DISCOVERY_ENABLED", "true")
	t.Setenv("PULSE_MAX_QUOTES_PER_THEME", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.ClassifierBatchSize != 4 {
		t.Errorf("ClassifierBatchSize = %d, want 4", cfg.ClassifierBatchSize)
	}

	if cfg.MinReviewsPerWeek != 5 {
		t.Errorf("MinReviewsPerWeek = %d, want 5", cfg.MinReviewsPerWeek)
	}

	if !cfg.DiscoveryEnabled {
		t.Error("DiscoveryEnabled = false, want true")
	}

	if cfg.MaxQuotesPerTheme != 2 {
		t.Errorf("MaxQuotesPerTheme = %d, want 2", cfg.MaxQuotesPerTheme)
	}
}
