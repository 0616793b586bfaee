package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"local"`

	// LLM provider. An empty API key selects the mock provider.
	LLMAPIKey             string        `env:"LLM_API_KEY"`
	LLMModel              string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTemperature        float32       `env:"LLM_TEMPERATURE" envDefault:"0.1"`
	LLMTimeout            time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`
	LLMMaxRetries         int           `env:"LLM_MAX_RETRIES" envDefault:"2"`
	LLMRetryInitialDelay  time.Duration `env:"LLM_RETRY_INITIAL_DELAY" envDefault:"500ms"`
	LLMConcurrency        int           `env:"LLM_CONCURRENCY" envDefault:"4"`
	RateLimitRPS          int           `env:"RATE_LIMIT_RPS" envDefault:"1"`
	LLMCircuitThreshold   int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	LLMCircuitTimeout     time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`

	// Normalizer.
	MinReviewTextLen int `env:"MIN_REVIEW_TEXT_LEN" envDefault:"10"`

	// Bucketer.
	LookbackDays      int `env:"REVIEW_LOOKBACK_DAYS" envDefault:"28"`
	MinReviewsPerWeek int `env:"MIN_REVIEWS_PER_WEEK" envDefault:"3"`

	// Classifier.
	ClassifierBatchSize int `env:"THEME_CLASSIFIER_BATCH_SIZE" envDefault:"8"`
	HeuristicMinMatches int `env:"HEURISTIC_MIN_MATCHES" envDefault:"1"`

	// Theme discovery (analysis-only side channel).
	DiscoveryEnabled       bool    `env:"THEME_DISCOVERY_ENABLED" envDefault:"false"`
	DiscoverySampleSize    int     `env:"THEME_DISCOVERY_SAMPLE_SIZE" envDefault:"50"`
	DiscoveryMinConfidence float64 `env:"THEME_DISCOVERY_MIN_CONFIDENCE" envDefault:"0.6"`
	DiscoveryMaxThemes     int     `env:"THEME_DISCOVERY_MAX_THEMES" envDefault:"4"`

	// Pulse composer.
	MaxThemesPerWeek  int  `env:"PULSE_MAX_THEMES" envDefault:"3"`
	MaxQuotesPerTheme int  `env:"PULSE_MAX_QUOTES_PER_THEME" envDefault:"3"`
	MaxPulseWords     int  `env:"PULSE_MAX_WORDS" envDefault:"250"`
	ChunkSize         int  `env:"PULSE_CHUNK_SIZE" envDefault:"20"`
	SkipExistingNotes bool `env:"PULSE_SKIP_EXISTING_NOTES" envDefault:"true"`
	ForceRecentWeeks  int  `env:"PULSE_FORCE_RECENT_WEEKS" envDefault:"2"`

	// Artifact paths.
	InputPath  string `env:"REVIEW_INPUT_PATH" envDefault:"data/raw/reviews.json"`
	OutputDir  string `env:"OUTPUT_DIR" envDefault:"data/processed"`
	PulseDir   string `env:"PULSE_OUTPUT_DIR" envDefault:"data/processed/weekly_pulse"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}
