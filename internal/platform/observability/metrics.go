package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReviewsNormalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_reviews_normalized_total",
		Help: "The total number of reviews accepted by the normalizer",
	})

	ReviewsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_reviews_dropped_total",
		Help: "The total number of raw records dropped during normalization",
	}, []string{"reason"})

	ReviewsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_reviews_classified_total",
		Help: "The total number of reviews classified, by theme and pass",
	}, []string{"theme", "pass"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_llm_requests_total",
		Help: "The total number of LLM requests, by operation and status",
	}, []string{"operation", "status"})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	LLMRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pulse_llm_retries_total",
		Help: "The total number of retried LLM calls",
	})

	WeeksProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_weeks_processed_total",
		Help: "The total number of week buckets processed, by outcome",
	}, []string{"status"})

	PulseWordCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulse_note_word_count",
		Help:    "Word counts of composed pulse notes",
		Buckets: []float64{50, 100, 150, 200, 250, 300, 400, 600},
	})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pulse_run_duration_seconds",
		Help:    "Duration in seconds of a full pipeline run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
)
