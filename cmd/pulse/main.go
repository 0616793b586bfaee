package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/reviewpulse/review-pulse/internal/app"
	"github.com/reviewpulse/review-pulse/internal/platform/config"
)

const dateLayout = "2006-01-02"

func main() {
	input := flag.String("input", "", "Path to the raw reviews JSON file (overrides REVIEW_INPUT_PATH)")
	fromFlag := flag.String("from", "", "Start of the processing range, YYYY-MM-DD (default: lookback window)")
	toFlag := flag.String("to", "", "End of the processing range, YYYY-MM-DD (default: today)")
	serveHealth := flag.Bool("health", false, "Serve /healthz and /metrics while the run is in flight")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if *input != "" {
		cfg.InputPath = *input
	}

	logger := newLogger(cfg.AppEnv)

	rangeStart, rangeEnd, err := parseRange(*fromFlag, *toFlag)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid date range")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(cfg, &logger)

	if *serveHealth {
		go func() {
			if err := application.StartHealthServer(ctx); err != nil {
				logger.Error().Err(err).Msg("health check server error")
			}
		}()
	}

	summary, err := application.Run(ctx, rangeStart, rangeEnd)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("run cancelled")
			return
		}

		logger.Fatal().Err(err).Msg("pipeline run failed")
	}

	if summary.FailedWeeks > 0 {
		logger.Warn().Int("failed_weeks", summary.FailedWeeks).Msg("run finished with failed weeks")
		os.Exit(1)
	}
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// parseRange turns the optional -from/-to flags into range bounds. The -to
// day is inclusive, so the returned end is the start of the following day.
func parseRange(from, to string) (time.Time, time.Time, error) {
	var rangeStart, rangeEnd time.Time

	if from != "" {
		parsed, err := time.Parse(dateLayout, from)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}

		rangeStart = parsed
	}

	if to != "" {
		parsed, err := time.Parse(dateLayout, to)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}

		rangeEnd = parsed.AddDate(0, 0, 1)
	}

	return rangeStart, rangeEnd, nil
}
