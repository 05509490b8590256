// Package worker runs the periodic digest refresh loop.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config configures a ticker-driven refresh loop.
type Config struct {
	// Name identifies the worker for logging.
	Name string

	// Interval is the tick interval.
	Interval time.Duration

	// OnTick is called on every tick.
	OnTick func(ctx context.Context)

	// RunOnStart runs OnTick immediately when the loop starts.
	RunOnStart bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

// Run drives the loop until ctx is canceled and returns the wrapped
// context error.
func Run(ctx context.Context, cfg Config) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str("worker", cfg.Name).Dur("interval", cfg.Interval).Msg("starting refresh loop")

	defer logger.Info().Str("worker", cfg.Name).Msg("refresh loop stopped")

	if cfg.RunOnStart && cfg.OnTick != nil {
		cfg.OnTick(ctx)
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("refresh loop %s: %w", cfg.Name, ctx.Err())
		case <-ticker.C:
			if cfg.OnTick != nil {
				cfg.OnTick(ctx)
			}
		}
	}
}

func getLogger(logger *zerolog.Logger) *zerolog.Logger {
	if logger == nil {
		nop := zerolog.Nop()

		return &nop
	}

	return logger
}
