package retry

import (
	"context"
	"log/slog"
)

// Attempt is one try at an operation; n counts from 1
type Attempt func(ctx context.Context, n int) error

// Strategy decides how often and how patiently a failed attempt is repeated
type Strategy interface {
	Do(ctx context.Context, attempt Attempt) error
	Name() string
}

// New builds the strategy described by cfg
func New(cfg Config) Strategy {
	if !cfg.Enabled {
		slog.Info("Commit retry disabled")
		return Once{}
	}

	slog.Info("Commit retry enabled",
		"max_retries", cfg.MaxRetries,
		"initial_delay", cfg.InitialDelay,
		"max_delay", cfg.MaxDelay,
	)
	return NewBackoff(cfg.MaxRetries, cfg.InitialDelay, cfg.MaxDelay)
}

// Once runs an attempt a single time
type Once struct{}

func (Once) Do(ctx context.Context, attempt Attempt) error {
	return attempt(ctx, 1)
}

func (Once) Name() string {
	return "once"
}
