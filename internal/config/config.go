package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"crowdfund/internal/crowdfund"
	"crowdfund/internal/storage"
	"crowdfund/internal/storage/retry"
)

type Config struct {
	// HTTP listen port for the API and /metrics
	HTTPPort int `env:"CROWDFUND_HTTP_PORT" envDefault:"8080"`

	// Storage backend ( postgres or sqlite ) and its DSN or file path
	StorageDriver string `env:"CROWDFUND_STORAGE_DRIVER" envDefault:"sqlite"`
	DatabaseURL   string `env:"CROWDFUND_DATABASE_URL" envDefault:"crowdfund.db"`

	// Contract address ( C... ) that holds escrowed funds
	CustodyAddress string `env:"CROWDFUND_CUSTODY_ADDRESS"`

	// debug, info, warn or error
	LogLevel string `env:"CROWDFUND_LOG_LEVEL" envDefault:"info"`

	// Dump every receipt as JSON at debug level
	VerboseReceipts bool `env:"CROWDFUND_VERBOSE_RECEIPTS" envDefault:"false"`

	// How often project phases are re-derived for logs and metrics
	PhaseSweepInterval time.Duration `env:"CROWDFUND_PHASE_SWEEP_INTERVAL" envDefault:"30s"`

	// Capacity of the submission queue in front of the host
	QueueSize int `env:"CROWDFUND_QUEUE_SIZE" envDefault:"64"`

	// Commit retry policy
	Retry retry.Config
}

// Load reads the configuration from the environment
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("CROWDFUND_HTTP_PORT must be between 1 and 65535, got %d", c.HTTPPort)
	}
	switch c.StorageDriver {
	case storage.DriverPostgres, storage.DriverSQLite:
	default:
		return fmt.Errorf("CROWDFUND_STORAGE_DRIVER must be %q or %q, got %q", storage.DriverPostgres, storage.DriverSQLite, c.StorageDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("CROWDFUND_DATABASE_URL is required")
	}
	if c.CustodyAddress == "" {
		return fmt.Errorf("CROWDFUND_CUSTODY_ADDRESS is required")
	}
	if !crowdfund.ValidCustody(c.CustodyAddress) {
		return fmt.Errorf("CROWDFUND_CUSTODY_ADDRESS must be a contract address (C...), got %q", c.CustodyAddress)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.PhaseSweepInterval <= 0 {
		return fmt.Errorf("CROWDFUND_PHASE_SWEEP_INTERVAL must be positive")
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("CROWDFUND_QUEUE_SIZE must be positive")
	}
	return nil
}

// SlogLevel converts LogLevel into a slog level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid CROWDFUND_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
