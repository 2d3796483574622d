package retry

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds retry configuration
type Config struct {
	Enabled      bool          `env:"RETRY_ENABLED"       envDefault:"true"` // Enable/disable retry mechanism
	MaxRetries   int           `env:"RETRY_MAX_RETRIES"   envDefault:"5"`    // Maximum number of retry attempts
	InitialDelay time.Duration `env:"RETRY_INITIAL_DELAY" envDefault:"100ms"`
	MaxDelay     time.Duration `env:"RETRY_MAX_DELAY"     envDefault:"5s"`
}

// LoadConfig loads retry configuration from environment variables
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse retry config: %w", err)
	}
	return cfg, nil
}
