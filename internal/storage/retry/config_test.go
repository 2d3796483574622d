package retry

import (
	"testing"
	"time"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if !cfg.Enabled {
		t.Errorf("Enabled = false, want true")
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", cfg.InitialDelay)
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("RETRY_ENABLED", "false")
	t.Setenv("RETRY_MAX_RETRIES", "2")
	t.Setenv("RETRY_MAX_DELAY", "250ms")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Enabled {
		t.Errorf("Enabled = true, want false")
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.MaxDelay != 250*time.Millisecond {
		t.Errorf("MaxDelay = %v, want 250ms", cfg.MaxDelay)
	}

	if _, ok := New(cfg).(Once); !ok {
		t.Errorf("New() with retry disabled = %T, want Once", New(cfg))
	}
}

func TestLoadConfig_InvalidValue(t *testing.T) {
	t.Setenv("RETRY_MAX_RETRIES", "many")

	if _, err := LoadConfig(); err == nil {
		t.Error("Expected error for non-numeric RETRY_MAX_RETRIES")
	}
}
