package rangereport

import (
	"time"

	"fuel-economy/internal/common/config"
	"fuel-economy/internal/fueleconomy"
)

const defaultCommandTimeout = 5 * time.Second

type Config struct {
	// Timeout bounds one job: every upstream request and the sink write.
	Timeout time.Duration
	// CommandTimeout bounds the complete/fail/throw call to the broker. It
	// starts after the job itself has finished or timed out.
	CommandTimeout time.Duration
	// Sink, when set, also receives every report the worker produces.
	Sink fueleconomy.Renderer
}

// LoadConfig returns the worker defaults with the configured job timeout applied.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{
		Timeout:        60 * time.Second,
		CommandTimeout: defaultCommandTimeout,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return cfg
}
