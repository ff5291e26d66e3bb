// Package config loads runtime settings from CRATES_* environment
// variables. Command-line flags override the loaded values.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/crates/internal/sequencer"
)

// Config is the runtime configuration.
type Config struct {
	// StageInterval is the number of ticks between reveal stages.
	StageInterval int `env:"CRATES_STAGE_INTERVAL_TICKS" envDefault:"20"`

	// TickDuration is the wall-clock length of one tick in real-time mode.
	TickDuration time.Duration `env:"CRATES_TICK_DURATION" envDefault:"50ms"`

	// BusyPolicy is "reject" or "enqueue".
	BusyPolicy string `env:"CRATES_BUSY_POLICY" envDefault:"reject"`

	// DB is the journal database path. Empty disables journaling.
	DB string `env:"CRATES_DB"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `env:"CRATES_LOG_LEVEL" envDefault:"info"`

	// Seed seeds reward draws of scenarios that script none. Zero keeps
	// those draws at 0.
	Seed uint64 `env:"CRATES_SEED" envDefault:"0"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	var errs []error
	if c.StageInterval < 1 {
		errs = append(errs, fmt.Errorf("stage interval must be at least 1 tick, got %d", c.StageInterval))
	}
	if c.TickDuration <= 0 {
		errs = append(errs, fmt.Errorf("tick duration must be positive, got %s", c.TickDuration))
	}
	if _, err := c.Policy(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Policy returns the parsed busy policy.
func (c Config) Policy() (sequencer.Policy, error) {
	return sequencer.ParsePolicy(strings.ToLower(c.BusyPolicy))
}

// Level returns the parsed log level.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
