package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/crates/internal/sequencer"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Config{
		StageInterval: 20,
		TickDuration:  50 * time.Millisecond,
		BusyPolicy:    "reject",
		LogLevel:      "info",
	}, cfg)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, sequencer.PolicyReject, policy)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CRATES_STAGE_INTERVAL_TICKS", "5")
	t.Setenv("CRATES_TICK_DURATION", "10ms")
	t.Setenv("CRATES_BUSY_POLICY", "Enqueue")
	t.Setenv("CRATES_DB", "/tmp/crates.db")
	t.Setenv("CRATES_LOG_LEVEL", "debug")
	t.Setenv("CRATES_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.StageInterval)
	assert.Equal(t, 10*time.Millisecond, cfg.TickDuration)
	assert.Equal(t, "/tmp/crates.db", cfg.DB)
	assert.Equal(t, uint64(42), cfg.Seed)

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, sequencer.PolicyEnqueue, policy)

	lvl, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("CRATES_STAGE_INTERVAL_TICKS", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero interval", func(c *Config) { c.StageInterval = 0 }, "stage interval"},
		{"negative tick", func(c *Config) { c.TickDuration = -time.Second }, "tick duration"},
		{"bad policy", func(c *Config) { c.BusyPolicy = "drop" }, "busy policy"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{StageInterval: 20, TickDuration: time.Millisecond, BusyPolicy: "reject", LogLevel: "info"}
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
