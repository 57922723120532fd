package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/oportuna_test")
	for _, key := range []string{
		"PORT", "ENV", "DB_MAX_CONNS", "YAHOO_BASE_URL", "YAHOO_REQUESTS_PER_SEC",
		"YAHOO_TIMEOUT", "METRICS_WINDOW_DAYS", "CHART_WINDOW_DAYS",
		"REDIS_ENABLED", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8089", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, "https://query1.finance.yahoo.com", cfg.Provider.BaseURL)
	assert.InDelta(t, 1.0, cfg.Provider.RequestsPerSec, 1e-9)
	assert.Equal(t, 30*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 365, cfg.MetricsWindowDays)
	assert.Equal(t, 90, cfg.ChartWindowDays)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/oportuna_test")
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("YAHOO_REQUESTS_PER_SEC", "0.5")
	t.Setenv("METRICS_WINDOW_DAYS", "180")
	t.Setenv("REDIS_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.InDelta(t, 0.5, cfg.Provider.RequestsPerSec, 1e-9)
	assert.Equal(t, 180, cfg.MetricsWindowDays)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_RejectsUnknownEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/oportuna_test")
	t.Setenv("ENV", "qa")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ENV")
}

func TestLoad_RejectsNonPositiveRate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/oportuna_test")
	t.Setenv("YAHOO_REQUESTS_PER_SEC", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YAHOO_REQUESTS_PER_SEC")
}

func TestGetEnvAsDuration_FallsBack(t *testing.T) {
	t.Setenv("SOME_DURATION", "not-a-duration")
	assert.Equal(t, 5*time.Second, getEnvAsDuration("SOME_DURATION", "5s"))
}
