package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, 10*time.Minute, cfg.CacheSweepInterval)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "8080", cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("CACHE_SWEEP_INTERVAL", "5m")
	t.Setenv("PORT", "9090")
	t.Setenv("OPENWEATHER_API_KEY", "ow-key")
	t.Setenv("CACHE_DATABASE_URL", "postgres://localhost/envcache")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.CacheSweepInterval)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "ow-key", cfg.OpenWeatherAPIKey)
	assert.Equal(t, "postgres://localhost/envcache", cfg.CacheDatabaseURL)
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("CACHE_TTL", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}
