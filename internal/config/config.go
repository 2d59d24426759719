package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	WAQIAPIKey        string
	OpenAIAPIKey      string
	GeocoderAPIKey    string

	// CacheDatabaseURL selects the Postgres cache backend; empty means the
	// in-memory store.
	CacheDatabaseURL string

	// CacheTTL is how long a stored snapshot satisfies nearby lookups.
	CacheTTL time.Duration

	// CacheSweepInterval controls how often expired entries are purged.
	CacheSweepInterval time.Duration

	// HTTPTimeout is the per-request budget for upstream calls.
	HTTPTimeout time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Err(err).Msg("no .env file found, using process environment")
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WAQIAPIKey = os.Getenv("WAQI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")
	cfg.CacheDatabaseURL = os.Getenv("CACHE_DATABASE_URL")

	ttl, err := getenvDuration("CACHE_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	cfg.CacheTTL = ttl

	sweep, err := getenvDuration("CACHE_SWEEP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	cfg.CacheSweepInterval = sweep

	timeout, err := getenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = timeout

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
