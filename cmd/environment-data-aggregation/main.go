package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpapi "github.com/ecopulse/environment-data-aggregation/internal/api/http"
	"github.com/ecopulse/environment-data-aggregation/internal/assess"
	"github.com/ecopulse/environment-data-aggregation/internal/cache"
	"github.com/ecopulse/environment-data-aggregation/internal/config"
	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/environment/providers"
	"github.com/ecopulse/environment-data-aggregation/internal/geocode"
	"github.com/ecopulse/environment-data-aggregation/internal/scheduler"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("LOG_PRETTY") != "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	store := openCache(cfg)
	if store != nil {
		defer store.Close()
	}

	provs := environment.Providers{
		Weather:   providers.NewWeatherAdapter(httpClient, cfg.OpenWeatherAPIKey),
		Air:       providers.NewAirAdapter(httpClient, cfg.WAQIAPIKey),
		Water:     providers.NewWaterAdapter(httpClient),
		Noise:     providers.NewNoiseAdapter(httpClient),
		Soil:      providers.NewSoilAdapter(httpClient, cfg.OpenWeatherAPIKey),
		Light:     providers.NewLightAdapter(),
		Heat:      providers.NewHeatAdapter(),
		Radiation: providers.NewRadiationAdapter(httpClient),
	}

	resolver := geocode.NewResolver(httpClient, cfg.GeocoderAPIKey)
	assessor := assess.NewAssessor(httpClient, cfg.OpenAIAPIKey)

	var snapCache environment.SnapshotCache
	if store != nil {
		snapCache = store
	}
	agg := environment.NewAggregator(provs, resolver, assessor, snapCache, cfg.CacheTTL)

	sched := scheduler.New(store, cfg.CacheSweepInterval)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "environment-data-aggregation",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "environment-data-aggregation",
		})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API routes.
	httpapi.RegisterRoutes(app, agg, store)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

// openCache picks the cache backend: Postgres when a DSN is configured, the
// in-memory store otherwise. A failed Postgres connection disables caching
// instead of aborting startup.
func openCache(cfg *config.AppConfig) cache.Store {
	if cfg.CacheDatabaseURL == "" {
		log.Info().Msg("no CACHE_DATABASE_URL set, using in-memory cache")
		return cache.NewMemoryStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	store, err := cache.Connect(ctx, cfg.CacheDatabaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("cache database unreachable, caching disabled")
		return nil
	}
	log.Info().Msg("connected to cache database")
	return store
}
