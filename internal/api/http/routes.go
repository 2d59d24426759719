package httpapi

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/ecopulse/environment-data-aggregation/internal/cache"
	"github.com/ecopulse/environment-data-aggregation/internal/environment"
)

var validate = validator.New()

var knownDomains = map[environment.Domain]struct{}{
	environment.DomainWeather:   {},
	environment.DomainAir:       {},
	environment.DomainWater:     {},
	environment.DomainNoise:     {},
	environment.DomainSoil:      {},
	environment.DomainLight:     {},
	environment.DomainHeat:      {},
	environment.DomainRadiation: {},
	environment.DomainQuality:   {},
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. store may be
// nil when caching is disabled; the cache admin endpoints then report it as
// unavailable.
func RegisterRoutes(app *fiber.App, agg *environment.Aggregator, store cache.Store) {
	v1 := app.Group("/api/v1")

	v1.Get("/environment", func(c *fiber.Ctx) error {
		req, err := parseEnvironmentQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snap, err := agg.Aggregate(c.Context(), req)
		if err != nil {
			if errors.Is(err, environment.ErrMissingLocation) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate environmental data")
		}

		return c.JSON(snap)
	})

	v1.Get("/cache/status", func(c *fiber.Ctx) error {
		if store == nil {
			return c.JSON(fiber.Map{"enabled": false, "reachable": false})
		}
		reachable := store.Ping(c.Context()) == nil
		return c.JSON(fiber.Map{"enabled": true, "reachable": reachable})
	})

	v1.Get("/cache/stats", func(c *fiber.Ctx) error {
		if store == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "cache is disabled")
		}
		stats, err := store.Stats(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "cache is unreachable")
		}
		return c.JSON(stats)
	})

	v1.Post("/cache/clear-expired", func(c *fiber.Ctx) error {
		if store == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "cache is disabled")
		}
		removed, err := store.SweepExpired(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, "cache is unreachable")
		}
		return c.JSON(fiber.Map{"removed": removed})
	})
}

// environmentQuery holds the query parameters for the snapshot endpoint.
// Coordinates and place name are each optional, but at least one of the two
// must be present.
type environmentQuery struct {
	Lat     *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon     *float64 `validate:"omitempty,gte=-180,lte=180"`
	City    string
	Country string
	Include []environment.Domain
}

func parseEnvironmentQuery(c *fiber.Ctx) (environment.Request, error) {
	var q environmentQuery

	lat, err := parseCoord(c.Query("lat"))
	if err != nil {
		return environment.Request{}, fmt.Errorf("invalid lat: %w", err)
	}
	lon, err := parseCoord(c.Query("lon"))
	if err != nil {
		return environment.Request{}, fmt.Errorf("invalid lon: %w", err)
	}
	if (lat == nil) != (lon == nil) {
		return environment.Request{}, errors.New("lat and lon must be provided together")
	}
	q.Lat = lat
	q.Lon = lon
	q.City = c.Query("city")
	q.Country = c.Query("country")

	if err := validate.Struct(q); err != nil {
		return environment.Request{}, err
	}

	include, err := parseInclude(c.Query("include"))
	if err != nil {
		return environment.Request{}, err
	}
	q.Include = include

	return environment.Request{
		Lat:     q.Lat,
		Lon:     q.Lon,
		City:    q.City,
		Country: q.Country,
		Include: q.Include,
	}, nil
}

func parseCoord(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.New("must be a number")
	}
	return &v, nil
}

// parseInclude splits a comma-separated domain list. An empty parameter
// means all domains; unknown names are rejected.
func parseInclude(s string) ([]environment.Domain, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	include := make([]environment.Domain, 0, len(parts))
	for _, p := range parts {
		d := environment.Domain(strings.TrimSpace(p))
		if d == "" {
			continue
		}
		if _, ok := knownDomains[d]; !ok {
			return nil, fmt.Errorf("unknown domain %q", d)
		}
		include = append(include, d)
	}
	if len(include) == 0 {
		return nil, nil
	}
	return include, nil
}
