// Package cache implements the tolerance-based geospatial snapshot cache.
// Entries are matched by a ±0.01° bounding box around the query coordinates
// (falling back to a case-normalized city/country pair when coordinates are
// missing), filtered by TTL, newest first. Stores always insert; overlapping
// entries coexist until the expiry sweep removes them.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
)

// Tolerance is the coordinate matching half-width in degrees, roughly
// 1.1 km at the equator.
const Tolerance = 0.01

// DefaultTTL is the entry lifetime when the caller does not override it.
const DefaultTTL = time.Hour

// SourceTag marks how an entry entered the cache.
const SourceTag = "api_call"

// ErrUnavailable is returned when the cache backend cannot be reached.
// Callers degrade to fresh fetches rather than failing the request.
var ErrUnavailable = errors.New("cache backend unavailable")

// Stats summarizes the entry population.
type Stats struct {
	Total   int64 `json:"total_entries"`
	Active  int64 `json:"active_entries"`
	Expired int64 `json:"expired_entries"`
}

// Store is the full cache contract. The aggregator consumes only the
// Lookup/Save slice of it; the admin endpoints and the sweep scheduler use
// the rest.
type Store interface {
	Lookup(ctx context.Context, loc environment.Location) (*environment.Snapshot, bool, error)
	Save(ctx context.Context, loc environment.Location, snap *environment.Snapshot, ttl time.Duration) error
	SweepExpired(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (Stats, error)
	Ping(ctx context.Context) error
	Close()
}
