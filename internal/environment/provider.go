package environment

import (
	"context"
	"time"
)

// Sources for the independent domains. Each adapter wraps one upstream
// capability and never propagates an error past its boundary: a failed or
// cancelled fetch yields nil.
type (
	WeatherSource interface {
		Name() string
		Fetch(ctx context.Context, lat, lon float64) *WeatherReading
	}
	AirSource interface {
		Name() string
		Fetch(ctx context.Context, lat, lon float64) *AirReading
	}
	WaterSource interface {
		Name() string
		Fetch(ctx context.Context, lat, lon float64) *WaterReading
	}
	NoiseSource interface {
		Name() string
		Fetch(ctx context.Context, lat, lon float64) *NoiseReading
	}
	SoilSource interface {
		Name() string
		Fetch(ctx context.Context, lat, lon float64) *SoilReading
	}
	LightSource interface {
		Name() string
		Fetch(ctx context.Context, lat, lon float64) *LightReading
	}
	RadiationSource interface {
		Name() string
		Fetch(ctx context.Context, lat, lon float64) *RadiationReading
	}
)

// HeatSource derives its reading from the weather reading, so it runs after
// the weather fetch has completed (or been skipped).
type HeatSource interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64, weather *WeatherReading) *HeatReading
}

// Locator resolves between coordinates and place names. Both directions are
// best-effort and must always return a usable value.
type Locator interface {
	Reverse(ctx context.Context, lat, lon float64) Place
	Forward(ctx context.Context, city, country string) (lat, lon float64)
}

// Assessor produces a qualitative rating for a completed snapshot. The
// returned assessment is always non-nil; ok reports whether it came from the
// upstream rather than the deterministic fallback.
type Assessor interface {
	Name() string
	Assess(ctx context.Context, snap *Snapshot) (assessment *QualityAssessment, ok bool)
}

// SnapshotCache is the slice of the spatial cache the aggregator needs.
type SnapshotCache interface {
	Lookup(ctx context.Context, loc Location) (*Snapshot, bool, error)
	Save(ctx context.Context, loc Location, snap *Snapshot, ttl time.Duration) error
}
