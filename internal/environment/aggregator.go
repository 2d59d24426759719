package environment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ecopulse/environment-data-aggregation/internal/telemetry"
)

// ErrMissingLocation is the only caller-visible aggregation error: the
// request carried neither coordinates nor a city name.
var ErrMissingLocation = errors.New("either coordinates (lat, lon) or a city name is required")

// Request identifies the point to aggregate for. Include, when non-nil,
// restricts which domains are fetched; nil means all domains and makes the
// request cache-eligible.
type Request struct {
	Lat     *float64
	Lon     *float64
	City    string
	Country string
	Include []Domain
}

func (r Request) hasCoords() bool { return r.Lat != nil && r.Lon != nil }

func (r Request) wants(d Domain) bool {
	if r.Include == nil {
		return true
	}
	for _, inc := range r.Include {
		if inc == d {
			return true
		}
	}
	return false
}

// Providers bundles the domain adapters. A nil adapter means the domain is
// unavailable and its reading stays absent.
type Providers struct {
	Weather   WeatherSource
	Air       AirSource
	Water     WaterSource
	Noise     NoiseSource
	Soil      SoilSource
	Light     LightSource
	Heat      HeatSource
	Radiation RadiationSource
}

// Aggregator fans out to the domain providers, merges partial results into
// a snapshot, and wraps the whole cycle in the spatial cache for full
// requests.
type Aggregator struct {
	providers Providers
	resolver  Locator
	assessor  Assessor
	cache     SnapshotCache
	cacheTTL  time.Duration
}

// NewAggregator creates an Aggregator. resolver must be non-nil; assessor
// and cache may be nil, disabling the quality step and caching.
func NewAggregator(providers Providers, resolver Locator, assessor Assessor, cache SnapshotCache, cacheTTL time.Duration) *Aggregator {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Aggregator{
		providers: providers,
		resolver:  resolver,
		assessor:  assessor,
		cache:     cache,
		cacheTTL:  cacheTTL,
	}
}

// Aggregate produces the environmental snapshot for the requested point.
// Provider failures degrade to absent readings; only missing location input
// surfaces as an error.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (*Snapshot, error) {
	if !req.hasCoords() && req.City == "" {
		return nil, ErrMissingLocation
	}

	loc := a.resolveLocation(ctx, req)

	full := req.Include == nil
	if full && a.cache != nil {
		if snap, ok := a.cacheLookup(ctx, loc); ok {
			return snap, nil
		}
	}

	snap := a.fanOut(ctx, loc, req)

	if req.wants(DomainQuality) && a.assessor != nil {
		assessment, ok := a.assessor.Assess(ctx, snap)
		snap.EnvironmentalQuality = assessment
		if ok {
			snap.Sources = appendSource(snap.Sources, a.assessor.Name())
		}
	}

	kind := "partial"
	if full {
		kind = "full"
	}
	telemetry.Aggregations.WithLabelValues(kind).Inc()

	if full && a.cache != nil {
		if err := a.cache.Save(ctx, loc, snap, a.cacheTTL); err != nil {
			log.Warn().Err(err).Msg("cache save failed; continuing uncached")
		} else {
			telemetry.CacheStores.Inc()
		}
	}

	return snap, nil
}

// resolveLocation fills in whichever half of the location the caller
// omitted. Coordinates win when both are supplied; reverse geocoding is
// best-effort and leaves the Unknown sentinel on failure.
func (a *Aggregator) resolveLocation(ctx context.Context, req Request) Location {
	if req.hasCoords() {
		loc := Location{Lat: *req.Lat, Lon: *req.Lon, City: req.City, Country: req.Country}
		if loc.City == "" {
			place := a.resolver.Reverse(ctx, loc.Lat, loc.Lon)
			loc.City = place.City
			loc.Country = place.Country
		}
		return loc
	}

	lat, lon := a.resolver.Forward(ctx, req.City, req.Country)
	return Location{Lat: lat, Lon: lon, City: req.City, Country: req.Country}
}

// fanOut runs the selected adapters concurrently. The seven independent
// domains are fully parallel; heat waits for the weather result because it
// derives from it. A failed adapter contributes an absent reading and never
// affects the others.
func (a *Aggregator) fanOut(ctx context.Context, loc Location, req Request) *Snapshot {
	snap := &Snapshot{
		Location: loc,
		Time:     time.Now().UTC().Format(time.RFC3339),
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	// Buffered so the weather goroutine never blocks when heat is not
	// selected.
	weatherDone := make(chan *WeatherReading, 1)

	if req.wants(DomainWeather) && a.providers.Weather != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := a.providers.Weather.Fetch(ctx, loc.Lat, loc.Lon)
			mu.Lock()
			snap.Weather = r
			mu.Unlock()
			weatherDone <- r
		}()
	} else {
		weatherDone <- nil
	}

	if req.wants(DomainHeat) && a.providers.Heat != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := <-weatherDone
			r := a.providers.Heat.Fetch(ctx, loc.Lat, loc.Lon, w)
			mu.Lock()
			snap.Heat = r
			mu.Unlock()
		}()
	}

	if req.wants(DomainAir) && a.providers.Air != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := a.providers.Air.Fetch(ctx, loc.Lat, loc.Lon)
			mu.Lock()
			snap.Air = r
			mu.Unlock()
		}()
	}

	if req.wants(DomainWater) && a.providers.Water != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := a.providers.Water.Fetch(ctx, loc.Lat, loc.Lon)
			mu.Lock()
			snap.Water = r
			mu.Unlock()
		}()
	}

	if req.wants(DomainNoise) && a.providers.Noise != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := a.providers.Noise.Fetch(ctx, loc.Lat, loc.Lon)
			mu.Lock()
			snap.Noise = r
			mu.Unlock()
		}()
	}

	if req.wants(DomainSoil) && a.providers.Soil != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := a.providers.Soil.Fetch(ctx, loc.Lat, loc.Lon)
			mu.Lock()
			snap.Soil = r
			mu.Unlock()
		}()
	}

	if req.wants(DomainLight) && a.providers.Light != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := a.providers.Light.Fetch(ctx, loc.Lat, loc.Lon)
			mu.Lock()
			snap.Light = r
			mu.Unlock()
		}()
	}

	if req.wants(DomainRadiation) && a.providers.Radiation != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := a.providers.Radiation.Fetch(ctx, loc.Lat, loc.Lon)
			mu.Lock()
			snap.Radiation = r
			mu.Unlock()
		}()
	}

	wg.Wait()

	snap.Sources = a.assembleSources(snap)
	return snap
}

// assembleSources builds the deduplicated source attribution exactly once,
// at final assembly: a provider's name appears iff its reading is
// non-absent.
func (a *Aggregator) assembleSources(snap *Snapshot) []string {
	sources := []string{}

	if snap.Weather != nil && a.providers.Weather != nil {
		sources = appendSource(sources, a.providers.Weather.Name())
	}
	if snap.Air != nil && a.providers.Air != nil {
		sources = appendSource(sources, a.providers.Air.Name())
	}
	if snap.Water != nil && a.providers.Water != nil {
		sources = appendSource(sources, a.providers.Water.Name())
	}
	if snap.Noise != nil && a.providers.Noise != nil {
		sources = appendSource(sources, a.providers.Noise.Name())
	}
	if snap.Soil != nil && a.providers.Soil != nil {
		sources = appendSource(sources, a.providers.Soil.Name())
	}
	if snap.Light != nil && a.providers.Light != nil {
		sources = appendSource(sources, a.providers.Light.Name())
	}
	if snap.Heat != nil && a.providers.Heat != nil {
		sources = appendSource(sources, a.providers.Heat.Name())
	}
	if snap.Radiation != nil && a.providers.Radiation != nil {
		sources = appendSource(sources, a.providers.Radiation.Name())
	}

	return sources
}

func appendSource(sources []string, name string) []string {
	for _, s := range sources {
		if s == name {
			return sources
		}
	}
	return append(sources, name)
}

func (a *Aggregator) cacheLookup(ctx context.Context, loc Location) (*Snapshot, bool) {
	snap, ok, err := a.cache.Lookup(ctx, loc)
	if err != nil {
		telemetry.CacheLookups.WithLabelValues("error").Inc()
		log.Warn().Err(err).Msg("cache lookup failed; fetching fresh")
		return nil, false
	}
	if !ok {
		telemetry.CacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}

	telemetry.CacheLookups.WithLabelValues("hit").Inc()
	log.Debug().Float64("lat", loc.Lat).Float64("lon", loc.Lon).Msg("cache hit")
	return snap, true
}
