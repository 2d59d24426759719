package environment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWeather struct {
	reading *WeatherReading
}

func (s *stubWeather) Name() string { return "OpenWeather" }
func (s *stubWeather) Fetch(ctx context.Context, lat, lon float64) *WeatherReading {
	return s.reading
}

type stubAir struct {
	reading *AirReading
}

func (s *stubAir) Name() string { return "WAQI" }
func (s *stubAir) Fetch(ctx context.Context, lat, lon float64) *AirReading {
	return s.reading
}

type stubHeat struct {
	mu      sync.Mutex
	sawTemp *float64
}

func (s *stubHeat) Name() string { return "Heat Index Calculation" }
func (s *stubHeat) Fetch(ctx context.Context, lat, lon float64, weather *WeatherReading) *HeatReading {
	s.mu.Lock()
	defer s.mu.Unlock()
	if weather == nil || weather.Temperature == nil {
		return nil
	}
	s.sawTemp = weather.Temperature
	return &HeatReading{Temperature: weather.Temperature}
}

type stubLocator struct {
	place    Place
	lat, lon float64
}

func (s *stubLocator) Reverse(ctx context.Context, lat, lon float64) Place { return s.place }
func (s *stubLocator) Forward(ctx context.Context, city, country string) (float64, float64) {
	return s.lat, s.lon
}

type stubAssessor struct {
	ok bool
}

func (s *stubAssessor) Name() string { return "OpenAI GPT-4" }
func (s *stubAssessor) Assess(ctx context.Context, snap *Snapshot) (*QualityAssessment, bool) {
	return &QualityAssessment{OverallRating: "good"}, s.ok
}

type recordingCache struct {
	mu      sync.Mutex
	stored  *Snapshot
	lookups int
	hit     *Snapshot
}

func (c *recordingCache) Lookup(ctx context.Context, loc Location) (*Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++
	if c.hit != nil {
		return c.hit, true, nil
	}
	return nil, false, nil
}

func (c *recordingCache) Save(ctx context.Context, loc Location, snap *Snapshot, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = snap
	return nil
}

func coords(lat, lon float64) (*float64, *float64) { return &lat, &lon }

func TestAggregateRequiresLocation(t *testing.T) {
	agg := NewAggregator(Providers{}, &stubLocator{}, nil, nil, time.Hour)

	_, err := agg.Aggregate(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMissingLocation)
}

func TestAggregatePartialFailureKeepsOtherDomains(t *testing.T) {
	aqi := 42
	provs := Providers{
		Weather: &stubWeather{reading: nil}, // provider failed
		Air:     &stubAir{reading: &AirReading{AQI: &aqi, QualityLevel: "Good"}},
		Heat:    &stubHeat{},
	}
	agg := NewAggregator(provs, &stubLocator{place: Place{City: "Hanoi", Country: "Vietnam"}}, nil, nil, time.Hour)

	lat, lon := coords(21.0285, 105.8542)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon})
	require.NoError(t, err)

	assert.Nil(t, snap.Weather)
	assert.Nil(t, snap.Heat, "heat cannot derive without weather")
	require.NotNil(t, snap.Air)
	assert.Equal(t, 42, *snap.Air.AQI)
	assert.Equal(t, []string{"WAQI"}, snap.Sources)
	assert.Equal(t, "Hanoi", snap.Location.City)
}

func TestAggregateHeatSeesWeatherReading(t *testing.T) {
	temp := 31.5
	heat := &stubHeat{}
	provs := Providers{
		Weather: &stubWeather{reading: &WeatherReading{Temperature: &temp}},
		Heat:    heat,
	}
	agg := NewAggregator(provs, &stubLocator{}, nil, nil, time.Hour)

	lat, lon := coords(21.0285, 105.8542)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon})
	require.NoError(t, err)

	require.NotNil(t, snap.Heat)
	require.NotNil(t, heat.sawTemp)
	assert.Equal(t, temp, *heat.sawTemp)
	assert.ElementsMatch(t, []string{"OpenWeather", "Heat Index Calculation"}, snap.Sources)
}

func TestAggregateAssessorListedOnlyOnSuccess(t *testing.T) {
	lat, lon := coords(21.0285, 105.8542)

	agg := NewAggregator(Providers{}, &stubLocator{}, &stubAssessor{ok: true}, nil, time.Hour)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon})
	require.NoError(t, err)
	require.NotNil(t, snap.EnvironmentalQuality)
	assert.Contains(t, snap.Sources, "OpenAI GPT-4")

	agg = NewAggregator(Providers{}, &stubLocator{}, &stubAssessor{ok: false}, nil, time.Hour)
	snap, err = agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon})
	require.NoError(t, err)
	require.NotNil(t, snap.EnvironmentalQuality, "fallback assessment is still attached")
	assert.NotContains(t, snap.Sources, "OpenAI GPT-4")
}

func TestAggregateFullRequestUsesCache(t *testing.T) {
	cached := &Snapshot{Location: Location{City: "Hanoi"}, Sources: []string{"OpenWeather"}}
	c := &recordingCache{hit: cached}
	agg := NewAggregator(Providers{}, &stubLocator{}, nil, c, time.Hour)

	lat, lon := coords(21.0285, 105.8542)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon})
	require.NoError(t, err)
	assert.Same(t, cached, snap)
	assert.Equal(t, 1, c.lookups)
	assert.Nil(t, c.stored, "a cache hit must not store again")
}

func TestAggregateMissStoresResult(t *testing.T) {
	c := &recordingCache{}
	agg := NewAggregator(Providers{}, &stubLocator{place: Place{City: "Hanoi"}}, nil, c, time.Hour)

	lat, lon := coords(21.0285, 105.8542)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon})
	require.NoError(t, err)
	assert.Same(t, snap, c.stored)
}

func TestAggregatePartialRequestBypassesCache(t *testing.T) {
	aqi := 42
	c := &recordingCache{hit: &Snapshot{}}
	provs := Providers{Air: &stubAir{reading: &AirReading{AQI: &aqi}}}
	agg := NewAggregator(provs, &stubLocator{}, nil, c, time.Hour)

	lat, lon := coords(21.0285, 105.8542)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon, Include: []Domain{DomainAir}})
	require.NoError(t, err)

	assert.Equal(t, 0, c.lookups, "partial requests never read the cache")
	assert.Nil(t, c.stored, "partial requests never write the cache")
	require.NotNil(t, snap.Air)
}

func TestAggregateIncludeRestrictsDomains(t *testing.T) {
	aqi := 42
	temp := 30.0
	provs := Providers{
		Weather: &stubWeather{reading: &WeatherReading{Temperature: &temp}},
		Air:     &stubAir{reading: &AirReading{AQI: &aqi}},
		Heat:    &stubHeat{},
	}
	agg := NewAggregator(provs, &stubLocator{}, &stubAssessor{ok: true}, nil, time.Hour)

	lat, lon := coords(21.0285, 105.8542)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon, Include: []Domain{DomainWeather}})
	require.NoError(t, err)

	require.NotNil(t, snap.Weather)
	assert.Nil(t, snap.Air)
	assert.Nil(t, snap.Heat)
	assert.Nil(t, snap.EnvironmentalQuality, "assessment runs only when selected")
	assert.Equal(t, []string{"OpenWeather"}, snap.Sources)
}

func TestAggregateForwardGeocodesCityOnlyRequests(t *testing.T) {
	loc := &stubLocator{lat: 48.8566, lon: 2.3522}
	agg := NewAggregator(Providers{}, loc, nil, nil, time.Hour)

	snap, err := agg.Aggregate(context.Background(), Request{City: "Paris", Country: "France"})
	require.NoError(t, err)
	assert.Equal(t, 48.8566, snap.Location.Lat)
	assert.Equal(t, 2.3522, snap.Location.Lon)
	assert.Equal(t, "Paris", snap.Location.City)
}

func TestAggregateTimeIsUTCRFC3339(t *testing.T) {
	agg := NewAggregator(Providers{}, &stubLocator{}, nil, nil, time.Hour)

	lat, lon := coords(21.0285, 105.8542)
	snap, err := agg.Aggregate(context.Background(), Request{Lat: lat, Lon: lon})
	require.NoError(t, err)

	ts, err := time.Parse(time.RFC3339, snap.Time)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
	assert.WithinDuration(t, time.Now().UTC(), ts, 5*time.Second)
}
