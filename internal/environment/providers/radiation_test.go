package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

func TestTrimmedMeanSmallSampleKeepsEverything(t *testing.T) {
	level, background := trimmedMean([]float64{1, 3, 2})
	assert.Equal(t, 2.0, level)
	assert.Equal(t, 1.0, background)
}

func TestTrimmedMeanDropsOutliers(t *testing.T) {
	// Twelve samples: ten plausible readings plus a low and a high outlier.
	values := []float64{9.9, 0.1, 0.1, 0.1, 0.1, 0.1, 0.005, 0.1, 0.1, 0.1, 0.1, 0.1}

	level, background := trimmedMean(values)
	assert.InDelta(t, 0.1, level, 1e-9)
	assert.InDelta(t, 0.1, background, 1e-9)
}

func TestRadiationQualityLevelBands(t *testing.T) {
	cases := []struct {
		level float64
		want  string
	}{
		{0.05, "Normal"},
		{0.29, "Normal"},
		{0.3, "Slightly Elevated"},
		{0.49, "Slightly Elevated"},
		{0.5, "Elevated"},
		{0.99, "Elevated"},
		{1.0, "High - Caution"},
		{5.0, "High - Caution"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, RadiationQualityLevel(c.level), "level %v", c.level)
	}
}

func TestEstimateBackgroundByLatitudeBand(t *testing.T) {
	cases := []struct {
		lat        float64
		background float64
	}{
		{64.1, 0.18},  // high latitude
		{10.8, 0.08},  // near-equatorial
		{-55.0, 0.18}, // bands are symmetric
		{40.7, 0.10},  // mid-latitude
	}
	for _, c := range cases {
		r := estimateBackground(c.lat)
		require.NotNil(t, r.BackgroundLevel, "lat %v", c.lat)
		assert.Equal(t, c.background, *r.BackgroundLevel, "lat %v", c.lat)

		// The level jitters around the background by at most 0.02.
		require.NotNil(t, r.Level)
		assert.InDelta(t, c.background, *r.Level, 0.021)
		assert.Equal(t, RadiationQualityLevel(*r.Level), r.QualityLevel)
	}
}

func TestRadiationFetchAveragesMeasurements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "usv", r.URL.Query().Get("unit"))
		// Mixed value types and a non-positive sample that must be skipped.
		w.Write([]byte(`[{"value":0.12},{"value":"0.14"},{"value":0.10},{"value":-1}]`))
	}))
	defer srv.Close()

	p := NewRadiationAdapter(srv.Client())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = upstream.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

	r := p.Fetch(context.Background(), 35.68, 139.65)
	require.NotNil(t, r)
	require.NotNil(t, r.Level)
	assert.Equal(t, 0.12, *r.Level)
	require.NotNil(t, r.BackgroundLevel)
	assert.Equal(t, 0.1, *r.BackgroundLevel)
	assert.Equal(t, "Normal", r.QualityLevel)
}

func TestRadiationFetchFallsBackToEstimate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewRadiationAdapter(srv.Client())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = upstream.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

	r := p.Fetch(context.Background(), 21.03, 105.85)
	require.NotNil(t, r)
	require.NotNil(t, r.BackgroundLevel)
	assert.Equal(t, 0.08, *r.BackgroundLevel)
}
