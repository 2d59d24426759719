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

func TestSoilQualityLevel(t *testing.T) {
	cases := []struct {
		name     string
		ph       *float64
		moisture *float64
		want     string
	}{
		{"both missing", nil, nil, "Unknown"},
		{"healthy", ptr(6.8), ptr(32.0), "Good"},
		{"moisture only", nil, ptr(30.0), "Good"},
		{"slightly alkaline", ptr(7.8), ptr(30.0), "Moderate"},
		{"dry", ptr(6.8), ptr(18.0), "Moderate"},
		{"acidic and parched", ptr(4.8), ptr(10.0), "Poor"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, SoilQualityLevel(c.ph, c.moisture), c.name)
	}
}

func TestSoilFromUpstreamsMergesBothSources(t *testing.T) {
	agro := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		w.Write([]byte(`{"t10": 295.65, "moisture": 0.287}`))
	}))
	defer agro.Close()

	grids := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties":{"layers":[
			{"name":"phh2o","depths":[{"values":{"mean":65}}]},
			{"name":"clay","depths":[{"values":{"mean":240}}]}
		]}}`))
	}))
	defer grids.Close()

	p := NewSoilAdapter(agro.Client(), "test-key")
	p.agroURL = agro.URL
	p.soilgridsURL = grids.URL
	p.httpCfg.Backoff = upstream.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

	r, err := p.fromUpstreams(context.Background(), 21.03, 105.85)
	require.NoError(t, err)
	require.NotNil(t, r)

	require.NotNil(t, r.Moisture)
	assert.Equal(t, 28.7, *r.Moisture)
	require.NotNil(t, r.Temperature)
	assert.Equal(t, 22.5, *r.Temperature)
	require.NotNil(t, r.PH)
	assert.Equal(t, 6.5, *r.PH)
	require.NotNil(t, r.Conductivity)
	assert.Equal(t, 3.6, *r.Conductivity)
	assert.Equal(t, "Good", r.QualityLevel)
}

func TestSoilRealtimeRequiresBothFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"t10": 295.65}`))
	}))
	defer srv.Close()

	p := NewSoilAdapter(srv.Client(), "test-key")
	p.agroURL = srv.URL
	p.httpCfg.Backoff = upstream.BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

	moisture, temperature := p.realtime(context.Background(), 21.03, 105.85)
	assert.Nil(t, moisture)
	assert.Nil(t, temperature)
}

func TestSoilSimulateFollowsSeason(t *testing.T) {
	p := NewSoilAdapter(http.DefaultClient, "")

	p.now = func() time.Time { return time.Date(2026, 7, 10, 12, 0, 0, 0, time.UTC) }
	for i := 0; i < 20; i++ {
		r := p.simulate()
		require.NotNil(t, r.Moisture)
		assert.GreaterOrEqual(t, *r.Moisture, 35.0)
		assert.LessOrEqual(t, *r.Moisture, 50.0)
		assert.Equal(t, "Simulated", r.QualityLevel)
	}

	p.now = func() time.Time { return time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC) }
	for i := 0; i < 20; i++ {
		r := p.simulate()
		require.NotNil(t, r.Moisture)
		assert.GreaterOrEqual(t, *r.Moisture, 20.0)
		assert.LessOrEqual(t, *r.Moisture, 35.0)
	}
}
