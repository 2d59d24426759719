package providers

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ecopulse/environment-data-aggregation/internal/common"
	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

// NoiseAdapter estimates ambient noise. Ladder: nearest sensor.community
// noise sensor within 5 km, then an estimate from OpenStreetMap road/POI
// density plus time of day, then a pure time-of-day banding.
type NoiseAdapter struct {
	name        string
	sensorURL   string
	overpassURL string
	timeout     time.Duration
	httpCfg     upstream.ClientConfig
	circuit     *gobreaker.CircuitBreaker
	now         func() time.Time
}

func NewNoiseAdapter(client *http.Client) *NoiseAdapter {
	return &NoiseAdapter{
		name:        "Noise Monitoring",
		sensorURL:   "https://data.sensor.community/static/v2/data.json",
		overpassURL: "https://overpass-api.de/api/interpreter",
		timeout:     15 * time.Second,
		httpCfg:     upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit:     upstream.NewBreaker("noise"),
		now:         time.Now,
	}
}

func (p *NoiseAdapter) Name() string { return p.name }

func (p *NoiseAdapter) Fetch(ctx context.Context, lat, lon float64) *environment.NoiseReading {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return runLadder(ctx, p.name,
		Strategy[environment.NoiseReading]{
			Name: "sensor-community",
			Run: func(ctx context.Context) (*environment.NoiseReading, error) {
				return p.fromSensorNetwork(ctx, lat, lon)
			},
		},
		Strategy[environment.NoiseReading]{
			Name: "osm-density",
			Run: func(ctx context.Context) (*environment.NoiseReading, error) {
				road, poi := p.urbanDensity(ctx, lat, lon)
				return p.estimateFromDensity(road, poi), nil
			},
		},
		Strategy[environment.NoiseReading]{
			Name: "time-of-day",
			Run: func(ctx context.Context) (*environment.NoiseReading, error) {
				return p.estimateSimple(), nil
			},
		},
	)
}

func (p *NoiseAdapter) fromSensorNetwork(ctx context.Context, lat, lon float64) (*environment.NoiseReading, error) {
	buildRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.sensorURL, nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var sensors []struct {
		Location struct {
			Latitude  any `json:"latitude"`
			Longitude any `json:"longitude"`
		} `json:"location"`
		Values []struct {
			ValueType string `json:"value_type"`
			Value     any    `json:"value"`
		} `json:"sensordatavalues"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&sensors); err != nil {
		return nil, err
	}

	const radiusKm = 5.0
	minDistance := math.Inf(1)
	var nearest *float64

	for _, s := range sensors {
		sLat, okLat := asFloat(s.Location.Latitude)
		sLon, okLon := asFloat(s.Location.Longitude)
		if !okLat || !okLon {
			continue
		}

		distance := common.Haversine(lat, lon, sLat, sLon)
		if distance >= radiusKm || distance >= minDistance {
			continue
		}

		for _, v := range s.Values {
			if v.ValueType != "noise_LAeq" && v.ValueType != "noise" {
				continue
			}
			if level, ok := asFloat(v.Value); ok && level > 0 {
				nearest = &level
				minDistance = distance
				break
			}
		}
	}

	if nearest == nil {
		return nil, nil
	}

	level := *nearest
	return &environment.NoiseReading{
		Level:        ptr(round1(level)),
		PeakLevel:    ptr(round1(level + 5 + rand.Float64()*10)),
		AverageLevel: ptr(round1(level - 2 - rand.Float64()*3)),
		QualityLevel: NoiseQualityLevel(level),
	}, nil
}

// urbanDensity counts roads and points of interest within 500 m via the
// Overpass API, normalized to [0,1]. The defaults stand in for a typical
// semi-urban area when the query fails.
func (p *NoiseAdapter) urbanDensity(ctx context.Context, lat, lon float64) (road, poi float64) {
	road, poi = 0.3, 0.2

	query := `[out:json];
(
  way["highway"](around:500,` + formatCoord(lat) + `,` + formatCoord(lon) + `);
  node["amenity"](around:500,` + formatCoord(lat) + `,` + formatCoord(lon) + `);
  node["shop"](around:500,` + formatCoord(lat) + `,` + formatCoord(lon) + `);
);
out count;`

	buildRequest := func() (*http.Request, error) {
		form := url.Values{}
		form.Set("data", query)
		req, err := http.NewRequest(http.MethodPost, p.overpassURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return road, poi
	}
	defer resp.Body.Close()

	var payload struct {
		Elements []struct {
			Type string `json:"type"`
		} `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return road, poi
	}

	var roads, pois int
	for _, e := range payload.Elements {
		switch e.Type {
		case "way":
			roads++
		case "node":
			pois++
		}
	}

	// 50 roads / 100 POIs within 500 m counts as fully dense.
	road = math.Min(float64(roads)/50, 1.0)
	poi = math.Min(float64(pois)/100, 1.0)
	return road, poi
}

func (p *NoiseAdapter) estimateFromDensity(road, poi float64) *environment.NoiseReading {
	base := 40.0
	base += math.Min(road*10, 25)
	base += math.Min(poi*5, 10)

	hour := p.now().Hour()
	switch {
	case (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 19):
		base += 5 // rush hours
	case hour >= 22 || hour <= 6:
		base -= 10 // night
	}

	level := round1(base)
	return &environment.NoiseReading{
		Level:        ptr(level),
		PeakLevel:    ptr(round1(level + 10 + rand.Float64()*10)),
		AverageLevel: ptr(round1(level - 2 - rand.Float64()*3)),
		QualityLevel: NoiseQualityLevel(level),
	}
}

func (p *NoiseAdapter) estimateSimple() *environment.NoiseReading {
	hour := p.now().Hour()

	var base float64
	if hour >= 7 && hour <= 22 {
		base = 50 + rand.Float64()*15
	} else {
		base = 35 + rand.Float64()*10
	}

	return &environment.NoiseReading{
		Level:        ptr(round1(base)),
		PeakLevel:    ptr(round1(base + 10 + rand.Float64()*10)),
		AverageLevel: ptr(round1(base - 2 - rand.Float64()*3)),
		QualityLevel: NoiseQualityLevel(base),
	}
}

// NoiseQualityLevel rates a dB level against the WHO guideline bands.
func NoiseQualityLevel(level float64) string {
	switch {
	case level < 55:
		return "Good"
	case level < 70:
		return "Moderate"
	default:
		return "Poor"
	}
}
