package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

// RadiationAdapter reads crowdsourced radiation measurements from Safecast.
// Ladder: measurements within 50 km (100 km if none) over the trailing 30
// days, outlier-trimmed and averaged; else a latitude-banded background
// estimate.
type RadiationAdapter struct {
	name    string
	baseURL string
	timeout time.Duration
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewRadiationAdapter(client *http.Client) *RadiationAdapter {
	return &RadiationAdapter{
		name:    "Radiation Monitoring",
		baseURL: "https://api.safecast.org",
		timeout: 20 * time.Second,
		httpCfg: upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit: upstream.NewBreaker("safecast"),
	}
}

func (p *RadiationAdapter) Name() string { return p.name }

func (p *RadiationAdapter) Fetch(ctx context.Context, lat, lon float64) *environment.RadiationReading {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return runLadder(ctx, p.name,
		Strategy[environment.RadiationReading]{
			Name: "safecast",
			Run: func(ctx context.Context) (*environment.RadiationReading, error) {
				return p.fromMeasurements(ctx, lat, lon)
			},
		},
		Strategy[environment.RadiationReading]{
			Name: "background-estimate",
			Run: func(ctx context.Context) (*environment.RadiationReading, error) {
				return estimateBackground(lat), nil
			},
		},
	)
}

func (p *RadiationAdapter) fromMeasurements(ctx context.Context, lat, lon float64) (*environment.RadiationReading, error) {
	values, err := p.measure(ctx, lat, lon, 50)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		values, err = p.measure(ctx, lat, lon, 100)
		if err != nil {
			return nil, err
		}
	}
	if len(values) == 0 {
		return nil, nil
	}

	level, background := trimmedMean(values)
	return &environment.RadiationReading{
		Level:           ptr(round3(level)),
		BackgroundLevel: ptr(round3(background)),
		QualityLevel:    RadiationQualityLevel(level),
	}, nil
}

func (p *RadiationAdapter) measure(ctx context.Context, lat, lon, radiusKm float64) ([]float64, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("distance", fmt.Sprintf("%.0f", radiusKm))
		values.Set("captured_after", time.Now().AddDate(0, 0, -30).Format("2006-01-02"))
		values.Set("order", "captured_at desc")
		values.Set("limit", "100")
		values.Set("unit", "usv")

		return http.NewRequest(http.MethodGet, p.baseURL+"/measurements.json?"+values.Encode(), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var measurements []struct {
		Value any `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&measurements); err != nil {
		return nil, err
	}

	var out []float64
	for _, m := range measurements {
		if v, ok := asFloat(m.Value); ok && v > 0 {
			out = append(out, v)
		}
	}
	return out, nil
}

// trimmedMean sorts the samples, drops the top and bottom 10% (at least one
// from each side once there are more than ten samples), and averages the
// rest. The background level is the minimum of the trimmed set, the sample
// closest to ambient.
func trimmedMean(values []float64) (level, background float64) {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	trimmed := sorted
	if len(sorted) > 10 {
		trim := len(sorted) / 10
		if trim < 1 {
			trim = 1
		}
		trimmed = sorted[trim : len(sorted)-trim]
	}

	var sum float64
	for _, v := range trimmed {
		sum += v
	}
	return sum / float64(len(trimmed)), trimmed[0]
}

// Typical background levels by terrain, in µSv/h.
var backgroundLevels = map[string]float64{
	"coastal":  0.08,
	"urban":    0.10,
	"mountain": 0.18,
}

func estimateBackground(lat float64) *environment.RadiationReading {
	var background float64
	switch {
	case math.Abs(lat) > 50:
		background = backgroundLevels["mountain"]
	case math.Abs(lat) < 20:
		background = backgroundLevels["coastal"]
	default:
		background = backgroundLevels["urban"]
	}

	level := background + (rand.Float64()*0.04 - 0.02)
	return &environment.RadiationReading{
		Level:           ptr(round3(level)),
		BackgroundLevel: ptr(round3(background)),
		QualityLevel:    RadiationQualityLevel(level),
	}
}

// RadiationQualityLevel rates an ambient dose rate in µSv/h.
func RadiationQualityLevel(level float64) string {
	switch {
	case level < 0.3:
		return "Normal"
	case level < 0.5:
		return "Slightly Elevated"
	case level < 1.0:
		return "Elevated"
	default:
		return "High - Caution"
	}
}
