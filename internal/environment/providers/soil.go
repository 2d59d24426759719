package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

// SoilAdapter combines real-time moisture and temperature from
// Agromonitoring with static pH and clay-derived conductivity from
// SoilGrids. When both sources come back empty it simulates seasonal
// values.
type SoilAdapter struct {
	name         string
	agroURL      string
	agroAPIKey   string // shared with OpenWeather
	soilgridsURL string
	timeout      time.Duration
	httpCfg      upstream.ClientConfig
	circuit      *gobreaker.CircuitBreaker
	now          func() time.Time
}

func NewSoilAdapter(client *http.Client, apiKey string) *SoilAdapter {
	return &SoilAdapter{
		name:         "Soil Monitoring",
		agroURL:      "http://api.agromonitoring.com/agro/1.0",
		agroAPIKey:   apiKey,
		soilgridsURL: "https://rest.isric.org/soilgrids/v2.0",
		timeout:      20 * time.Second,
		httpCfg:      upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit:      upstream.NewBreaker("soil"),
		now:          time.Now,
	}
}

func (p *SoilAdapter) Name() string { return p.name }

func (p *SoilAdapter) Fetch(ctx context.Context, lat, lon float64) *environment.SoilReading {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return runLadder(ctx, p.name,
		Strategy[environment.SoilReading]{
			Name: "agromonitoring+soilgrids",
			Run: func(ctx context.Context) (*environment.SoilReading, error) {
				return p.fromUpstreams(ctx, lat, lon)
			},
		},
		Strategy[environment.SoilReading]{
			Name: "seasonal-simulation",
			Run: func(ctx context.Context) (*environment.SoilReading, error) {
				return p.simulate(), nil
			},
		},
	)
}

// fromUpstreams merges the two sources; either may be missing. Returns nil
// when both are.
func (p *SoilAdapter) fromUpstreams(ctx context.Context, lat, lon float64) (*environment.SoilReading, error) {
	moisture, temperature := p.realtime(ctx, lat, lon)
	ph, conductivity := p.static(ctx, lat, lon)

	if moisture == nil && temperature == nil && ph == nil && conductivity == nil {
		return nil, nil
	}

	return &environment.SoilReading{
		Moisture:     moisture,
		Temperature:  temperature,
		PH:           ph,
		Conductivity: conductivity,
		QualityLevel: SoilQualityLevel(ph, moisture),
	}, nil
}

// realtime returns soil moisture (%) and temperature (°C) at 10 cm depth.
func (p *SoilAdapter) realtime(ctx context.Context, lat, lon float64) (moisture, temperature *float64) {
	if p.agroAPIKey == "" {
		return nil, nil
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Set("lon", fmt.Sprintf("%f", lon))
		values.Set("appid", p.agroAPIKey)

		return http.NewRequest(http.MethodGet, p.agroURL+"/soil?"+values.Encode(), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	var payload struct {
		T10      *float64 `json:"t10"`      // Kelvin at 10cm depth
		Moisture *float64 `json:"moisture"` // m³/m³
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil
	}
	if payload.T10 == nil || payload.Moisture == nil {
		return nil, nil
	}

	return ptr(round1(*payload.Moisture * 100)), ptr(round1(*payload.T10 - 273.15))
}

// static returns pH and a rough conductivity estimate derived from clay
// content (g/kg).
func (p *SoilAdapter) static(ctx context.Context, lat, lon float64) (ph, conductivity *float64) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lon", fmt.Sprintf("%f", lon))
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Add("property", "phh2o")
		values.Add("property", "clay")
		values.Set("depth", "0-5cm")
		values.Set("value", "mean")

		return http.NewRequest(http.MethodGet, p.soilgridsURL+"/properties/query?"+values.Encode(), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, nil
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Layers []struct {
				Name   string `json:"name"`
				Depths []struct {
					Values struct {
						Mean *float64 `json:"mean"`
					} `json:"values"`
				} `json:"depths"`
			} `json:"layers"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil
	}

	for _, layer := range payload.Properties.Layers {
		if len(layer.Depths) == 0 || layer.Depths[0].Values.Mean == nil {
			continue
		}
		value := *layer.Depths[0].Values.Mean

		switch layer.Name {
		case "phh2o":
			// SoilGrids reports pH multiplied by 10.
			ph = ptr(round2(value / 10))
		case "clay":
			conductivity = ptr(round2(value / 100 * 1.5))
		}
	}
	return ph, conductivity
}

func (p *SoilAdapter) simulate() *environment.SoilReading {
	var moisture float64
	month := p.now().Month()
	if month >= time.May && month <= time.October {
		moisture = 35 + rand.Float64()*15 // wet season
	} else {
		moisture = 20 + rand.Float64()*15
	}

	return &environment.SoilReading{
		Moisture:     ptr(round1(moisture)),
		Temperature:  ptr(round1(20 + (rand.Float64()*15 - 5))),
		PH:           ptr(round2(6.0 + rand.Float64()*1.5)),
		Conductivity: ptr(round2(0.5 + rand.Float64()*0.7)),
		QualityLevel: "Simulated",
	}
}

// SoilQualityLevel rates soil by pH and moisture percentage. A missing value
// does not count against the rating.
func SoilQualityLevel(ph, moisture *float64) string {
	if ph == nil && moisture == nil {
		return "Unknown"
	}

	phGood := ph == nil || (*ph >= 6.0 && *ph <= 7.5)
	moistureGood := moisture == nil || (*moisture >= 25 && *moisture <= 40)
	if phGood && moistureGood {
		return "Good"
	}

	phModerate := ph == nil || (*ph >= 5.5 && *ph <= 8.0)
	moistureModerate := moisture == nil || (*moisture >= 15 && *moisture <= 50)
	if phModerate && moistureModerate {
		return "Moderate"
	}
	return "Poor"
}
