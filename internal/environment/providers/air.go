package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

// AirAdapter fetches air quality from the World Air Quality Index project.
type AirAdapter struct {
	name    string
	apiKey  string
	baseURL string
	timeout time.Duration
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewAirAdapter(client *http.Client, apiKey string) *AirAdapter {
	return &AirAdapter{
		name:    "WAQI",
		apiKey:  apiKey,
		baseURL: "https://api.waqi.info",
		timeout: 10 * time.Second,
		httpCfg: upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit: upstream.NewBreaker("waqi"),
	}
}

func (p *AirAdapter) Name() string { return p.name }

func (p *AirAdapter) Fetch(ctx context.Context, lat, lon float64) *environment.AirReading {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return runLadder(ctx, p.name, Strategy[environment.AirReading]{
		Name: "waqi",
		Run: func(ctx context.Context) (*environment.AirReading, error) {
			return p.fetchFeed(ctx, lat, lon)
		},
	})
}

func (p *AirAdapter) fetchFeed(ctx context.Context, lat, lon float64) (*environment.AirReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("waqi api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("token", p.apiKey)

		u := fmt.Sprintf("%s/feed/geo:%f;%f/?%s", p.baseURL, lat, lon, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Data struct {
			AQI  *int `json:"aqi"`
			IAQI struct {
				PM25 struct{ V *float64 `json:"v"` } `json:"pm25"`
				PM10 struct{ V *float64 `json:"v"` } `json:"pm10"`
				O3   struct{ V *float64 `json:"v"` } `json:"o3"`
				NO2  struct{ V *float64 `json:"v"` } `json:"no2"`
				SO2  struct{ V *float64 `json:"v"` } `json:"so2"`
				CO   struct{ V *float64 `json:"v"` } `json:"co"`
			} `json:"iaqi"`
		} `json:"data"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	r := &environment.AirReading{
		AQI:  payload.Data.AQI,
		PM25: payload.Data.IAQI.PM25.V,
		PM10: payload.Data.IAQI.PM10.V,
		O3:   payload.Data.IAQI.O3.V,
		NO2:  payload.Data.IAQI.NO2.V,
		SO2:  payload.Data.IAQI.SO2.V,
		CO:   payload.Data.IAQI.CO.V,
	}
	if r.AQI != nil {
		r.QualityLevel = AirQualityLevel(*r.AQI)
	}
	return r, nil
}

// AirQualityLevel maps an AQI value onto the EPA ordinal bands.
func AirQualityLevel(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}
