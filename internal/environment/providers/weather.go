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

// WeatherAdapter fetches current conditions from OpenWeatherMap. There is no
// fallback: when the upstream is unreachable the reading is absent.
type WeatherAdapter struct {
	name    string
	apiKey  string
	baseURL string
	timeout time.Duration
	httpCfg upstream.ClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewWeatherAdapter(client *http.Client, apiKey string) *WeatherAdapter {
	return &WeatherAdapter{
		name:    "OpenWeather",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		timeout: 10 * time.Second,
		httpCfg: upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit: upstream.NewBreaker("openweather"),
	}
}

func (p *WeatherAdapter) Name() string { return p.name }

func (p *WeatherAdapter) Fetch(ctx context.Context, lat, lon float64) *environment.WeatherReading {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return runLadder(ctx, p.name, Strategy[environment.WeatherReading]{
		Name: "openweather",
		Run: func(ctx context.Context) (*environment.WeatherReading, error) {
			return p.fetchCurrent(ctx, lat, lon)
		},
	})
}

func (p *WeatherAdapter) fetchCurrent(ctx context.Context, lat, lon float64) (*environment.WeatherReading, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Set("lon", fmt.Sprintf("%f", lon))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Main struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
			Pressure  *float64 `json:"pressure"`
		} `json:"main"`
		Wind struct {
			Speed *float64 `json:"speed"`
			Deg   *float64 `json:"deg"`
		} `json:"wind"`
		Clouds struct {
			All *float64 `json:"all"`
		} `json:"clouds"`
		Visibility *float64 `json:"visibility"`
		Weather    []struct {
			Description string `json:"description"`
		} `json:"weather"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	r := &environment.WeatherReading{
		Temperature:   payload.Main.Temp,
		FeelsLike:     payload.Main.FeelsLike,
		Humidity:      payload.Main.Humidity,
		Pressure:      payload.Main.Pressure,
		WindSpeed:     payload.Wind.Speed,
		WindDirection: payload.Wind.Deg,
		Clouds:        payload.Clouds.All,
		Visibility:    payload.Visibility,
	}
	if len(payload.Weather) > 0 {
		r.Description = payload.Weather[0].Description
	}
	return r, nil
}
