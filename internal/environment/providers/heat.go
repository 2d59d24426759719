package providers

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/telemetry"
)

// HeatAdapter derives heat stress from the weather reading. Without a
// temperature there is nothing to derive, so the reading is absent.
type HeatAdapter struct {
	name string
	now  func() time.Time
}

func NewHeatAdapter() *HeatAdapter {
	return &HeatAdapter{
		name: "Heat Index Calculation",
		now:  time.Now,
	}
}

func (p *HeatAdapter) Name() string { return p.name }

func (p *HeatAdapter) Fetch(ctx context.Context, lat, lon float64, weather *environment.WeatherReading) *environment.HeatReading {
	if weather == nil || weather.Temperature == nil {
		telemetry.FetchOutcomes.WithLabelValues(p.name, "absent").Inc()
		log.Info().Str("provider", p.name).Str("outcome", "absent").
			Msg("no weather reading to derive heat from")
		return nil
	}

	temp := *weather.Temperature
	humidity := 50.0
	if weather.Humidity != nil {
		humidity = *weather.Humidity
	}

	telemetry.FetchOutcomes.WithLabelValues(p.name, "success").Inc()

	return &environment.HeatReading{
		Temperature:        ptr(temp),
		HeatIndex:          ptr(HeatIndex(temp, humidity)),
		SurfaceTemperature: ptr(p.surfaceTemperature(temp)),
	}
}

// HeatIndex computes the apparent temperature in °C via the Rothfusz
// regression. The regression only holds in hot conditions, so below 27 °C
// the heat index equals the air temperature.
func HeatIndex(tempC, humidity float64) float64 {
	if tempC < 27 {
		return tempC
	}

	t := tempC*9/5 + 32 // regression works in Fahrenheit
	h := humidity

	hi := -42.379 + 2.04901523*t + 10.14333127*h
	hi -= 0.22475541 * t * h
	hi -= 0.00683783 * t * t
	hi -= 0.05481717 * h * h
	hi += 0.00122874 * t * t * h
	hi += 0.00085282 * t * h * h
	hi -= 0.00000199 * t * t * h * h

	return round1((hi - 32) * 5 / 9)
}

// surfaceTemperature adds a time-of-day delta: surfaces run well above air
// temperature through midday, slightly above in the shoulders, and below at
// night.
func (p *HeatAdapter) surfaceTemperature(airTemp float64) float64 {
	hour := p.now().Hour()

	var delta float64
	switch {
	case hour >= 10 && hour <= 16:
		delta = 8 + float64(14-hour)*0.5
	case (hour >= 7 && hour < 10) || (hour > 16 && hour <= 19):
		delta = 3
	default:
		delta = -2
	}

	return round1(airTemp + delta)
}
