package providers

import (
	"context"
	"math"
	"time"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/telemetry"
)

// LightAdapter models solar exposure from latitude and wall-clock time.
// It is always computable and needs no upstream.
type LightAdapter struct {
	name string
	now  func() time.Time
}

func NewLightAdapter() *LightAdapter {
	return &LightAdapter{
		name: "Solar Calculation",
		now:  time.Now,
	}
}

func (p *LightAdapter) Name() string { return p.name }

func (p *LightAdapter) Fetch(ctx context.Context, lat, lon float64) *environment.LightReading {
	now := p.now()
	sunrise, sunset := sunTimes(lat, now)

	daylightHours := sunset.Sub(sunrise).Hours()
	intensity := lightIntensity(now, sunrise, sunset)
	uv := uvIndex(lat, now)

	telemetry.FetchOutcomes.WithLabelValues(p.name, "success").Inc()

	return &environment.LightReading{
		Intensity:        ptr(intensity),
		UVIndex:          ptr(uv),
		Sunrise:          sunrise.Format("15:04:05"),
		Sunset:           sunset.Format("15:04:05"),
		DaylightDuration: ptr(round2(daylightHours)),
	}
}

// sunTimes applies a latitude-banded approximation: a fixed tropical
// schedule for low latitudes, 06:00/18:00 elsewhere.
func sunTimes(lat float64, now time.Time) (sunrise, sunset time.Time) {
	y, m, d := now.Date()
	if lat >= 8 && lat <= 23 {
		sunrise = time.Date(y, m, d, 5, 45, 0, 0, now.Location())
		sunset = time.Date(y, m, d, 18, 15, 0, 0, now.Location())
		return sunrise, sunset
	}
	sunrise = time.Date(y, m, d, 6, 0, 0, 0, now.Location())
	sunset = time.Date(y, m, d, 18, 0, 0, 0, now.Location())
	return sunrise, sunset
}

// lightIntensity models lux as a sine over the daylight window, peaking at
// solar noon around 100k lux. Night is 1 lux, daytime is floored at 1000.
func lightIntensity(now, sunrise, sunset time.Time) float64 {
	if now.Before(sunrise) || now.After(sunset) {
		return 1.0
	}

	progress := now.Sub(sunrise).Hours() / sunset.Sub(sunrise).Hours()
	intensity := 100000 * math.Sin(progress*math.Pi)
	return round1(math.Max(1000, intensity))
}

// uvIndex estimates UV from latitude, scaled by the time-of-day band.
func uvIndex(lat float64, now time.Time) float64 {
	base := math.Max(0, 10-math.Abs(lat)*0.2)

	switch hour := now.Hour(); {
	case hour >= 10 && hour <= 14:
		return round1(math.Min(11, base))
	case hour >= 8 && hour <= 16:
		return round1(base * 0.7)
	default:
		return 0.0
	}
}
