package environment

// Domain identifies one of the environmental data domains a snapshot can carry.
type Domain string

const (
	DomainWeather   Domain = "weather"
	DomainAir       Domain = "air"
	DomainWater     Domain = "water"
	DomainNoise     Domain = "noise"
	DomainSoil      Domain = "soil"
	DomainLight     Domain = "light"
	DomainHeat      Domain = "heat"
	DomainRadiation Domain = "radiation"

	// DomainQuality selects the optional AI quality assessment step.
	DomainQuality Domain = "environmental_quality"
)

// Location is a resolved geographic point. Coordinates are authoritative;
// city and country are descriptive and may be the "Unknown" sentinel when
// reverse geocoding failed.
type Location struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city,omitempty"`
	Country string  `json:"country,omitempty"`
}

// Place is the descriptive part of a reverse geocoding result.
type Place struct {
	City        string
	Country     string
	CountryCode string
}

// WeatherReading is the normalized current-weather view. Nil fields mean
// the upstream did not report them, not zero.
type WeatherReading struct {
	Temperature   *float64 `json:"temperature,omitempty"`
	FeelsLike     *float64 `json:"feels_like,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	Pressure      *float64 `json:"pressure,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection *float64 `json:"wind_direction,omitempty"`
	Clouds        *float64 `json:"clouds,omitempty"`
	Visibility    *float64 `json:"visibility,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// AirReading holds pollutant concentrations in µg/m³ plus the AQI.
type AirReading struct {
	AQI          *int     `json:"aqi,omitempty"`
	PM25         *float64 `json:"pm25,omitempty"`
	PM10         *float64 `json:"pm10,omitempty"`
	O3           *float64 `json:"o3,omitempty"`
	NO2          *float64 `json:"no2,omitempty"`
	SO2          *float64 `json:"so2,omitempty"`
	CO           *float64 `json:"co,omitempty"`
	QualityLevel string   `json:"quality_level,omitempty"`
}

// WaterReading aggregates monitoring-station measurements.
type WaterReading struct {
	PH              *float64 `json:"ph,omitempty"`
	DissolvedOxygen *float64 `json:"dissolved_oxygen,omitempty"` // mg/L
	Turbidity       *float64 `json:"turbidity,omitempty"`        // NTU
	Conductivity    *float64 `json:"conductivity,omitempty"`     // µS/cm
	Temperature     *float64 `json:"temperature,omitempty"`      // °C
	QualityLevel    string   `json:"quality_level,omitempty"`
}

// NoiseReading holds sound levels in dB.
type NoiseReading struct {
	Level        *float64 `json:"level,omitempty"`
	PeakLevel    *float64 `json:"peak_level,omitempty"`
	AverageLevel *float64 `json:"average_level,omitempty"`
	QualityLevel string   `json:"quality_level,omitempty"`
}

// SoilReading combines real-time moisture/temperature with static properties.
type SoilReading struct {
	Moisture     *float64 `json:"moisture,omitempty"`     // %
	Temperature  *float64 `json:"temperature,omitempty"`  // °C
	PH           *float64 `json:"ph,omitempty"`
	Conductivity *float64 `json:"conductivity,omitempty"` // mS/cm
	QualityLevel string   `json:"quality_level,omitempty"`
}

// LightReading is a computed solar exposure estimate.
type LightReading struct {
	Intensity        *float64 `json:"intensity,omitempty"` // lux
	UVIndex          *float64 `json:"uv_index,omitempty"`
	Sunrise          string   `json:"sunrise,omitempty"`
	Sunset           string   `json:"sunset,omitempty"`
	DaylightDuration *float64 `json:"daylight_duration,omitempty"` // hours
}

// HeatReading is derived from the weather reading.
type HeatReading struct {
	Temperature        *float64 `json:"temperature,omitempty"`         // °C
	HeatIndex          *float64 `json:"heat_index,omitempty"`          // °C
	SurfaceTemperature *float64 `json:"surface_temperature,omitempty"` // °C
}

// RadiationReading holds ambient radiation levels in µSv/h.
type RadiationReading struct {
	Level           *float64 `json:"level,omitempty"`
	BackgroundLevel *float64 `json:"background_level,omitempty"`
	QualityLevel    string   `json:"quality_level,omitempty"`
}

// QualityAssessment is the qualitative rating produced by the assessor.
type QualityAssessment struct {
	OverallRating   string   `json:"overall_rating"` // excellent, good, moderate, poor, hazardous
	Score           float64  `json:"score"`          // 0-100
	HealthRisk      string   `json:"health_risk"`    // low, moderate, high, very_high
	Summary         string   `json:"summary"`
	Recommendations []string `json:"recommendations"`
	Concerns        []string `json:"concerns"`
	Rationale       string   `json:"rationale"`
}

// Snapshot is the merged environmental view for one location at one moment.
// It is never mutated after the aggregator returns it.
type Snapshot struct {
	Location  Location          `json:"location"`
	Time      string            `json:"time"` // ISO-8601, UTC
	Weather   *WeatherReading   `json:"weather,omitempty"`
	Air       *AirReading       `json:"air,omitempty"`
	Water     *WaterReading     `json:"water,omitempty"`
	Noise     *NoiseReading     `json:"noise,omitempty"`
	Soil      *SoilReading      `json:"soil,omitempty"`
	Light     *LightReading     `json:"light,omitempty"`
	Heat      *HeatReading      `json:"heat,omitempty"`
	Radiation *RadiationReading `json:"radiation,omitempty"`

	EnvironmentalQuality *QualityAssessment `json:"environmental_quality,omitempty"`

	// Sources lists the provider names that actually contributed a reading,
	// plus the assessor when the assessment succeeded. Deduplicated.
	Sources []string `json:"sources"`
}
