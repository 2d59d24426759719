package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/ecopulse/environment-data-aggregation/internal/common"
	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

// WaterAdapter pulls surface-water measurements from the Water Quality
// Portal (USGS/EPA). Strategy: find monitoring stations within 50 km
// (100 km if none), average the last 30 days of measurements from up to
// five stations, and fall back to simulated plausible-range values when
// nothing usable comes back.
type WaterAdapter struct {
	name     string
	baseURL  string
	timeout  time.Duration
	maxSites int
	httpCfg  upstream.ClientConfig
	circuit  *gobreaker.CircuitBreaker
}

func NewWaterAdapter(client *http.Client) *WaterAdapter {
	return &WaterAdapter{
		name:     "Water Quality Monitoring",
		baseURL:  "https://www.waterqualitydata.us/data",
		timeout:  30 * time.Second,
		maxSites: 5,
		httpCfg:  upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit:  upstream.NewBreaker("waterquality"),
	}
}

func (p *WaterAdapter) Name() string { return p.name }

func (p *WaterAdapter) Fetch(ctx context.Context, lat, lon float64) *environment.WaterReading {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return runLadder(ctx, p.name,
		Strategy[environment.WaterReading]{
			Name: "monitoring-stations",
			Run: func(ctx context.Context) (*environment.WaterReading, error) {
				return p.fromStations(ctx, lat, lon)
			},
		},
		Strategy[environment.WaterReading]{
			Name: "simulated",
			Run: func(ctx context.Context) (*environment.WaterReading, error) {
				return simulateWater(), nil
			},
		},
	)
}

func (p *WaterAdapter) fromStations(ctx context.Context, lat, lon float64) (*environment.WaterReading, error) {
	stations, err := p.findStations(ctx, lat, lon, 50)
	if err != nil {
		return nil, err
	}
	if len(stations) == 0 {
		stations, err = p.findStations(ctx, lat, lon, 100)
		if err != nil {
			return nil, err
		}
	}
	if len(stations) == 0 {
		return nil, nil
	}

	if len(stations) > p.maxSites {
		stations = stations[:p.maxSites]
	}

	measurements, err := p.fetchMeasurements(ctx, stations)
	if err != nil {
		return nil, err
	}
	if len(measurements) == 0 {
		return nil, nil
	}

	return parseWaterMeasurements(measurements), nil
}

func (p *WaterAdapter) findStations(ctx context.Context, lat, lon, radiusKm float64) ([]string, error) {
	minLat, minLon, maxLat, maxLon := common.BoundingBox(lat, lon, radiusKm)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("bBox", strings.Join([]string{
			formatCoord(minLon), formatCoord(minLat), formatCoord(maxLon), formatCoord(maxLat),
		}, ","))
		values.Set("siteType", "Stream,Lake,Estuary,Well")
		values.Set("mimeType", "json")
		values.Set("sorted", "no")

		return http.NewRequest(http.MethodGet, p.baseURL+"/Station/search?"+values.Encode(), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseStationIDs(body), nil
}

type waterMeasurement struct {
	CharacteristicName string `json:"CharacteristicName"`
	ResultMeasureValue any    `json:"ResultMeasureValue"`
}

func (p *WaterAdapter) fetchMeasurements(ctx context.Context, stationIDs []string) ([]waterMeasurement, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("siteid", strings.Join(stationIDs, ";"))
		values.Set("startDateLo", start.Format("01-02-2006"))
		values.Set("startDateHi", end.Format("01-02-2006"))
		values.Set("characteristicName", "pH;Dissolved oxygen (DO);Turbidity;Specific conductance;Temperature, water")
		values.Set("mimeType", "json")
		values.Set("sorted", "no")

		return http.NewRequest(http.MethodGet, p.baseURL+"/Result/search?"+values.Encode(), nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	// The portal returns either a bare array or an object with "results".
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var out []waterMeasurement
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var wrapped struct {
		Results []waterMeasurement `json:"results"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Results, nil
}

// parseStationIDs handles both response shapes the station search produces:
// a bare array of station records or a GeoJSON feature collection.
func parseStationIDs(body []byte) []string {
	trimmed := bytes.TrimSpace(body)

	var ids []string
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var stations []struct {
			ID string `json:"MonitoringLocationIdentifier"`
		}
		if err := json.Unmarshal(trimmed, &stations); err != nil {
			return nil
		}
		for _, s := range stations {
			if s.ID != "" {
				ids = append(ids, s.ID)
			}
		}
		return ids
	}

	var collection struct {
		Features []struct {
			Properties struct {
				ID string `json:"MonitoringLocationIdentifier"`
			} `json:"properties"`
		} `json:"features"`
	}
	if err := json.Unmarshal(trimmed, &collection); err != nil {
		return nil
	}
	for _, f := range collection.Features {
		if f.Properties.ID != "" {
			ids = append(ids, f.Properties.ID)
		}
	}
	return ids
}

func parseWaterMeasurements(measurements []waterMeasurement) *environment.WaterReading {
	var ph, do, turbidity, conductivity, temp []float64

	for _, m := range measurements {
		value, ok := asFloat(m.ResultMeasureValue)
		if !ok {
			continue
		}

		name := strings.ToLower(m.CharacteristicName)
		switch {
		case strings.Contains(name, "ph"):
			ph = append(ph, value)
		case common.HasAny(name, "dissolved oxygen", "do"):
			do = append(do, value)
		case strings.Contains(name, "turbidity"):
			turbidity = append(turbidity, value)
		case strings.Contains(name, "conductance"):
			conductivity = append(conductivity, value)
		case strings.Contains(name, "temperature"):
			temp = append(temp, value)
		}
	}

	r := &environment.WaterReading{}
	if v, ok := mean(ph); ok {
		r.PH = ptr(round2(v))
	}
	if v, ok := mean(do); ok {
		r.DissolvedOxygen = ptr(round2(v))
	}
	if v, ok := mean(turbidity); ok {
		r.Turbidity = ptr(round2(v))
	}
	if v, ok := mean(conductivity); ok {
		r.Conductivity = ptr(round1(v))
	}
	if v, ok := mean(temp); ok {
		r.Temperature = ptr(round1(v))
	}
	r.QualityLevel = WaterQualityLevel(r.PH, r.DissolvedOxygen)
	return r
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

// WaterQualityLevel rates water by pH and dissolved oxygen. A missing value
// does not count against the rating.
func WaterQualityLevel(ph, do *float64) string {
	if ph == nil && do == nil {
		return "Unknown"
	}

	phGood := ph == nil || (*ph >= 6.5 && *ph <= 8.5)
	doGood := do == nil || *do >= 6

	if phGood && doGood {
		return "Good"
	}

	phModerate := ph == nil || (*ph >= 6.0 && *ph <= 9.0)
	doModerate := do == nil || *do >= 4
	if phModerate && doModerate {
		return "Moderate"
	}
	return "Poor"
}

func simulateWater() *environment.WaterReading {
	return &environment.WaterReading{
		PH:              ptr(round2(6.5 + rand.Float64()*1.3)),
		DissolvedOxygen: ptr(round2(7.0 + rand.Float64()*2.0)),
		Turbidity:       ptr(round2(1.0 + rand.Float64()*4.0)),
		Conductivity:    ptr(round1(400 + rand.Float64()*200)),
		Temperature:     ptr(round1(18 + rand.Float64()*7)),
		QualityLevel:    "Simulated",
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
