package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelvins/geocoder"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
	"github.com/ecopulse/environment-data-aggregation/internal/upstream"
)

const userAgent = "environment-data-aggregation/1.0"

// Resolver converts between coordinates and place names. Both directions
// run an ordered strategy ladder: the Google geocoder when an API key is
// configured, then Nominatim, then static tables. Neither direction ever
// fails; the last rung always produces a value.
type Resolver struct {
	googleEnabled bool
	reverseURL    string
	searchURL     string
	timeout       time.Duration
	httpCfg       upstream.ClientConfig
	circuit       *gobreaker.CircuitBreaker
}

// NewResolver creates a Resolver. googleAPIKey may be empty, which disables
// the Google rung. The kelvins geocoder holds its key in a package-level
// variable, so construct only one Resolver per process.
func NewResolver(client *http.Client, googleAPIKey string) *Resolver {
	if googleAPIKey != "" {
		geocoder.ApiKey = googleAPIKey
	}

	return &Resolver{
		googleEnabled: googleAPIKey != "",
		reverseURL:    "https://nominatim.openstreetmap.org/reverse",
		searchURL:     "https://nominatim.openstreetmap.org/search",
		timeout:       10 * time.Second,
		httpCfg:       upstream.ClientConfig{Client: client, Backoff: upstream.DefaultBackoff()},
		circuit:       upstream.NewBreaker("geocode"),
	}
}

// Reverse resolves coordinates to a descriptive place. On total failure the
// city and country are the "Unknown" sentinel.
func (r *Resolver) Reverse(ctx context.Context, lat, lon float64) environment.Place {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.googleEnabled {
		if place, err := reverseGoogle(lat, lon); err == nil {
			return place
		} else {
			log.Warn().Err(err).Msg("google reverse geocoding failed")
		}
	}

	if place, err := r.reverseNominatim(ctx, lat, lon); err == nil {
		return place
	} else {
		log.Warn().Err(err).Float64("lat", lat).Float64("lon", lon).
			Msg("nominatim reverse geocoding failed")
	}

	return fallbackPlace(lat, lon)
}

// Forward resolves a place name to coordinates. On total failure it returns
// the coordinates from the static city table, defaulting to Hanoi.
func (r *Resolver) Forward(ctx context.Context, city, country string) (lat, lon float64) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.googleEnabled {
		if lat, lon, err := forwardGoogle(city, country); err == nil {
			return lat, lon
		} else {
			log.Warn().Err(err).Str("city", city).Msg("google forward geocoding failed")
		}
	}

	if lat, lon, err := r.forwardNominatim(ctx, city, country); err == nil {
		return lat, lon
	} else {
		log.Warn().Err(err).Str("city", city).Msg("nominatim forward geocoding failed")
	}

	return fallbackCoordinates(city)
}

func reverseGoogle(lat, lon float64) (environment.Place, error) {
	addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
	if err != nil {
		return environment.Place{}, err
	}
	if len(addresses) == 0 {
		return environment.Place{}, fmt.Errorf("no addresses for (%f, %f)", lat, lon)
	}

	addr := addresses[0]
	city := addr.City
	if city == "" {
		city = addr.District
	}
	if city == "" || addr.Country == "" {
		return environment.Place{}, fmt.Errorf("incomplete address for (%f, %f)", lat, lon)
	}
	return environment.Place{City: city, Country: addr.Country}, nil
}

func forwardGoogle(city, country string) (lat, lon float64, err error) {
	loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
	if err != nil {
		return 0, 0, err
	}
	return loc.Latitude, loc.Longitude, nil
}

func (r *Resolver) reverseNominatim(ctx context.Context, lat, lon float64) (environment.Place, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Set("lon", fmt.Sprintf("%f", lon))
		values.Set("format", "json")
		values.Set("addressdetails", "1")
		values.Set("accept-language", "en")

		req, err := http.NewRequest(http.MethodGet, r.reverseURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	}

	resp, err := upstream.Do(ctx, r.httpCfg, r.circuit, buildRequest)
	if err != nil {
		return environment.Place{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Address struct {
			City         string `json:"city"`
			Town         string `json:"town"`
			Village      string `json:"village"`
			Hamlet       string `json:"hamlet"`
			Municipality string `json:"municipality"`
			Country      string `json:"country"`
			CountryCode  string `json:"country_code"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return environment.Place{}, err
	}

	city := firstNonEmpty(
		payload.Address.City,
		payload.Address.Town,
		payload.Address.Village,
		payload.Address.Hamlet,
		payload.Address.Municipality,
	)
	if city == "" && payload.Address.Country == "" {
		return environment.Place{}, fmt.Errorf("empty nominatim address for (%f, %f)", lat, lon)
	}
	if city == "" {
		city = "Unknown City"
	}
	country := payload.Address.Country
	if country == "" {
		country = "Unknown Country"
	}

	return environment.Place{
		City:        city,
		Country:     country,
		CountryCode: strings.ToUpper(payload.Address.CountryCode),
	}, nil
}

func (r *Resolver) forwardNominatim(ctx context.Context, city, country string) (lat, lon float64, err error) {
	query := city
	if country != "" {
		query += ", " + country
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", query)
		values.Set("format", "json")
		values.Set("addressdetails", "1")
		values.Set("limit", "1")
		values.Set("accept-language", "en")

		req, err := http.NewRequest(http.MethodGet, r.searchURL+"?"+values.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	}

	resp, err := upstream.Do(ctx, r.httpCfg, r.circuit, buildRequest)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, err
	}
	if len(results) == 0 {
		return 0, 0, fmt.Errorf("no results for %q", query)
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, err
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
