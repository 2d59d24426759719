package geocode

import (
	"strings"

	"github.com/ecopulse/environment-data-aggregation/internal/environment"
)

// cityCoordinates is the static forward-geocoding table used when every
// live lookup fails.
var cityCoordinates = map[string][2]float64{
	"hanoi":       {21.0285, 105.8542},
	"ho chi minh": {10.8231, 106.6297},
	"saigon":      {10.8231, 106.6297},
	"da nang":     {16.0544, 108.2022},
	"new york":    {40.7128, -74.0060},
	"london":      {51.5074, -0.1278},
	"paris":       {48.8566, 2.3522},
	"tokyo":       {35.6762, 139.6503},
	"beijing":     {39.9042, 116.4074},
	"shanghai":    {31.2304, 121.4737},
	"delhi":       {28.6139, 77.2090},
	"mumbai":      {19.0760, 72.8777},
	"bangkok":     {13.7563, 100.5018},
	"singapore":   {1.3521, 103.8198},
	"jakarta":     {-6.2088, 106.8456},
	"seoul":       {37.5665, 126.9780},
	"sydney":      {-33.8688, 151.2093},
	"melbourne":   {-37.8136, 144.9631},
}

// defaultCoordinates is returned for cities missing from the table (Hanoi).
var defaultCoordinates = [2]float64{21.0285, 105.8542}

// fallbackCoordinates matches the city table exactly first, then by
// substring in either direction.
func fallbackCoordinates(city string) (lat, lon float64) {
	name := strings.ToLower(strings.TrimSpace(city))

	if coords, ok := cityCoordinates[name]; ok {
		return coords[0], coords[1]
	}

	for known, coords := range cityCoordinates {
		if strings.Contains(known, name) || strings.Contains(name, known) {
			return coords[0], coords[1]
		}
	}

	return defaultCoordinates[0], defaultCoordinates[1]
}

// regionBox is a hard-coded reverse-geocoding region.
type regionBox struct {
	minLat, maxLat float64
	minLon, maxLon float64
	place          environment.Place
}

var regionBoxes = []regionBox{
	{28.4, 28.8, 77.0, 77.4, environment.Place{City: "Delhi", Country: "India", CountryCode: "IN"}},
	{39.7, 40.1, 116.2, 116.6, environment.Place{City: "Beijing", Country: "China", CountryCode: "CN"}},
	{64.0, 64.3, -22.0, -21.5, environment.Place{City: "Reykjavik", Country: "Iceland", CountryCode: "IS"}},
}

// fallbackPlace matches a small set of known bounding boxes, else Unknown.
func fallbackPlace(lat, lon float64) environment.Place {
	for _, box := range regionBoxes {
		if lat >= box.minLat && lat <= box.maxLat && lon >= box.minLon && lon <= box.maxLon {
			return box.place
		}
	}
	return environment.Place{City: "Unknown", Country: "Unknown"}
}
