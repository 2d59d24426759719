package common

import "math"

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Asin(math.Sqrt(a))
	return earthRadiusKm * c
}

// BoundingBox returns a lat/lon box around a point with the given radius in
// kilometers. One degree of latitude is taken as 111 km; longitude degrees
// shrink with the cosine of the latitude.
func BoundingBox(lat, lon, radiusKm float64) (minLat, minLon, maxLat, maxLon float64) {
	latOffset := radiusKm / 111.0
	lonOffset := radiusKm / (111.0 * math.Cos(toRad(lat)))

	return lat - latOffset, lon - lonOffset, lat + latOffset, lon + lonOffset
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
