package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKnownDistances(t *testing.T) {
	// Hanoi to Ho Chi Minh City is roughly 1140 km.
	d := Haversine(21.0285, 105.8542, 10.8231, 106.6297)
	assert.InDelta(t, 1140, d, 15)

	// Same point.
	assert.Equal(t, 0.0, Haversine(51.5074, -0.1278, 51.5074, -0.1278))
}

func TestBoundingBoxContainsCenter(t *testing.T) {
	minLat, minLon, maxLat, maxLon := BoundingBox(21.0285, 105.8542, 50)

	assert.Less(t, minLat, 21.0285)
	assert.Greater(t, maxLat, 21.0285)
	assert.Less(t, minLon, 105.8542)
	assert.Greater(t, maxLon, 105.8542)

	// 50 km is about 0.45 degrees of latitude.
	assert.InDelta(t, 0.9, maxLat-minLat, 0.01)
}
