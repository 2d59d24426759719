package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStationIDsFromArray(t *testing.T) {
	body := []byte(`[
		{"MonitoringLocationIdentifier": "USGS-01"},
		{"MonitoringLocationIdentifier": ""},
		{"MonitoringLocationIdentifier": "USGS-02"}
	]`)

	assert.Equal(t, []string{"USGS-01", "USGS-02"}, parseStationIDs(body))
}

func TestParseStationIDsFromGeoJSON(t *testing.T) {
	body := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"properties": {"MonitoringLocationIdentifier": "USGS-03"}},
			{"properties": {"MonitoringLocationIdentifier": "USGS-04"}}
		]
	}`)

	assert.Equal(t, []string{"USGS-03", "USGS-04"}, parseStationIDs(body))
}

func TestParseWaterMeasurementsAveragesByCharacteristic(t *testing.T) {
	measurements := []waterMeasurement{
		{CharacteristicName: "pH", ResultMeasureValue: 7.0},
		{CharacteristicName: "pH", ResultMeasureValue: "7.4"}, // portal mixes types
		{CharacteristicName: "Dissolved oxygen (DO)", ResultMeasureValue: 8.2},
		{CharacteristicName: "Turbidity", ResultMeasureValue: 3.5},
		{CharacteristicName: "Specific conductance", ResultMeasureValue: 440.0},
		{CharacteristicName: "Temperature, water", ResultMeasureValue: 19.5},
		{CharacteristicName: "pH", ResultMeasureValue: "not reported"}, // skipped
	}

	r := parseWaterMeasurements(measurements)
	require.NotNil(t, r)

	require.NotNil(t, r.PH)
	assert.Equal(t, 7.2, *r.PH)
	require.NotNil(t, r.DissolvedOxygen)
	assert.Equal(t, 8.2, *r.DissolvedOxygen)
	require.NotNil(t, r.Turbidity)
	assert.Equal(t, 3.5, *r.Turbidity)
	require.NotNil(t, r.Conductivity)
	assert.Equal(t, 440.0, *r.Conductivity)
	require.NotNil(t, r.Temperature)
	assert.Equal(t, 19.5, *r.Temperature)
	assert.Equal(t, "Good", r.QualityLevel)
}

func TestWaterQualityLevel(t *testing.T) {
	cases := []struct {
		name string
		ph   *float64
		do   *float64
		want string
	}{
		{"both missing", nil, nil, "Unknown"},
		{"healthy", ptr(7.2), ptr(8.0), "Good"},
		{"ph only", ptr(7.0), nil, "Good"},
		{"slightly acidic", ptr(6.2), ptr(8.0), "Moderate"},
		{"low oxygen", ptr(7.2), ptr(4.5), "Moderate"},
		{"acidic and anoxic", ptr(5.0), ptr(2.0), "Poor"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WaterQualityLevel(c.ph, c.do), c.name)
	}
}

func TestSimulateWaterStaysInPlausibleRanges(t *testing.T) {
	for i := 0; i < 20; i++ {
		r := simulateWater()
		require.NotNil(t, r.PH)
		assert.GreaterOrEqual(t, *r.PH, 6.5)
		assert.LessOrEqual(t, *r.PH, 7.8)
		require.NotNil(t, r.DissolvedOxygen)
		assert.GreaterOrEqual(t, *r.DissolvedOxygen, 7.0)
		assert.LessOrEqual(t, *r.DissolvedOxygen, 9.0)
		assert.Equal(t, "Simulated", r.QualityLevel)
	}
}
