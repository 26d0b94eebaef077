package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		{
			name:      "same point",
			lat1:      45.5017,
			lon1:      -73.5673,
			lat2:      45.5017,
			lon2:      -73.5673,
			expected:  0,
			tolerance: 0.001,
		},
		{
			name:      "one degree of latitude",
			lat1:      40.0,
			lon1:      -122.0,
			lat2:      41.0,
			lon2:      -122.0,
			expected:  111195,
			tolerance: 50,
		},
		{
			name:      "Montreal to Quebec City",
			lat1:      45.5017,
			lon1:      -73.5673,
			lat2:      46.8139,
			lon2:      -71.2080,
			expected:  233000,
			tolerance: 2000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, d, tt.tolerance)
		})
	}

	t.Run("symmetric", func(t *testing.T) {
		assert.InDelta(t,
			Haversine(45.0, -73.0, 46.0, -71.0),
			Haversine(46.0, -71.0, 45.0, -73.0),
			1e-6)
	})
}

func TestBearingBetweenPoints(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lon1, lat2, lon2 float64
		expected               float64
		tolerance              float64
	}{
		{name: "North direction", lat1: 40.0, lon1: -122.0, lat2: 41.0, lon2: -122.0, expected: 0.0, tolerance: 1.0},
		{name: "East direction", lat1: 40.0, lon1: -122.0, lat2: 40.0, lon2: -121.0, expected: 90.0, tolerance: 1.0},
		{name: "South direction", lat1: 41.0, lon1: -122.0, lat2: 40.0, lon2: -122.0, expected: 180.0, tolerance: 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bearing := BearingBetweenPoints(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			assert.InDelta(t, tt.expected, bearing, tt.tolerance)
		})
	}
}

func TestCompassDirection(t *testing.T) {
	assert.Equal(t, "N", CompassDirection(40.0, -122.0, 41.0, -122.0))
	assert.Equal(t, "E", CompassDirection(40.0, -122.0, 40.0, -121.0))
	assert.Equal(t, "SW", CompassDirection(40.0, -122.0, 39.3, -122.9))
}
