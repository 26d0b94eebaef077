package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLatitude(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		wantErr bool
	}{
		{name: "valid latitude", lat: 45.5, wantErr: false},
		{name: "north pole", lat: 90, wantErr: false},
		{name: "south pole", lat: -90, wantErr: false},
		{name: "too high", lat: 90.1, wantErr: true},
		{name: "too low", lat: -91, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLatitude(tt.lat)
			if tt.wantErr {
				assert.EqualError(t, err, "latitude must be between -90 and 90")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateLongitude(t *testing.T) {
	tests := []struct {
		name    string
		lon     float64
		wantErr bool
	}{
		{name: "valid longitude", lon: -73.5, wantErr: false},
		{name: "antimeridian", lon: 180, wantErr: false},
		{name: "too high", lon: 180.5, wantErr: true},
		{name: "too low", lon: -181, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLongitude(tt.lon)
			if tt.wantErr {
				assert.EqualError(t, err, "longitude must be between -180 and 180")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseServiceDate(t *testing.T) {
	d, err := ParseServiceDate("2024-03-18")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseServiceDate("18/03/2024")
	assert.EqualError(t, err, "invalid date format, use YYYY-MM-DD")
}

func TestParseLatLon(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		lat     float64
		lon     float64
		wantErr bool
		errMsg  string
	}{
		{name: "valid pair", value: "45.5017,-73.5673", lat: 45.5017, lon: -73.5673},
		{name: "spaces around values", value: " 45.5 , -73.6 ", lat: 45.5, lon: -73.6},
		{name: "missing longitude", value: "45.5", wantErr: true, errMsg: `invalid coordinate "45.5", use lat,lon`},
		{name: "latitude out of range", value: "95,10", wantErr: true, errMsg: "latitude must be between -90 and 90"},
		{name: "not a number", value: "abc,10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lat, lon, err := ParseLatLon(tt.value)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.EqualError(t, err, tt.errMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, lat, 1e-9)
			assert.InDelta(t, tt.lon, lon, 1e-9)
		})
	}
}
