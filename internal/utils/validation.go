package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ServiceDateLayout is the layout accepted for service dates.
const ServiceDateLayout = "2006-01-02"

// ValidateLatitude validates latitude values
func ValidateLatitude(lat float64) error {
	if lat < -90.0 || lat > 90.0 {
		return errors.New("latitude must be between -90 and 90")
	}
	return nil
}

// ValidateLongitude validates longitude values
func ValidateLongitude(lon float64) error {
	if lon < -180.0 || lon > 180.0 {
		return errors.New("longitude must be between -180 and 180")
	}
	return nil
}

// ParseServiceDate parses a date in YYYY-MM-DD format.
func ParseServiceDate(date string) (time.Time, error) {
	d, err := time.Parse(ServiceDateLayout, date)
	if err != nil {
		return time.Time{}, errors.New("invalid date format, use YYYY-MM-DD")
	}
	return d, nil
}

// ParseLatLon parses a "lat,lon" pair such as "45.50,-73.57".
func ParseLatLon(value string) (float64, float64, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid coordinate %q, use lat,lon", value)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude in %q: %w", value, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude in %q: %w", value, err)
	}

	if err := ValidateLatitude(lat); err != nil {
		return 0, 0, err
	}
	if err := ValidateLongitude(lon); err != nil {
		return 0, 0, err
	}
	return lat, lon, nil
}
