package schedule

import (
	"fmt"

	"github.com/opentransit/planner/internal/utils"
)

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"lat" yaml:"lat" validate:"latitude"`
	Longitude float64 `json:"lon" yaml:"lon" validate:"longitude"`
}

// DistanceKM returns the great-circle distance to other in kilometres.
func (c Coordinates) DistanceKM(other Coordinates) float64 {
	return utils.Haversine(c.Latitude, c.Longitude, other.Latitude, other.Longitude) / 1000
}

// Validate checks that both components are in range.
func (c Coordinates) Validate() error {
	if err := utils.ValidateLatitude(c.Latitude); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	if err := utils.ValidateLongitude(c.Longitude); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	return nil
}

func (c Coordinates) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}
