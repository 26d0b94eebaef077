package network

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxWalkDistanceKM = 1.0
	DefaultWalkSpeedKMH      = 5.0
)

// Config holds the walking parameters of a network. They are fixed once
// the network is built.
type Config struct {
	MaxWalkDistanceKM float64 `yaml:"max_walk_distance_km" validate:"gt=0"`
	WalkSpeedKMH      float64 `yaml:"walk_speed_kmh" validate:"gt=0"`
}

func DefaultConfig() Config {
	return Config{
		MaxWalkDistanceKM: DefaultMaxWalkDistanceKM,
		WalkSpeedKMH:      DefaultWalkSpeedKMH,
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid network config: %w", err)
	}
	return nil
}
