package appconf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/opentransit/planner/internal/network"
	"github.com/opentransit/planner/internal/schedule"
	"github.com/opentransit/planner/internal/utils"
)

// Config is the planner configuration. Values come from an optional YAML
// file, then PLANNER_* environment variables, then command-line flags.
type Config struct {
	Env       string `yaml:"env" validate:"oneof=development test production"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`

	// GTFSSource is a zip path or URL. When empty the snapshot is read
	// from the database at DBPath.
	GTFSSource    string `yaml:"gtfs" validate:"required_without=DBPath"`
	DBPath        string `yaml:"db"`
	StoreSnapshot bool   `yaml:"store"`

	Date        string `yaml:"date" validate:"required,datetime=2006-01-02"`
	WindowStart string `yaml:"window_start" validate:"required"`
	WindowEnd   string `yaml:"window_end" validate:"required"`

	Network     network.Config       `yaml:"network"`
	Origin      schedule.Coordinates `yaml:"origin"`
	Destination schedule.Coordinates `yaml:"destination"`

	Format  string `yaml:"format" validate:"oneof=text json csv"`
	Acyclic bool   `yaml:"acyclic"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Env:         Development.String(),
		LogLevel:    "info",
		LogFormat:   "text",
		Date:        time.Now().Format(utils.ServiceDateLayout),
		WindowStart: "08:00:00",
		WindowEnd:   "10:00:00",
		Network:     network.DefaultConfig(),
		Format:      "text",
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv exports the variables of a .env file that are not already
// set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from PLANNER_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"PLANNER_ENV":          &c.Env,
		"PLANNER_LOG_LEVEL":    &c.LogLevel,
		"PLANNER_LOG_FORMAT":   &c.LogFormat,
		"PLANNER_GTFS":         &c.GTFSSource,
		"PLANNER_DB":           &c.DBPath,
		"PLANNER_DATE":         &c.Date,
		"PLANNER_WINDOW_START": &c.WindowStart,
		"PLANNER_WINDOW_END":   &c.WindowEnd,
		"PLANNER_FORMAT":       &c.Format,
	}
	for key, field := range strs {
		if v, ok := lookup(key); ok {
			*field = v
		}
	}

	floats := map[string]*float64{
		"PLANNER_MAX_WALK_KM":    &c.Network.MaxWalkDistanceKM,
		"PLANNER_WALK_SPEED_KMH": &c.Network.WalkSpeedKMH,
	}
	for key, field := range floats {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*field = f
	}
	return nil
}

var validate = validator.New()

// Validate checks field constraints and that the time window is well
// formed.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, _, err := c.Window(); err != nil {
		return err
	}
	return nil
}

// Environment returns the parsed Env field.
func (c Config) Environment() Environment {
	env, err := EnvironmentFromString(c.Env)
	if err != nil {
		return Development
	}
	return env
}

// ServiceDate returns the parsed Date field.
func (c Config) ServiceDate() (time.Time, error) {
	return utils.ParseServiceDate(c.Date)
}

// Window returns the parsed time window.
func (c Config) Window() (schedule.Time, schedule.Time, error) {
	start, err := schedule.ParseTime(c.WindowStart)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window start: %w", err)
	}
	end, err := schedule.ParseTime(c.WindowEnd)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid window end: %w", err)
	}
	if end <= start {
		return 0, 0, fmt.Errorf("window end %s must be after start %s", end, start)
	}
	return start, end, nil
}
