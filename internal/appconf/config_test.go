package appconf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentransit/planner/internal/schedule"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("empty path returns defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "text", cfg.Format)
		assert.Equal(t, 1.0, cfg.Network.MaxWalkDistanceKM)
		assert.Equal(t, 5.0, cfg.Network.WalkSpeedKMH)
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := writeFile(t, "planner.yml", `
env: production
gtfs: feeds/stm.zip
date: "2024-03-18"
window_start: "07:30:00"
window_end: "09:00:00"
network:
  max_walk_distance_km: 0.8
origin:
  lat: 45.5
  lon: -73.57
destination:
  lat: 45.52
  lon: -73.57
format: json
`)
		cfg, err := Load(path)
		require.NoError(t, err)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, Production, cfg.Environment())
		assert.Equal(t, "feeds/stm.zip", cfg.GTFSSource)
		assert.Equal(t, 0.8, cfg.Network.MaxWalkDistanceKM)
		assert.Equal(t, 5.0, cfg.Network.WalkSpeedKMH)
		assert.Equal(t, schedule.Coordinates{Latitude: 45.52, Longitude: -73.57}, cfg.Destination)
		assert.Equal(t, "json", cfg.Format)

		start, end, err := cfg.Window()
		require.NoError(t, err)
		assert.Equal(t, schedule.NewTime(7, 30, 0), start)
		assert.Equal(t, schedule.NewTime(9, 0, 0), end)

		date, err := cfg.ServiceDate()
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, time.March, 18, 0, 0, 0, 0, time.UTC), date)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		assert.ErrorContains(t, err, "error reading config file")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yml", "network: [1, 2"))
		assert.ErrorContains(t, err, "error parsing config file")
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Default()
		cfg.GTFSSource = "gtfs.zip"
		cfg.Date = "2024-03-18"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "database instead of feed", mutate: func(c *Config) { c.GTFSSource = ""; c.DBPath = "planner.db" }},
		{name: "no data source", mutate: func(c *Config) { c.GTFSSource = "" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: true},
		{name: "bad date", mutate: func(c *Config) { c.Date = "18/03/2024" }, wantErr: true},
		{name: "bad latitude", mutate: func(c *Config) { c.Origin.Latitude = 95 }, wantErr: true},
		{name: "zero walk speed", mutate: func(c *Config) { c.Network.WalkSpeedKMH = 0 }, wantErr: true},
		{name: "inverted window", mutate: func(c *Config) { c.WindowStart = "10:00:00"; c.WindowEnd = "09:00:00" }, wantErr: true},
		{name: "unparsable window", mutate: func(c *Config) { c.WindowEnd = "soon" }, wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"PLANNER_GTFS":           "https://example.com/gtfs.zip",
		"PLANNER_WINDOW_END":     "11:00:00",
		"PLANNER_WALK_SPEED_KMH": "4.2",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "https://example.com/gtfs.zip", cfg.GTFSSource)
	assert.Equal(t, "11:00:00", cfg.WindowEnd)
	assert.Equal(t, 4.2, cfg.Network.WalkSpeedKMH)
	assert.Equal(t, "08:00:00", cfg.WindowStart)

	env["PLANNER_MAX_WALK_KM"] = "far"
	assert.ErrorContains(t, cfg.ApplyEnv(lookup), "PLANNER_MAX_WALK_KM")
}

func TestLoadDotEnv(t *testing.T) {
	path := writeFile(t, ".env", "PLANNER_TEST_DOTENV=from-file\n")
	t.Setenv("PLANNER_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("PLANNER_TEST_DOTENV"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("PLANNER_TEST_DOTENV"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestEnvironment(t *testing.T) {
	env, err := EnvironmentFromString("test")
	require.NoError(t, err)
	assert.Equal(t, Test, env)
	assert.Equal(t, "production", Production.String())

	_, err = EnvironmentFromString("staging")
	assert.Error(t, err)
}
