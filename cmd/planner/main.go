package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/opentransit/planner/internal/app"
	"github.com/opentransit/planner/internal/appconf"
	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/schedule"
	"github.com/opentransit/planner/internal/utils"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// coordinatesFlag parses "lat,lon".
type coordinatesFlag struct {
	target *schedule.Coordinates
}

func (f coordinatesFlag) String() string {
	if f.target == nil {
		return ""
	}
	return fmt.Sprintf("%g,%g", f.target.Latitude, f.target.Longitude)
}

func (f coordinatesFlag) Set(value string) error {
	lat, lon, err := utils.ParseLatLon(value)
	if err != nil {
		return err
	}
	*f.target = schedule.Coordinates{Latitude: lat, Longitude: lon}
	return nil
}

// loadConfig layers the YAML file, .env and PLANNER_* variables, then the
// flags that were given explicitly.
func loadConfig(args []string, stderr io.Writer) (appconf.Config, error) {
	fs := flag.NewFlagSet("planner", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var flags appconf.Config
	configPath := fs.String("config", "", "Path to a YAML configuration file")
	dotEnv := fs.String("dotenv", ".env", "Path to a .env file")
	fs.StringVar(&flags.Env, "env", "", "Environment (development|test|production)")
	fs.StringVar(&flags.GTFSSource, "gtfs", "", "Path or URL of a static GTFS zip file")
	fs.StringVar(&flags.DBPath, "db", "", "Path to the SQLite snapshot store")
	fs.BoolVar(&flags.StoreSnapshot, "store", false, "Store the snapshot built from -gtfs in -db")
	fs.StringVar(&flags.Date, "date", "", "Service date (YYYY-MM-DD)")
	fs.StringVar(&flags.WindowStart, "start", "", "Start of the time window (HH:MM[:SS])")
	fs.StringVar(&flags.WindowEnd, "end", "", "End of the time window (HH:MM[:SS])")
	fs.Var(coordinatesFlag{&flags.Origin}, "from", "Origin as lat,lon")
	fs.Var(coordinatesFlag{&flags.Destination}, "to", "Destination as lat,lon")
	fs.StringVar(&flags.Format, "format", "", "Output format (text|json|csv)")
	fs.BoolVar(&flags.Acyclic, "acyclic", false, "Use topological-order relaxation instead of Dijkstra")
	fs.StringVar(&flags.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	fs.StringVar(&flags.LogFormat, "log-format", "", "Log format (text|json)")
	fs.Float64Var(&flags.Network.MaxWalkDistanceKM, "max-walk", 0, "Maximum walking distance in kilometres")
	fs.Float64Var(&flags.Network.WalkSpeedKMH, "walk-speed", 0, "Walking speed in km/h")

	if err := fs.Parse(args); err != nil {
		return appconf.Config{}, err
	}

	if err := appconf.LoadDotEnv(*dotEnv); err != nil {
		return appconf.Config{}, err
	}
	cfg, err := appconf.Load(*configPath)
	if err != nil {
		return appconf.Config{}, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return appconf.Config{}, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "env":
			cfg.Env = flags.Env
		case "gtfs":
			cfg.GTFSSource = flags.GTFSSource
		case "db":
			cfg.DBPath = flags.DBPath
		case "store":
			cfg.StoreSnapshot = flags.StoreSnapshot
		case "date":
			cfg.Date = flags.Date
		case "start":
			cfg.WindowStart = flags.WindowStart
		case "end":
			cfg.WindowEnd = flags.WindowEnd
		case "from":
			cfg.Origin = flags.Origin
		case "to":
			cfg.Destination = flags.Destination
		case "format":
			cfg.Format = flags.Format
		case "acyclic":
			cfg.Acyclic = flags.Acyclic
		case "log-level":
			cfg.LogLevel = flags.LogLevel
		case "log-format":
			cfg.LogFormat = flags.LogFormat
		case "max-walk":
			cfg.Network.MaxWalkDistanceKM = flags.Network.MaxWalkDistanceKM
		case "walk-speed":
			cfg.Network.WalkSpeedKMH = flags.Network.WalkSpeedKMH
		}
	})

	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := loadConfig(args, stderr)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(stderr, level, cfg.LogFormat)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logging.LogError(logger, "failed to initialize planner", err)
		return err
	}

	logger.Info("planning itinerary",
		slog.String("env", cfg.Env),
		slog.String("service_date", cfg.Date),
		slog.String("window", cfg.WindowStart+"-"+cfg.WindowEnd),
		slog.String("origin", cfg.Origin.String()),
		slog.String("destination", cfg.Destination.String()),
		slog.Bool("acyclic", cfg.Acyclic))

	result, err := application.Plan()
	if err != nil {
		return err
	}
	return application.Render(stdout, result)
}
