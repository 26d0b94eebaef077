package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/opentransit/planner/gtfsdb"
	"github.com/opentransit/planner/internal/appconf"
	"github.com/opentransit/planner/internal/gtfs"
	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/network"
	"github.com/opentransit/planner/internal/planner"
	"github.com/opentransit/planner/internal/schedule"
)

// ErrWindowNotStored is returned when the stored snapshot does not cover
// the requested time window.
var ErrWindowNotStored = errors.New("time window not covered by stored snapshot")

// Application holds everything a planning run needs: the configuration,
// the schedule snapshot source and the network built from it.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Snapshot    *schedule.Snapshot
	Network     *network.Network
	Planner     *planner.Planner
}

// New validates cfg, loads the snapshot for the configured day and window
// and builds the network. The snapshot comes from the GTFS feed when one
// is configured and from the database otherwise.
func New(ctx context.Context, cfg appconf.Config, logger *slog.Logger) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		Config: cfg,
		GtfsConfig: gtfs.Config{
			GtfsURL: cfg.GTFSSource,
			Verbose: cfg.Environment() != appconf.Production,
		},
		Logger: logger,
	}

	ctx = logging.WithLogger(ctx, logger)

	snap, err := app.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	app.Snapshot = snap

	n, err := network.Build(snap, cfg.Network, logger)
	if err != nil {
		return nil, fmt.Errorf("error building network: %w", err)
	}
	app.Network = n

	var opts []planner.Option
	if cfg.Acyclic {
		opts = append(opts, planner.WithAcyclicSearch())
	}
	app.Planner = planner.New(n, logger, opts...)

	return app, nil
}

func (app *Application) loadSnapshot(ctx context.Context) (*schedule.Snapshot, error) {
	if app.Config.GTFSSource == "" {
		return app.loadStoredSnapshot(ctx)
	}

	manager, err := gtfs.InitGTFSManager(ctx, app.GtfsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GTFS manager: %w", err)
	}
	app.GtfsManager = manager
	manager.PrintStatistics()

	date, err := app.Config.ServiceDate()
	if err != nil {
		return nil, err
	}
	start, end, err := app.Config.Window()
	if err != nil {
		return nil, err
	}

	snap, err := manager.Snapshot(gtfs.SnapshotOptions{
		Date:        date,
		WindowStart: start,
		WindowEnd:   end,
	})
	if err != nil {
		return nil, err
	}

	if app.Config.StoreSnapshot && app.Config.DBPath != "" {
		if err := app.storeSnapshot(ctx, snap); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

func (app *Application) openStore(ctx context.Context) (*gtfsdb.Client, error) {
	verbose := app.Config.Environment() == appconf.Development
	client, err := gtfsdb.NewClient(ctx, gtfsdb.NewConfig(app.Config.DBPath, app.Config.Environment(), verbose))
	if err != nil {
		return nil, fmt.Errorf("error opening snapshot store: %w", err)
	}
	return client, nil
}

func (app *Application) storeSnapshot(ctx context.Context, snap *schedule.Snapshot) (err error) {
	client, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer logging.HandleDeferredError(&err, client.Close, app.Logger, "close snapshot store")

	return client.StoreSnapshot(ctx, snap)
}

func (app *Application) loadStoredSnapshot(ctx context.Context) (snap *schedule.Snapshot, err error) {
	client, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}
	defer logging.HandleDeferredError(&err, client.Close, app.Logger, "close snapshot store")

	snap, err = client.LoadSnapshot(ctx)
	if errors.Is(err, gtfsdb.ErrNoSnapshot) {
		return nil, fmt.Errorf("%w in %s, import a GTFS feed with -store first", err, app.Config.DBPath)
	}
	if err != nil {
		return nil, err
	}

	if date := snap.Date().Format("2006-01-02"); date != app.Config.Date {
		app.Logger.Warn("stored snapshot is for another service date",
			slog.String("stored", date),
			slog.String("requested", app.Config.Date))
	}
	return app.restrictToWindow(snap)
}

// restrictToWindow narrows a stored snapshot to the configured window. A
// window reaching outside the stored one cannot be answered from the store.
func (app *Application) restrictToWindow(snap *schedule.Snapshot) (*schedule.Snapshot, error) {
	start, end, err := app.Config.Window()
	if err != nil {
		return nil, err
	}
	if start == snap.WindowStart() && end == snap.WindowEnd() {
		return snap, nil
	}
	if start < snap.WindowStart() || end > snap.WindowEnd() {
		return nil, fmt.Errorf("%w: requested window %s-%s is outside the stored window %s-%s, import the GTFS feed again for this window",
			ErrWindowNotStored, start, end, snap.WindowStart(), snap.WindowEnd())
	}

	restricted, err := snap.Restrict(start, end)
	if err != nil {
		return nil, err
	}
	app.Logger.Info("stored_snapshot_restricted",
		slog.String("stored_window", snap.WindowStart().String()+"-"+snap.WindowEnd().String()),
		slog.String("window", start.String()+"-"+end.String()),
		slog.Int("stop_events", restricted.Stats().StopEvents))
	return restricted, nil
}

// Plan answers the configured query.
func (app *Application) Plan() (*planner.Result, error) {
	return app.Planner.Plan(app.Config.Origin, app.Config.Destination)
}
