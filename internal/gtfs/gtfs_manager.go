package gtfs

import (
	"context"
	"log/slog"
	"time"

	"github.com/jamespfennell/gtfs"

	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/schedule"
)

// Manager holds one parsed GTFS static feed and cuts schedule snapshots
// out of it.
type Manager struct {
	gtfsSource  string
	gtfsData    *gtfs.Static
	lastUpdated time.Time
	isLocalFile bool
	config      Config
	logger      *slog.Logger
}

// InitGTFSManager initializes the Manager with the GTFS data from the given source
// The source can be either a URL or a local file path
func InitGTFSManager(ctx context.Context, config Config) (*Manager, error) {
	staticData, err := loadGTFSData(ctx, config.GtfsURL, config.isLocalFile())
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		gtfsSource:  config.GtfsURL,
		isLocalFile: config.isLocalFile(),
		config:      config,
		logger:      logging.FromContext(ctx),
	}
	manager.setStaticGTFS(staticData)
	return manager, nil
}

// NewManager wraps already parsed static data.
func NewManager(staticData *gtfs.Static, logger *slog.Logger) *Manager {
	manager := &Manager{logger: logger}
	manager.setStaticGTFS(staticData)
	return manager
}

func (manager *Manager) setStaticGTFS(staticData *gtfs.Static) {
	manager.gtfsData = staticData
	manager.lastUpdated = time.Now()

	if manager.config.Verbose {
		logging.LogOperation(manager.logger, "gtfs_data_updated",
			slog.String("source", manager.gtfsSource),
			slog.Bool("local_file", manager.isLocalFile))
	}
}

func (manager *Manager) GetStaticData() *gtfs.Static {
	return manager.gtfsData
}

func (manager *Manager) LastUpdated() time.Time {
	return manager.lastUpdated
}

// Statistics counts the entities of the loaded feed.
func (manager *Manager) Statistics() map[string]int {
	return map[string]int{
		"agencies":  len(manager.gtfsData.Agencies),
		"routes":    len(manager.gtfsData.Routes),
		"stops":     len(manager.gtfsData.Stops),
		"trips":     len(manager.gtfsData.Trips),
		"services":  len(manager.gtfsData.Services),
		"transfers": len(manager.gtfsData.Transfers),
		"warnings":  len(manager.gtfsData.Warnings),
	}
}

// PrintStatistics logs the feed counts.
func (manager *Manager) PrintStatistics() {
	attrs := make([]slog.Attr, 0, 8)
	for name, count := range manager.Statistics() {
		attrs = append(attrs, slog.Int(name, count))
	}
	attrs = append(attrs, slog.Time("last_updated", manager.lastUpdated))
	logging.LogOperation(manager.logger, "gtfs_statistics", attrs...)
}

// Snapshot filters the feed down to one service date and time window.
func (manager *Manager) Snapshot(opts SnapshotOptions) (*schedule.Snapshot, error) {
	started := time.Now()
	snap, err := BuildSnapshot(manager.gtfsData, opts)
	if err != nil {
		logging.LogError(manager.logger, "failed to build snapshot", err,
			slog.String("date", opts.Date.Format("2006-01-02")))
		return nil, err
	}

	stats := snap.Stats()
	logging.LogOperation(manager.logger, "snapshot_built",
		slog.String("date", opts.Date.Format("2006-01-02")),
		slog.String("window_start", opts.WindowStart.String()),
		slog.String("window_end", opts.WindowEnd.String()),
		slog.Int("lines", stats.Lines),
		slog.Int("stations", stats.Stations),
		slog.Int("trips", stats.Trips),
		slog.Int("stop_events", stats.StopEvents),
		slog.Int("transfers", stats.Transfers),
		slog.Duration("duration", time.Since(started)))
	return snap, nil
}
