package gtfsdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/schedule"
	"github.com/opentransit/planner/internal/utils"
)

// ErrNoSnapshot is returned by LoadSnapshot when nothing has been stored.
var ErrNoSnapshot = errors.New("no snapshot stored")

// Tables are cleared children first so foreign keys hold.
var snapshotTables = []string{"stop_events", "transfers", "trips", "stations", "lines", "snapshot_meta"}

// StoreSnapshot replaces the stored snapshot with snap in a single
// transaction. Only finalized snapshots can be stored.
func (c *Client) StoreSnapshot(ctx context.Context, snap *schedule.Snapshot) (err error) {
	if !snap.Finalized() {
		return schedule.ErrNotFinalized
	}

	logger := logging.FromContext(ctx)
	startTime := time.Now()

	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "store_snapshot")

	for _, table := range snapshotTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("error clearing %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, service_date, window_start, window_end, stored_at)
		VALUES (1, ?, ?, ?, ?)`,
		snap.Date().Format(utils.ServiceDateLayout),
		snap.WindowStart().Seconds(),
		snap.WindowEnd().Seconds(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("error inserting snapshot metadata: %w", err)
	}

	if err := insertLines(ctx, tx, snap.Lines()); err != nil {
		return err
	}
	if err := insertStations(ctx, tx, snap.Stations()); err != nil {
		return err
	}
	if err := insertTrips(ctx, tx, snap); err != nil {
		return err
	}
	if err := insertTransfers(ctx, tx, snap.Transfers()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}

	stats := snap.Stats()
	logging.LogOperation(logger, "snapshot_stored",
		slog.String("db_path", c.config.DBPath),
		slog.Int("stations", stats.Stations),
		slog.Int("trips", stats.Trips),
		slog.Int("stop_events", stats.StopEvents),
		slog.Duration("duration", time.Since(startTime)))
	return nil
}

func insertLines(ctx context.Context, tx *sql.Tx, lines []*schedule.Line) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lines (line_id, number, description, category) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, l := range lines {
		if _, err := stmt.ExecContext(ctx, l.ID, l.Number, toNullString(l.Description), int(l.Category)); err != nil {
			return fmt.Errorf("error inserting line %s: %w", l.ID, err)
		}
	}
	return nil
}

func insertStations(ctx context.Context, tx *sql.Tx, stations []*schedule.Station) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stations (station_id, name, description, lat, lon) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, s := range stations {
		_, err := stmt.ExecContext(ctx, s.ID, s.Name, toNullString(s.Description),
			s.Coordinates.Latitude, s.Coordinates.Longitude)
		if err != nil {
			return fmt.Errorf("error inserting station %s: %w", s.ID, err)
		}
	}
	return nil
}

func insertTrips(ctx context.Context, tx *sql.Tx, snap *schedule.Snapshot) error {
	tripStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trips (trip_id, line_id, service_id, headsign) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer tripStmt.Close() // nolint:errcheck

	eventStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stop_events (trip_id, station_id, arrival, departure, stop_sequence) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer eventStmt.Close() // nolint:errcheck

	for _, t := range snap.Trips() {
		if _, err := tripStmt.ExecContext(ctx, t.ID, t.LineID, t.ServiceID, toNullString(t.Headsign)); err != nil {
			return fmt.Errorf("error inserting trip %s: %w", t.ID, err)
		}
		for _, id := range t.Events {
			e, ok := snap.Event(id)
			if !ok {
				return fmt.Errorf("trip %s references missing stop event %d", t.ID, id)
			}
			_, err := eventStmt.ExecContext(ctx, e.TripID, e.StationID, e.Arrival.Seconds(), e.Departure.Seconds(), e.Sequence)
			if err != nil {
				return fmt.Errorf("error inserting stop event of trip %s: %w", t.ID, err)
			}
		}
	}
	return nil
}

func insertTransfers(ctx context.Context, tx *sql.Tx, transfers []schedule.Transfer) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transfers (from_station_id, to_station_id, walk_seconds) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing statement: %w", err)
	}
	defer stmt.Close() // nolint:errcheck

	for _, t := range transfers {
		if _, err := stmt.ExecContext(ctx, t.From, t.To, t.WalkSeconds); err != nil {
			return fmt.Errorf("error inserting transfer %s -> %s: %w", t.From, t.To, err)
		}
	}
	return nil
}

// LoadSnapshot rebuilds and finalizes the stored snapshot. Stop event
// handles are reassigned, everything else matches what was stored.
func (c *Client) LoadSnapshot(ctx context.Context) (*schedule.Snapshot, error) {
	var (
		serviceDate string
		start, end  int
	)
	err := c.DB.QueryRowContext(ctx,
		`SELECT service_date, window_start, window_end FROM snapshot_meta WHERE id = 1`,
	).Scan(&serviceDate, &start, &end)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("error reading snapshot metadata: %w", err)
	}

	date, err := utils.ParseServiceDate(serviceDate)
	if err != nil {
		return nil, err
	}
	snap, err := schedule.NewSnapshot(date, schedule.Time(start), schedule.Time(end))
	if err != nil {
		return nil, err
	}

	loaders := []func(context.Context, *schedule.Snapshot) error{
		c.loadLines,
		c.loadStations,
		c.loadTrips,
		c.loadStopEvents,
		c.loadTransfers,
	}
	for _, load := range loaders {
		if err := load(ctx, snap); err != nil {
			return nil, err
		}
	}

	if err := snap.Finalize(); err != nil {
		return nil, err
	}

	stats := snap.Stats()
	logging.LogOperation(logging.FromContext(ctx), "snapshot_loaded",
		slog.String("db_path", c.config.DBPath),
		slog.String("service_date", serviceDate),
		slog.Int("stations", stats.Stations),
		slog.Int("trips", stats.Trips),
		slog.Int("stop_events", stats.StopEvents))
	return snap, nil
}

func (c *Client) loadLines(ctx context.Context, snap *schedule.Snapshot) error {
	rows, err := c.DB.QueryContext(ctx, `SELECT line_id, number, description, category FROM lines`)
	if err != nil {
		return err
	}
	defer rows.Close() // nolint:errcheck

	for rows.Next() {
		var (
			line        schedule.Line
			description sql.NullString
			category    int
		)
		if err := rows.Scan(&line.ID, &line.Number, &description, &category); err != nil {
			return err
		}
		line.Description = description.String
		line.Category = schedule.Category(category)
		if err := snap.AddLine(line); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) loadStations(ctx context.Context, snap *schedule.Snapshot) error {
	rows, err := c.DB.QueryContext(ctx, `SELECT station_id, name, description, lat, lon FROM stations`)
	if err != nil {
		return err
	}
	defer rows.Close() // nolint:errcheck

	for rows.Next() {
		var (
			station     schedule.Station
			description sql.NullString
		)
		err := rows.Scan(&station.ID, &station.Name, &description,
			&station.Coordinates.Latitude, &station.Coordinates.Longitude)
		if err != nil {
			return err
		}
		station.Description = description.String
		if err := snap.AddStation(station); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) loadTrips(ctx context.Context, snap *schedule.Snapshot) error {
	rows, err := c.DB.QueryContext(ctx, `SELECT trip_id, line_id, service_id, headsign FROM trips`)
	if err != nil {
		return err
	}
	defer rows.Close() // nolint:errcheck

	for rows.Next() {
		var (
			trip     schedule.Trip
			headsign sql.NullString
		)
		if err := rows.Scan(&trip.ID, &trip.LineID, &trip.ServiceID, &headsign); err != nil {
			return err
		}
		trip.Headsign = headsign.String
		if err := snap.AddTrip(trip); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) loadStopEvents(ctx context.Context, snap *schedule.Snapshot) error {
	rows, err := c.DB.QueryContext(ctx,
		`SELECT trip_id, station_id, arrival, departure, stop_sequence
		FROM stop_events ORDER BY trip_id, stop_sequence`)
	if err != nil {
		return err
	}
	defer rows.Close() // nolint:errcheck

	for rows.Next() {
		var (
			tripID, stationID  string
			arrival, departure int
			sequence           int
		)
		if err := rows.Scan(&tripID, &stationID, &arrival, &departure, &sequence); err != nil {
			return err
		}
		_, err := snap.AddStopEvent(tripID, stationID, schedule.Time(arrival), schedule.Time(departure), sequence)
		if err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *Client) loadTransfers(ctx context.Context, snap *schedule.Snapshot) error {
	rows, err := c.DB.QueryContext(ctx, `SELECT from_station_id, to_station_id, walk_seconds FROM transfers`)
	if err != nil {
		return err
	}
	defer rows.Close() // nolint:errcheck

	for rows.Next() {
		var transfer schedule.Transfer
		if err := rows.Scan(&transfer.From, &transfer.To, &transfer.WalkSeconds); err != nil {
			return err
		}
		if err := snap.AddTransfer(transfer); err != nil {
			return err
		}
	}
	return rows.Err()
}
