package app

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentransit/planner/internal/appconf"
	"github.com/opentransit/planner/internal/graph"
	"github.com/opentransit/planner/internal/logging"
	"github.com/opentransit/planner/internal/planner"
	"github.com/opentransit/planner/internal/schedule"
)

// 2024-03-18 is a Monday. Stations are 0.01 degrees of latitude apart,
// just over a kilometre.
var feedFiles = map[string]string{
	"agency.txt": `agency_id,agency_name,agency_url,agency_timezone
STM,Societe de transport,https://stm.info,America/Montreal
`,
	"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type
51,STM,51,Edouard-Montpetit,3
`,
	"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
A,Alpha,45.5000,-73.5700
B,Bravo,45.5100,-73.5700
C,Charlie,45.5200,-73.5700
`,
	"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
WEEK,1,1,1,1,1,0,0,20240101,20241231
`,
	"trips.txt": `route_id,service_id,trip_id,trip_headsign
51,WEEK,T1,Nord
51,WEEK,T2,Nord
`,
	"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence
T1,08:00:00,08:01:00,A,1
T1,08:10:00,08:10:00,B,2
T2,08:12:00,08:12:00,B,1
T2,08:20:00,08:20:00,C,2
`,
	"transfers.txt": `from_stop_id,to_stop_id,transfer_type,min_transfer_time
B,C,2,180
`,
}

func writeFeed(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range feedFiles {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "gtfs.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func testConfig(t *testing.T) appconf.Config {
	t.Helper()
	cfg := appconf.Default()
	cfg.GTFSSource = writeFeed(t)
	cfg.Date = "2024-03-18"
	cfg.Origin = schedule.Coordinates{Latitude: 45.50, Longitude: -73.57}
	cfg.Destination = schedule.Coordinates{Latitude: 45.52, Longitude: -73.57}
	return cfg
}

func discardLogger() *slog.Logger {
	return logging.NewStructuredLogger(io.Discard, slog.LevelInfo)
}

func TestPlanFromFeed(t *testing.T) {
	application, err := New(context.Background(), testConfig(t), discardLogger())
	require.NoError(t, err)
	require.NotNil(t, application.GtfsManager)

	result, err := application.Plan()
	require.NoError(t, err)
	assert.Equal(t, planner.OutcomeFound, result.Outcome)
	assert.Equal(t, graph.Weight(1140), result.Distance)
	assert.False(t, application.Network.Augmented())

	steps := result.Itinerary.Steps
	require.Len(t, steps, 4)
	assert.Equal(t, planner.StepWalk, steps[0].Kind)
	assert.Equal(t, planner.StepRide, steps[1].Kind)
	assert.Equal(t, "T1", steps[1].TripID)
	assert.Equal(t, planner.StepWalk, steps[3].Kind)
	assert.Equal(t, schedule.NewTime(8, 19, 0), result.Itinerary.Arrival)
}

func TestPlanAcyclic(t *testing.T) {
	cfg := testConfig(t)
	cfg.Acyclic = true
	application, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	result, err := application.Plan()
	require.NoError(t, err)
	assert.Equal(t, graph.Weight(1140), result.Distance)
}

func TestPlanUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Destination = schedule.Coordinates{Latitude: 45.70, Longitude: -73.57}
	application, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	result, err := application.Plan()
	require.NoError(t, err)
	assert.Equal(t, planner.OutcomeUnreachable, result.Outcome)

	var out bytes.Buffer
	require.NoError(t, application.Render(&out, result))
	assert.Equal(t, "No itinerary reaches the destination within the time window.\n", out.String())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.WindowEnd = "07:00:00"
	_, err := New(context.Background(), cfg, discardLogger())
	assert.Error(t, err)
}

func TestStoredSnapshot(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "planner.db")

	cfg := testConfig(t)
	cfg.DBPath = dbPath
	cfg.StoreSnapshot = true
	fromFeed, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	var logs bytes.Buffer
	cfg = testConfig(t)
	cfg.GTFSSource = ""
	cfg.DBPath = dbPath
	cfg.Date = "2024-03-19"
	fromStore, err := New(context.Background(), cfg, logging.NewStructuredLogger(&logs, slog.LevelInfo))
	require.NoError(t, err)
	assert.Nil(t, fromStore.GtfsManager)
	assert.Equal(t, fromFeed.Snapshot.Stats(), fromStore.Snapshot.Stats())
	assert.Equal(t, fromFeed.Network.Stats(), fromStore.Network.Stats())
	assert.Contains(t, logs.String(), "stored snapshot is for another service date")

	result, err := fromStore.Plan()
	require.NoError(t, err)
	assert.Equal(t, graph.Weight(1140), result.Distance)
}

func TestStoredSnapshotWindow(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "planner.db")
	cfg := testConfig(t)
	cfg.DBPath = dbPath
	cfg.StoreSnapshot = true
	_, err := New(context.Background(), cfg, discardLogger())
	require.NoError(t, err)

	fromStore := func(start, end string, logger *slog.Logger) (*Application, error) {
		cfg := testConfig(t)
		cfg.GTFSSource = ""
		cfg.DBPath = dbPath
		cfg.WindowStart = start
		cfg.WindowEnd = end
		return New(context.Background(), cfg, logger)
	}

	t.Run("outside the stored window", func(t *testing.T) {
		_, err := fromStore("09:30:00", "11:00:00", discardLogger())
		assert.ErrorIs(t, err, ErrWindowNotStored)

		_, err = fromStore("07:00:00", "09:00:00", discardLogger())
		assert.ErrorIs(t, err, ErrWindowNotStored)
	})

	t.Run("inside the stored window", func(t *testing.T) {
		var logs bytes.Buffer
		application, err := fromStore("08:05:00", "10:00:00", logging.NewStructuredLogger(&logs, slog.LevelInfo))
		require.NoError(t, err)

		assert.Equal(t, schedule.NewTime(8, 5, 0), application.Snapshot.WindowStart())
		assert.Equal(t, 3, application.Snapshot.Stats().StopEvents)
		for _, trip := range application.Snapshot.Trips() {
			for _, id := range trip.Events {
				e, ok := application.Snapshot.Event(id)
				require.True(t, ok)
				assert.GreaterOrEqual(t, e.Departure, schedule.NewTime(8, 5, 0))
			}
		}
		assert.Contains(t, logs.String(), `"msg":"stored_snapshot_restricted"`)
	})

	t.Run("same window", func(t *testing.T) {
		application, err := fromStore("08:00:00", "10:00:00", discardLogger())
		require.NoError(t, err)
		assert.Equal(t, 4, application.Snapshot.Stats().StopEvents)
	})
}

func TestStoredSnapshotMissing(t *testing.T) {
	cfg := testConfig(t)
	cfg.GTFSSource = ""
	cfg.DBPath = filepath.Join(t.TempDir(), "empty.db")
	_, err := New(context.Background(), cfg, discardLogger())
	assert.ErrorContains(t, err, "no snapshot stored")
}

func TestRender(t *testing.T) {
	cfg := testConfig(t)

	t.Run("text", func(t *testing.T) {
		application, err := New(context.Background(), cfg, discardLogger())
		require.NoError(t, err)
		result, err := application.Plan()
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, application.Render(&out, result))
		text := out.String()
		assert.True(t, strings.HasPrefix(text, "Itinerary for 2024-03-18, leaving at 08:00:00 and arriving at 08:19:00 (0h 19m 00s)."))
		assert.Contains(t, text, "Take bus 51 towards Nord from Alpha to Bravo")
		assert.Contains(t, text, "about 0 m from Origin to Alpha")
	})

	t.Run("json", func(t *testing.T) {
		jsonCfg := cfg
		jsonCfg.Format = "json"
		application, err := New(context.Background(), jsonCfg, discardLogger())
		require.NoError(t, err)
		result, err := application.Plan()
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, application.Render(&out, result))

		var response struct {
			Code int `json:"code"`
			Data struct {
				Outcome         string            `json:"outcome"`
				DurationSeconds int               `json:"durationSeconds"`
				Steps           []json.RawMessage `json:"steps"`
				Polyline        string            `json:"polyline"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(out.Bytes(), &response))
		assert.Equal(t, 200, response.Code)
		assert.Equal(t, "found", response.Data.Outcome)
		assert.Equal(t, 1140, response.Data.DurationSeconds)
		assert.Len(t, response.Data.Steps, 4)
		assert.NotEmpty(t, response.Data.Polyline)
	})

	t.Run("csv", func(t *testing.T) {
		csvCfg := cfg
		csvCfg.Format = "csv"
		application, err := New(context.Background(), csvCfg, discardLogger())
		require.NoError(t, err)
		result, err := application.Plan()
		require.NoError(t, err)

		var out bytes.Buffer
		require.NoError(t, application.Render(&out, result))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		assert.Len(t, lines, 5)
		assert.True(t, strings.HasPrefix(lines[0], "query_id,step,kind"))
	})
}
