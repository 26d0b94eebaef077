package gtfs

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// testFeed is a small GTFS feed. 2024-03-18 is a Monday.
var testFeed = map[string]string{
	"agency.txt": `agency_id,agency_name,agency_url,agency_timezone
STM,Societe de transport,https://stm.info,America/Montreal
`,
	"routes.txt": `route_id,agency_id,route_short_name,route_long_name,route_type
51,STM,51,Edouard-Montpetit,3
1,STM,,Ligne verte,1
`,
	"stops.txt": `stop_id,stop_name,stop_lat,stop_lon
A,Alpha,45.5000,-73.5700
B,Bravo,45.5100,-73.5700
C,Charlie,45.5200,-73.5700
X,Unused,45.6000,-73.5000
`,
	"calendar.txt": `service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date
WEEK,1,1,1,1,1,0,0,20240101,20241231
SUN,0,0,0,0,0,0,1,20240101,20241231
`,
	"calendar_dates.txt": `service_id,date,exception_type
SPECIAL,20240318,1
WEEK,20240319,2
`,
	"trips.txt": `route_id,service_id,trip_id,trip_headsign
51,WEEK,T1,Nord
51,WEEK,T2,Nord
1,SUN,T3,Est
1,SPECIAL,T4,Ouest
`,
	"stop_times.txt": `trip_id,arrival_time,departure_time,stop_id,stop_sequence
T1,08:00:00,08:01:00,A,1
T1,08:10:00,08:10:00,B,2
T2,08:12:00,08:12:00,B,1
T2,08:20:00,08:20:00,C,2
T2,10:05:00,10:05:00,A,3
T3,08:00:00,08:00:00,A,1
T3,08:30:00,08:30:00,C,2
T4,07:50:00,07:50:00,A,1
T4,08:40:00,08:40:00,C,2
`,
	"transfers.txt": `from_stop_id,to_stop_id,transfer_type,min_transfer_time
A,B,2,0
B,C,2,180
C,C,1,
A,X,2,60
`,
}

func buildFeed(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFeed(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gtfs.zip")
	require.NoError(t, os.WriteFile(path, buildFeed(t, files), 0o600))
	return path
}
