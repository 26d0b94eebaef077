package gtfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/jamespfennell/gtfs"

	"github.com/opentransit/planner/internal/logging"
)

func rawGtfsData(ctx context.Context, source string, isLocalFile bool) ([]byte, error) {
	if isLocalFile {
		b, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("error reading local GTFS file: %w", err)
		}
		return b, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating GTFS request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading GTFS data: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, logging.FromContext(ctx), "gtfs_download")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading GTFS data: unexpected status %s", resp.Status)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading GTFS data: %w", err)
	}
	return b, nil
}

// ParseStatic parses a GTFS static zip archive held in memory.
func ParseStatic(b []byte) (*gtfs.Static, error) {
	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return nil, fmt.Errorf("error parsing GTFS data: %w", err)
	}
	return staticData, nil
}

// loadGTFSData loads and parses GTFS data from either a URL or a local file
func loadGTFSData(ctx context.Context, source string, isLocalFile bool) (*gtfs.Static, error) {
	b, err := rawGtfsData(ctx, source, isLocalFile)
	if err != nil {
		return nil, err
	}

	staticData, err := ParseStatic(b)
	if err != nil {
		return nil, err
	}

	logging.LogOperation(logging.FromContext(ctx), "gtfs_data_loaded",
		slog.String("source", source),
		slog.Int("bytes", len(b)),
		slog.Int("warnings", len(staticData.Warnings)))
	return staticData, nil
}
