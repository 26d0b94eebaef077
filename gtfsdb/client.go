package gtfsdb

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/opentransit/planner/internal/logging"
)

// Client stores and reloads schedule snapshots in SQLite
type Client struct {
	config Config
	DB     *sql.DB
}

// NewClient opens the database described by config and applies the schema
func NewClient(ctx context.Context, config Config) (*Client, error) {
	db, err := createDB(ctx, config)
	if err != nil {
		return nil, err
	}

	if config.verbose {
		logging.LogOperation(logging.FromContext(ctx), "database_ready",
			slog.String("db_path", config.DBPath),
			slog.String("env", config.Env.String()))
	}

	return &Client{
		config: config,
		DB:     db,
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}
