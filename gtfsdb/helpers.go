package gtfsdb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/opentransit/planner/internal/appconf"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schema.sql
var ddl string

const memoryDB = ":memory:"

// ErrFileDBInTest is returned when a test configuration points at a file.
var ErrFileDBInTest = errors.New("test database must use in-memory storage")

// createDB opens the SQLite database and applies the schema
func createDB(ctx context.Context, config Config) (*sql.DB, error) {
	if config.Env == appconf.Test && config.DBPath != memoryDB {
		return nil, fmt.Errorf("%w: got %s", ErrFileDBInTest, config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if config.DBPath == memoryDB {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error enabling foreign keys: %w", err)
	}

	if err := performDatabaseMigration(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

// toNullString converts a string to sql.NullString
func toNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}
