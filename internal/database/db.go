// Package database journals completed plays in PostgreSQL.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Database is the play journal.
type Database struct {
	DB     *sql.DB
	logger *slog.Logger
}

// New opens dsn and verifies the connection.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Database, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &Database{DB: db, logger: logger}, nil
}

// Init creates the journal tables if they don't exist.
func (d *Database) Init(ctx context.Context) error {
	createTables := `
	CREATE TABLE IF NOT EXISTS plays (
		play_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		mark_in TIMESTAMPTZ NOT NULL,
		mark_out TIMESTAMPTZ NOT NULL,
		play_type TEXT NOT NULL DEFAULT '',
		result TEXT NOT NULL DEFAULT '',
		quarter INTEGER,
		down INTEGER,
		distance INTEGER,
		yard_line INTEGER
	);

	CREATE TABLE IF NOT EXISTS play_agents (
		play_id TEXT NOT NULL REFERENCES plays(play_id) ON DELETE CASCADE,
		agent_id TEXT NOT NULL,
		channel_id TEXT NOT NULL,
		ok BOOLEAN NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (play_id, agent_id)
	);

	CREATE INDEX IF NOT EXISTS plays_session_idx ON plays (session_id, mark_in);
	`

	if _, err := d.DB.ExecContext(ctx, createTables); err != nil {
		return fmt.Errorf("create journal tables: %w", err)
	}
	return nil
}

func (d *Database) Close() error {
	return d.DB.Close()
}
