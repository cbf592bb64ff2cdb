// Package persistence stores match snapshots in SQLite and applies tick
// diffs to them atomically.
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a game does not exist.
	ErrNotFound = errors.New("persistence: not found")

	// ErrConflict is returned when a diff is applied to a game whose clock
	// has moved since the base snapshot was loaded.
	ErrConflict = errors.New("persistence: game changed since load")
)

// DB wraps a SQLite connection for match storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite has a single writer.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		current_tick INTEGER NOT NULL,
		current_cycle INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		last_tick_at TEXT NOT NULL,
		ended_at TEXT NOT NULL,
		winner TEXT NOT NULL,
		settings_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS players (
		game_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		prestige INTEGER NOT NULL,
		victory INTEGER NOT NULL,
		status TEXT NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS hexes (
		game_id TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		owner TEXT NOT NULL,
		terrain TEXT NOT NULL,
		planet_id TEXT NOT NULL,
		station_id TEXT NOT NULL,
		unit_id TEXT NOT NULL,
		zoc_json TEXT NOT NULL,
		PRIMARY KEY (game_id, q, r)
	);

	CREATE TABLE IF NOT EXISTS units (
		game_id TEXT NOT NULL,
		id TEXT NOT NULL,
		owner TEXT NOT NULL,
		type TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		status TEXT NOT NULL,
		ap INTEGER NOT NULL,
		mp INTEGER NOT NULL,
		regroup_until INTEGER NOT NULL,
		steps_json TEXT NOT NULL,
		path_json TEXT NOT NULL,
		combat_json TEXT NOT NULL,
		supply_json TEXT NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS planets (
		game_id TEXT NOT NULL,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		owner TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		capital INTEGER NOT NULL,
		in_supply INTEGER NOT NULL,
		is_root INTEGER NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS stations (
		game_id TEXT NOT NULL,
		id TEXT NOT NULL,
		owner TEXT NOT NULL,
		q INTEGER NOT NULL,
		r INTEGER NOT NULL,
		in_supply INTEGER NOT NULL,
		counters_json TEXT NOT NULL,
		PRIMARY KEY (game_id, id)
	);

	CREATE TABLE IF NOT EXISTS combat_reports (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		report_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_game_tick ON combat_reports(game_id, tick);
	CREATE INDEX IF NOT EXISTS idx_units_game ON units(game_id);
	`
	_, err := db.conn.ExecContext(ctx, schema)
	return err
}

// SaveMeta stores a key-value pair of installation metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. A missing key yields ErrNotFound.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM meta WHERE key = ?", key)
	if err != nil {
		return "", notFound(err)
	}
	return value, nil
}
