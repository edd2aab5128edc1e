// Package store persists parsed hand records and derived player statistics
// in SQLite. It owns uniqueness enforcement on hand ids and the replace-all
// semantics for recomputed statistics; the parsing and reconstruction
// packages stay storage-free.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS hands (
    hand_id     TEXT PRIMARY KEY,
    played_at   TEXT NOT NULL,
    timezone    TEXT NOT NULL DEFAULT '',
    table_name  TEXT NOT NULL DEFAULT '',
    table_type  TEXT NOT NULL DEFAULT '',
    game_type   TEXT NOT NULL DEFAULT '',
    button_seat INTEGER NOT NULL DEFAULT 0,
    small_blind REAL NOT NULL,
    big_blind   REAL NOT NULL,
    currency    TEXT NOT NULL DEFAULT '',
    winner      TEXT NOT NULL DEFAULT '',
    bb_won      REAL,
    pot_total   REAL NOT NULL DEFAULT 0,
    rake        REAL NOT NULL DEFAULT 0,
    board       TEXT NOT NULL DEFAULT '[]',
    seats       TEXT NOT NULL DEFAULT '[]',
    stages      TEXT NOT NULL DEFAULT '{}',
    player_ids  TEXT NOT NULL DEFAULT '[]',
    contrib     TEXT NOT NULL DEFAULT '{}',
    created_at  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_hands_table_time ON hands(table_name, played_at);

CREATE TABLE IF NOT EXISTS players (
    player_id      TEXT PRIMARY KEY,
    total_hands    INTEGER NOT NULL,
    total_bb       REAL NOT NULL,
    mbb_per_hand   REAL NOT NULL,
    mbb_per_hour   REAL,
    hands_per_hour REAL,
    active_hours   REAL NOT NULL,
    tables         INTEGER NOT NULL,
    table_sessions INTEGER NOT NULL,
    table_data     TEXT NOT NULL DEFAULT '[]',
    first_hand_at  TEXT NOT NULL DEFAULT '',
    last_hand_at   TEXT NOT NULL DEFAULT '',
    updated_at     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS ingest_runs (
    run_id      TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT NOT NULL DEFAULT '',
    files       INTEGER NOT NULL DEFAULT 0,
    hands       INTEGER NOT NULL DEFAULT 0,
    duplicates  INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0
);
`

// timeFormat stores timestamps as sortable UTC-naive strings, matching the
// hand history format's second precision.
const timeFormat = "2006-01-02 15:04:05"

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory if needed, opens the database, and
// applies the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeFormat)
}

func parseTime(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeFormat, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
