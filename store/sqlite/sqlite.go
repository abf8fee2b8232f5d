// Package sqlite implements store.Store on an embedded SQLite database,
// suitable for a gateway where the controller runs from cron with no external
// services.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ekobres/NetworkOptimizer-sub006/store"
)

type sqliteStore struct {
	db      *sql.DB
	samples *sampleStore
	base    *baselineStore
	state   *stateStore
}

// New opens (or creates) the database at dsn and runs migrations.
func New(dsn string) (store.Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite single-writer
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite migrate: %w", err)
	}
	return &sqliteStore{
		db:      db,
		samples: &sampleStore{db},
		base:    &baselineStore{db},
		state:   &stateStore{db},
	}, nil
}

func (s *sqliteStore) Samples() store.SampleStore    { return s.samples }
func (s *sqliteStore) Baseline() store.BaselineStore { return s.base }
func (s *sqliteStore) State() store.StateStore       { return s.state }
func (s *sqliteStore) Close() error                  { return s.db.Close() }

func migrate(db *sql.DB) error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS throughput_samples (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at DATETIME NOT NULL,
			day_of_week INTEGER NOT NULL,
			hour INTEGER NOT NULL,
			download_mbps REAL NOT NULL DEFAULT 0,
			upload_mbps REAL NOT NULL DEFAULT 0,
			latency_ms REAL NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_samples_recorded_at ON throughput_samples(recorded_at);`,
		`CREATE TABLE IF NOT EXISTS baseline_buckets (
			day_of_week INTEGER NOT NULL,
			hour INTEGER NOT NULL,
			mean REAL NOT NULL DEFAULT 0,
			stddev REAL NOT NULL DEFAULT 0,
			min REAL NOT NULL DEFAULT 0,
			max REAL NOT NULL DEFAULT 0,
			median REAL NOT NULL DEFAULT 0,
			sample_count INTEGER NOT NULL DEFAULT 0,
			last_updated DATETIME,
			PRIMARY KEY (day_of_week, hour)
		);`,
		`CREATE TABLE IF NOT EXISTS baseline_meta (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			collection_started DATETIME,
			last_updated DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS controller_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_rate_mbps REAL NOT NULL DEFAULT 0,
			last_known_max_mbps REAL NOT NULL DEFAULT 0,
			reason TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:min(40, len(stmt))], err)
		}
	}
	return nil
}
