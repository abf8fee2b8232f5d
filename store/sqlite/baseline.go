package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ekobres/NetworkOptimizer-sub006/baseline"
)

type baselineStore struct {
	db *sql.DB
}

// Save replaces the persisted baseline table wholesale inside a transaction.
func (s *baselineStore) Save(ctx context.Context, t *baseline.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save baseline: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM baseline_buckets`); err != nil {
		return fmt.Errorf("clear baseline: %w", err)
	}

	var insertErr error
	t.Each(func(dayOfWeek, hour int, b baseline.Bucket) {
		if insertErr != nil {
			return
		}
		_, insertErr = tx.ExecContext(ctx, `
			INSERT INTO baseline_buckets
				(day_of_week, hour, mean, stddev, min, max, median, sample_count, last_updated)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			dayOfWeek, hour, b.Mean, b.StdDev, b.Min, b.Max, b.Median,
			b.SampleCount, nullableTime(b.LastUpdated))
	})
	if insertErr != nil {
		return fmt.Errorf("insert bucket: %w", insertErr)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO baseline_meta (id, collection_started, last_updated)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			collection_started = excluded.collection_started,
			last_updated = excluded.last_updated`,
		nullableTime(t.CollectionStarted), nullableTime(t.LastUpdated)); err != nil {
		return fmt.Errorf("save baseline meta: %w", err)
	}
	return tx.Commit()
}

// Load rebuilds the baseline table from storage. An empty database yields an
// empty, incomplete table.
func (s *baselineStore) Load(ctx context.Context) (*baseline.Table, error) {
	t := baseline.NewTable()

	var started, updated sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT collection_started, last_updated FROM baseline_meta WHERE id = 1`).
		Scan(&started, &updated)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("load baseline meta: %w", err)
	}
	if started.Valid {
		t.CollectionStarted = started.Time
	}
	if updated.Valid {
		t.LastUpdated = updated.Time
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT day_of_week, hour, mean, stddev, min, max, median, sample_count, last_updated
		FROM baseline_buckets`)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dayOfWeek, hour int
		var b baseline.Bucket
		var last sql.NullTime
		if err := rows.Scan(&dayOfWeek, &hour, &b.Mean, &b.StdDev, &b.Min, &b.Max,
			&b.Median, &b.SampleCount, &last); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		if last.Valid {
			b.LastUpdated = last.Time
		}
		if err := t.SetBucket(dayOfWeek, hour, b); err != nil {
			return nil, fmt.Errorf("load baseline: %w", err)
		}
	}
	return t, rows.Err()
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}
