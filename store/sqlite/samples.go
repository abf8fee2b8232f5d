package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
)

type sampleStore struct {
	db *sql.DB
}

func (s *sampleStore) Insert(ctx context.Context, sm netopt.ThroughputSample) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO throughput_samples
			(recorded_at, day_of_week, hour, download_mbps, upload_mbps, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sm.Timestamp.UTC(), sm.DayOfWeek, sm.Hour, sm.DownloadMbps, sm.UploadMbps, sm.LatencyMs)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

func (s *sampleStore) List(ctx context.Context, from, to time.Time) ([]netopt.ThroughputSample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT recorded_at, day_of_week, hour, download_mbps, upload_mbps, latency_ms
		FROM throughput_samples
		WHERE recorded_at >= ? AND recorded_at < ?
		ORDER BY recorded_at`,
		from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	var out []netopt.ThroughputSample
	for rows.Next() {
		var sm netopt.ThroughputSample
		if err := rows.Scan(&sm.Timestamp, &sm.DayOfWeek, &sm.Hour,
			&sm.DownloadMbps, &sm.UploadMbps, &sm.LatencyMs); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *sampleStore) PurgeOlderThan(ctx context.Context, before time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM throughput_samples WHERE recorded_at < ?`, before.UTC())
	if err != nil {
		return fmt.Errorf("purge samples: %w", err)
	}
	return nil
}
