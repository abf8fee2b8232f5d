package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
)

type stateStore struct {
	db *sql.DB
}

func (s *stateStore) Save(ctx context.Context, st netopt.ControllerState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO controller_state (id, current_rate_mbps, last_known_max_mbps, reason, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_rate_mbps = excluded.current_rate_mbps,
			last_known_max_mbps = excluded.last_known_max_mbps,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		st.CurrentRateMbps, st.LastKnownMaxRateMbps, st.LastAdjustmentReason, st.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *stateStore) Load(ctx context.Context) (netopt.ControllerState, bool, error) {
	var st netopt.ControllerState
	err := s.db.QueryRowContext(ctx, `
		SELECT current_rate_mbps, last_known_max_mbps, reason, updated_at
		FROM controller_state WHERE id = 1`).
		Scan(&st.CurrentRateMbps, &st.LastKnownMaxRateMbps, &st.LastAdjustmentReason, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return netopt.ControllerState{}, false, nil
	}
	if err != nil {
		return netopt.ControllerState{}, false, fmt.Errorf("load state: %w", err)
	}
	return st, true, nil
}
