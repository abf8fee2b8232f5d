// Package store defines the persistence interfaces the orchestrator uses to
// carry samples, the learned baseline, and controller state across cycles.
package store

import (
	"context"
	"time"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
	"github.com/ekobres/NetworkOptimizer-sub006/baseline"
)

// Store is the root persistence handle.
type Store interface {
	Samples() SampleStore
	Baseline() BaselineStore
	State() StateStore
	Close() error
}

// SampleStore manages raw throughput samples, the input to batch baseline
// recomputation.
type SampleStore interface {
	Insert(ctx context.Context, s netopt.ThroughputSample) error
	List(ctx context.Context, from, to time.Time) ([]netopt.ThroughputSample, error)
	PurgeOlderThan(ctx context.Context, before time.Time) error
}

// BaselineStore persists the learned baseline table. Save replaces the stored
// table wholesale.
type BaselineStore interface {
	Save(ctx context.Context, t *baseline.Table) error
	Load(ctx context.Context) (*baseline.Table, error)
}

// StateStore persists the single controller state record. Load reports false
// when no state has been saved yet.
type StateStore interface {
	Save(ctx context.Context, st netopt.ControllerState) error
	Load(ctx context.Context) (netopt.ControllerState, bool, error)
}
