// Package orchestrator composes the core computations into the two cycle
// types the external scheduler invokes: infrequent full-measurement cycles
// and frequent latency-adjustment cycles. It owns persistence of the baseline
// table and controller state; the expensive collaborators (throughput test,
// latency probe, enforcement) stay behind interfaces.
//
// The two cycle kinds must not overlap on the same shaped interface; the
// external schedule guarantees that, not this package.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/errgroup"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
	"github.com/ekobres/NetworkOptimizer-sub006/baseline"
	"github.com/ekobres/NetworkOptimizer-sub006/ratecontrol"
	"github.com/ekobres/NetworkOptimizer-sub006/reconcile"
	"github.com/ekobres/NetworkOptimizer-sub006/store"
)

// Measurement is the converted result of one completed throughput test.
type Measurement struct {
	DownloadMbps float64
	UploadMbps   float64
	LatencyMs    float64
}

// MeasurementSource runs a full throughput test. The real implementation
// wraps an external speedtest CLI and is out of scope here.
type MeasurementSource interface {
	Measure(ctx context.Context) (Measurement, error)
}

// LatencySource reports the average round-trip time to a host in
// milliseconds. The real implementation averages ICMP probes.
type LatencySource interface {
	AverageRTT(ctx context.Context, host string) (float64, error)
}

// Engine wires the baseline model, reconciler, and rate controller to
// persistence and the measurement collaborators.
type Engine struct {
	cfg          netopt.RateControlConfig
	store        store.Store
	measurements MeasurementSource
	latency      LatencySource
	clock        clock.Clock
	logger       *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used to timestamp cycles, for tests.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger enables decision logging.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine for the given config, store, and collaborators.
func New(cfg netopt.RateControlConfig, st store.Store, m MeasurementSource, l LatencySource, opts ...Option) *Engine {
	e := &Engine{
		cfg:          cfg,
		store:        st,
		measurements: m,
		latency:      l,
		clock:        clock.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MeasurementCycle runs one full-measurement cycle: collect a throughput test
// and a latency average concurrently, record the sample, refine the baseline
// bucket, reconcile the measurement into a new known-max rate, and persist
// the updated controller state, which is returned.
func (e *Engine) MeasurementCycle(ctx context.Context) (netopt.ControllerState, error) {
	var m Measurement
	var rtt float64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m, err = e.measurements.Measure(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rtt, err = e.latency.AverageRTT(gctx, e.cfg.PingHost)
		return err
	})
	if err := g.Wait(); err != nil {
		return netopt.ControllerState{}, fmt.Errorf("collect measurement: %w", err)
	}

	now := e.clock.Now()
	sample := netopt.NewThroughputSample(now, m.DownloadMbps, m.UploadMbps, rtt)
	if err := e.store.Samples().Insert(ctx, sample); err != nil {
		return netopt.ControllerState{}, err
	}

	table, err := e.store.Baseline().Load(ctx)
	if err != nil {
		return netopt.ControllerState{}, err
	}

	// Blend against the slot's prior expectation, then fold the sample in.
	var baselineMbps float64
	if b, ok := table.LookupSlot(sample.DayOfWeek, sample.Hour); ok {
		baselineMbps = b.Median
	}
	if err := table.Update(sample); err != nil {
		return netopt.ControllerState{}, err
	}
	if err := e.store.Baseline().Save(ctx, table); err != nil {
		return netopt.ControllerState{}, err
	}

	res := reconcile.Reconcile(m.DownloadMbps, baselineMbps, e.cfg)
	state := netopt.ControllerState{
		CurrentRateMbps:      res.RateMbps,
		LastKnownMaxRateMbps: res.RateMbps,
		LastAdjustmentReason: res.Reason,
		UpdatedAt:            now,
	}
	if err := e.store.State().Save(ctx, state); err != nil {
		return netopt.ControllerState{}, err
	}

	if e.logger != nil {
		e.logger.Debug("measurement cycle",
			"measured", fmt.Sprintf("%.1f", m.DownloadMbps),
			"baseline", fmt.Sprintf("%.1f", baselineMbps),
			"blended", fmt.Sprintf("%.1f", res.BlendedMbps),
			"rate", res.RateMbps,
			"reason", res.Reason,
			"completion", fmt.Sprintf("%.1f%%", table.CompletionPercentage()))
	}
	return state, nil
}

// AdjustmentCycle runs one latency-adjustment cycle off the stored last-known
// maximum rate, persisting and returning the updated controller state. Before
// the first measurement cycle the configured maximum acts as the known-max
// rate.
func (e *Engine) AdjustmentCycle(ctx context.Context, latencyMs float64) (netopt.ControllerState, error) {
	state, found, err := e.store.State().Load(ctx)
	if err != nil {
		return netopt.ControllerState{}, err
	}
	if !found {
		state.LastKnownMaxRateMbps = e.cfg.MaxRateMbps
	}

	decision, err := ratecontrol.Adjust(state.LastKnownMaxRateMbps, latencyMs, e.cfg)
	if err != nil {
		return netopt.ControllerState{}, err
	}

	// An unusable reading keeps whatever rate is currently enforced.
	if decision.Regime != ratecontrol.RegimeInvalid || state.CurrentRateMbps <= 0 {
		state.CurrentRateMbps = decision.RateMbps
	}
	state.LastAdjustmentReason = decision.Reason
	state.UpdatedAt = e.clock.Now()
	if err := e.store.State().Save(ctx, state); err != nil {
		return netopt.ControllerState{}, err
	}

	if e.logger != nil {
		e.logger.Debug("adjustment cycle",
			"regime", decision.Regime.String(),
			"latency", fmt.Sprintf("%.1f", latencyMs),
			"deviations", fmt.Sprintf("%.2f", decision.Deviations),
			"maxRate", fmt.Sprintf("%.1f", state.LastKnownMaxRateMbps),
			"rate", decision.RateMbps,
			"reason", decision.Reason)
	}
	return state, nil
}

// ProbeAndAdjust measures latency via the configured source and runs an
// adjustment cycle with the result. A probe failure holds the current rate
// rather than failing the cycle.
func (e *Engine) ProbeAndAdjust(ctx context.Context) (netopt.ControllerState, error) {
	rtt, err := e.latency.AverageRTT(ctx, e.cfg.PingHost)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("latency probe failed, holding rate", "err", err)
		}
		rtt = 0 // treated as an unusable reading
	}
	return e.AdjustmentCycle(ctx, rtt)
}

// RecomputeBaseline rebuilds the baseline table from all stored samples and
// persists it, returning the new table.
func (e *Engine) RecomputeBaseline(ctx context.Context) (*baseline.Table, error) {
	samples, err := e.store.Samples().List(ctx, time.Time{}, e.clock.Now().AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	table := baseline.Recompute(samples)
	if err := e.store.Baseline().Save(ctx, table); err != nil {
		return nil, err
	}
	if e.logger != nil {
		e.logger.Info("baseline recomputed",
			"samples", len(samples),
			"buckets", table.PopulatedCount(),
			"completion", fmt.Sprintf("%.1f%%", table.CompletionPercentage()))
	}
	return table, nil
}

// ExportBaseline returns the stored baseline in its flat interchange form.
func (e *Engine) ExportBaseline(ctx context.Context) (map[string]string, error) {
	table, err := e.store.Baseline().Load(ctx)
	if err != nil {
		return nil, err
	}
	return table.Export(), nil
}

// LatencySummary summarizes the latency readings attached to samples recorded
// since the given time, for picking a baseline latency from data.
func (e *Engine) LatencySummary(ctx context.Context, since time.Time) (*ratecontrol.LatencyTracker, error) {
	samples, err := e.store.Samples().List(ctx, since, e.clock.Now().AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	tracker := ratecontrol.NewLatencyTracker()
	for _, s := range samples {
		tracker.Record(s.LatencyMs)
	}
	return tracker, nil
}
