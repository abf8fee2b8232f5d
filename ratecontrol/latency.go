package ratecontrol

import "github.com/influxdata/tdigest"

// LatencyTracker accumulates observed round-trip times and summarizes their
// distribution, so an operator can pick a baseline latency from data instead
// of hand-tuning it.
//
// This type is not concurrency safe.
type LatencyTracker struct {
	digest *tdigest.TDigest
	count  int
	minMs  float64
	maxMs  float64
}

// NewLatencyTracker returns an empty tracker.
func NewLatencyTracker() *LatencyTracker {
	return &LatencyTracker{digest: tdigest.NewWithCompression(100)}
}

// Record adds one round-trip time in milliseconds. Non-positive readings are
// ignored.
func (t *LatencyTracker) Record(latencyMs float64) {
	if latencyMs <= 0 {
		return
	}
	t.digest.Add(latencyMs, 1)
	if t.count == 0 {
		t.minMs, t.maxMs = latencyMs, latencyMs
	} else {
		t.minMs = min(t.minMs, latencyMs)
		t.maxMs = max(t.maxMs, latencyMs)
	}
	t.count++
}

// Quantile returns the estimated latency at quantile q in [0, 1], or 0 if
// nothing has been recorded.
func (t *LatencyTracker) Quantile(q float64) float64 {
	if t.count == 0 {
		return 0
	}
	return t.digest.Quantile(q)
}

// SuggestedBaseline returns the median observed latency, a reasonable value
// for RateControlConfig.BaselineLatencyMs.
func (t *LatencyTracker) SuggestedBaseline() float64 {
	return t.Quantile(0.5)
}

// Count returns how many readings have been recorded.
func (t *LatencyTracker) Count() int { return t.count }

// Min returns the smallest recorded reading, or 0 if none.
func (t *LatencyTracker) Min() float64 { return t.minMs }

// Max returns the largest recorded reading, or 0 if none.
func (t *LatencyTracker) Max() float64 { return t.maxMs }
