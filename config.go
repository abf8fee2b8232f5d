package netopt

import "fmt"

// RateControlConfig holds the tunables for measurement reconciliation and
// latency-driven rate adjustment. Values are validated once at build time and
// treated as immutable for the duration of a cycle.
type RateControlConfig struct {
	// PingHost is the reference host latency is measured against.
	PingHost string

	// BaselineLatencyMs is the expected idle round-trip time to PingHost.
	BaselineLatencyMs float64

	// LatencyThresholdMs is the deviation unit above BaselineLatencyMs at
	// which the link is considered congested.
	LatencyThresholdMs float64

	// DecreaseFactor is the per-deviation multiplicative decay applied while
	// congested. Must be in (0, 1).
	DecreaseFactor float64

	// IncreaseFactor is the multiplicative recovery step applied while the
	// link has headroom. Must be greater than 1.
	IncreaseFactor float64

	MinRateMbps         float64
	MaxRateMbps         float64
	AbsoluteMaxRateMbps float64

	// BlendWeightWithin is the baseline weight used when a measurement lands
	// within 10% of the baseline. BlendWeightBelow is used when the
	// measurement dips more than 10% below the baseline, and must be at least
	// BlendWeightWithin: the more anomalous the measurement, the more the
	// baseline is trusted.
	BlendWeightWithin float64
	BlendWeightBelow  float64

	// OverheadMultiplier compensates for shaping overhead. Must be in
	// [1.0, 1.2].
	OverheadMultiplier float64
}

// ConfigBuilder builds RateControlConfig values.
//
// This type is not concurrency safe.
type ConfigBuilder struct {
	c RateControlConfig
}

// NewConfigBuilder returns a ConfigBuilder with defaults suitable for a
// shaped gigabit-class link.
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{c: RateControlConfig{
		PingHost:            "8.8.8.8",
		BaselineLatencyMs:   15,
		LatencyThresholdMs:  2,
		DecreaseFactor:      0.97,
		IncreaseFactor:      1.01,
		MinRateMbps:         50,
		MaxRateMbps:         940,
		AbsoluteMaxRateMbps: 940,
		BlendWeightWithin:   0.6,
		BlendWeightBelow:    0.8,
		OverheadMultiplier:  1.05,
	}}
}

// WithPingHost configures the latency reference host.
func (b *ConfigBuilder) WithPingHost(host string) *ConfigBuilder {
	b.c.PingHost = host
	return b
}

// WithLatency configures the expected idle round-trip time and the deviation
// unit used to detect congestion, both in milliseconds.
func (b *ConfigBuilder) WithLatency(baselineMs, thresholdMs float64) *ConfigBuilder {
	b.c.BaselineLatencyMs = baselineMs
	b.c.LatencyThresholdMs = thresholdMs
	return b
}

// WithAdjustmentFactors configures the congestion decay and recovery factors.
func (b *ConfigBuilder) WithAdjustmentFactors(decrease, increase float64) *ConfigBuilder {
	b.c.DecreaseFactor = decrease
	b.c.IncreaseFactor = increase
	return b
}

// WithRates configures the minimum, configured maximum, and absolute maximum
// rates in Mbps.
func (b *ConfigBuilder) WithRates(minMbps, maxMbps, absoluteMaxMbps float64) *ConfigBuilder {
	b.c.MinRateMbps = minMbps
	b.c.MaxRateMbps = maxMbps
	b.c.AbsoluteMaxRateMbps = absoluteMaxMbps
	return b
}

// WithBlendWeights configures the baseline blend weights for measurements
// within and below 10% of the baseline. Per-connection-type overrides go
// through here; the below weight must remain >= the within weight.
func (b *ConfigBuilder) WithBlendWeights(within, below float64) *ConfigBuilder {
	b.c.BlendWeightWithin = within
	b.c.BlendWeightBelow = below
	return b
}

// WithOverheadMultiplier configures the shaping overhead compensation.
func (b *ConfigBuilder) WithOverheadMultiplier(multiplier float64) *ConfigBuilder {
	b.c.OverheadMultiplier = multiplier
	return b
}

// Build validates the configuration and returns it. Invariant violations are
// rejected here, once, rather than per cycle.
func (b *ConfigBuilder) Build() (RateControlConfig, error) {
	c := b.c
	if err := c.Validate(); err != nil {
		return RateControlConfig{}, err
	}
	return c, nil
}

// Validate checks the configuration invariants.
func (c RateControlConfig) Validate() error {
	switch {
	case c.DecreaseFactor <= 0 || c.DecreaseFactor >= 1:
		return fmt.Errorf("decreaseFactor must be in (0, 1), got %v", c.DecreaseFactor)
	case c.IncreaseFactor <= 1:
		return fmt.Errorf("increaseFactor must be greater than 1, got %v", c.IncreaseFactor)
	case c.MinRateMbps <= 0:
		return fmt.Errorf("minRateMbps must be positive, got %v", c.MinRateMbps)
	case c.MinRateMbps >= c.MaxRateMbps:
		return fmt.Errorf("minRateMbps %v must be below maxRateMbps %v", c.MinRateMbps, c.MaxRateMbps)
	case c.AbsoluteMaxRateMbps < c.MaxRateMbps:
		return fmt.Errorf("absoluteMaxRateMbps %v must be at least maxRateMbps %v", c.AbsoluteMaxRateMbps, c.MaxRateMbps)
	case c.BlendWeightWithin < 0 || c.BlendWeightWithin > 1:
		return fmt.Errorf("blendWeightWithin must be in [0, 1], got %v", c.BlendWeightWithin)
	case c.BlendWeightBelow < 0 || c.BlendWeightBelow > 1:
		return fmt.Errorf("blendWeightBelow must be in [0, 1], got %v", c.BlendWeightBelow)
	case c.BlendWeightBelow < c.BlendWeightWithin:
		return fmt.Errorf("blendWeightBelow %v must be at least blendWeightWithin %v", c.BlendWeightBelow, c.BlendWeightWithin)
	case c.OverheadMultiplier < 1.0 || c.OverheadMultiplier > 1.2:
		return fmt.Errorf("overheadMultiplier must be in [1.0, 1.2], got %v", c.OverheadMultiplier)
	case c.LatencyThresholdMs <= 0:
		return fmt.Errorf("latencyThresholdMs must be positive, got %v", c.LatencyThresholdMs)
	case c.BaselineLatencyMs <= 0:
		return fmt.Errorf("baselineLatencyMs must be positive, got %v", c.BaselineLatencyMs)
	}
	return nil
}
