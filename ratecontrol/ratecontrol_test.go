package ratecontrol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
)

func testConfig(t *testing.T) netopt.RateControlConfig {
	t.Helper()
	cfg, err := netopt.NewConfigBuilder().
		WithLatency(15, 2).
		WithAdjustmentFactors(0.97, 1.01).
		WithRates(50, 940, 940).
		Build()
	require.NoError(t, err)
	return cfg
}

func TestAdjustCongestedDecay(t *testing.T) {
	// latency 19ms = baseline 15 + 2 deviation units of 2ms:
	// 200 * 0.97^2 = 188.18.
	cfg := testConfig(t)
	d, err := Adjust(200, 19, cfg)
	require.NoError(t, err)
	assert.Equal(t, RegimeCongested, d.Regime)
	assert.InDelta(t, 2, d.Deviations, 1e-9)
	assert.InDelta(t, 188.2, d.RateMbps, 1e-9)
}

func TestAdjustCongestedFractionalDeviations(t *testing.T) {
	// latency 20ms is 2.5 deviation units above baseline; the exponent is
	// fractional, not floored.
	cfg := testConfig(t)
	d, err := Adjust(200, 20, cfg)
	require.NoError(t, err)
	assert.Equal(t, RegimeCongested, d.Regime)
	assert.InDelta(t, 2.5, d.Deviations, 1e-9)
	expected := math.Round(200*math.Pow(0.97, 2.5)*10) / 10
	assert.InDelta(t, expected, d.RateMbps, 1e-9)
}

func TestAdjustCongestedFloorsAtMinRate(t *testing.T) {
	cfg := testConfig(t)
	d, err := Adjust(52, 100, cfg)
	require.NoError(t, err)
	assert.Equal(t, RegimeCongested, d.Regime)
	assert.Equal(t, cfg.MinRateMbps, d.RateMbps)
}

func TestAdjustRelievedRegime(t *testing.T) {
	cfg := testConfig(t) // relieved below 15 - 0.4 = 14.6
	tests := []struct {
		name     string
		current  float64
		expected float64
	}{
		{
			name:     "below lower bound takes a double step",
			current:  500, // < 940*0.92 = 864.8
			expected: 510.1,
		},
		{
			name:     "between bounds snaps to mid bound",
			current:  870, // between 864.8 and 940*0.94 = 883.6
			expected: 883.6,
		},
		{
			name:     "above mid bound holds",
			current:  890,
			expected: 890,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Adjust(tc.current, 14, cfg)
			require.NoError(t, err)
			assert.Equal(t, RegimeRelieved, d.Regime)
			assert.InDelta(t, tc.expected, d.RateMbps, 0.05)
		})
	}
}

func TestAdjustNormalRegime(t *testing.T) {
	cfg := testConfig(t) // normal bounds: 940*0.90 = 846, 940*0.92 = 864.8
	tests := []struct {
		name     string
		current  float64
		latency  float64
		expected float64
	}{
		{
			name:     "below lower bound takes a single step",
			current:  800,
			latency:  15.2,
			expected: 808,
		},
		{
			name:     "between bounds snaps to mid bound",
			current:  850,
			latency:  15.2,
			expected: 864.8,
		},
		{
			name:     "above mid bound holds",
			current:  870,
			latency:  15.2,
			expected: 870,
		},
		{
			name:     "latency past headroom holds regardless of rate",
			current:  800,
			latency:  15.35,
			expected: 800,
		},
		{
			name:     "latency just inside relieved hysteresis stays normal",
			current:  870,
			latency:  14.7,
			expected: 870,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Adjust(tc.current, tc.latency, cfg)
			require.NoError(t, err)
			assert.Equal(t, RegimeNormal, d.Regime)
			assert.InDelta(t, tc.expected, d.RateMbps, 0.05)
		})
	}
}

func TestAdjustRelievedRegimeSelection(t *testing.T) {
	// 14 < 15 - 0.4 = 14.6 selects the relieved regime.
	cfg := testConfig(t)
	d, err := Adjust(500, 14, cfg)
	require.NoError(t, err)
	assert.Equal(t, RegimeRelieved, d.Regime)
}

func TestAdjustCeiling(t *testing.T) {
	cfg := testConfig(t)
	for _, latency := range []float64{10, 14.8, 19, 40} {
		d, err := Adjust(940, latency, cfg)
		require.NoError(t, err)
		assert.LessOrEqual(t, d.RateMbps, cfg.AbsoluteMaxRateMbps*0.95)
		assert.LessOrEqual(t, d.RateMbps, cfg.MaxRateMbps)
	}
}

func TestAdjustClampsToMaxRate(t *testing.T) {
	cfg, err := netopt.NewConfigBuilder().
		WithLatency(15, 2).
		WithRates(50, 600, 940).
		Build()
	require.NoError(t, err)

	// Relieved snap targets 940*0.94 = 883.6, but the configured maximum is
	// lower and wins.
	d, err := Adjust(870, 14, cfg)
	require.NoError(t, err)
	assert.Equal(t, 600.0, d.RateMbps)
}

func TestAdjustHoldsOnUnusableLatency(t *testing.T) {
	cfg := testConfig(t)
	for _, latency := range []float64{0, -4, math.NaN()} {
		d, err := Adjust(500, latency, cfg)
		require.NoError(t, err)
		assert.Equal(t, RegimeInvalid, d.Regime)
		assert.Equal(t, 500.0, d.RateMbps, "rate held unchanged")
	}
}

func TestAdjustRejectsInvalidRate(t *testing.T) {
	cfg := testConfig(t)
	for _, rate := range []float64{0, -100, math.NaN()} {
		_, err := Adjust(rate, 15, cfg)
		var verr *netopt.ValidationError
		assert.ErrorAs(t, err, &verr)
	}
}

func TestRegimeString(t *testing.T) {
	assert.Equal(t, "normal", RegimeNormal.String())
	assert.Equal(t, "congested", RegimeCongested.String())
	assert.Equal(t, "relieved", RegimeRelieved.String())
	assert.Equal(t, "invalid", RegimeInvalid.String())
	assert.Equal(t, "unknown", Regime(42).String())
}
