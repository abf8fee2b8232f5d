package ratecontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLatencyTracker(t *testing.T) {
	tr := NewLatencyTracker()
	assert.Equal(t, 0, tr.Count())
	assert.Equal(t, 0.0, tr.Quantile(0.5))

	for _, ms := range []float64{14, 15, 15, 16, 15, 40, 14, 15} {
		tr.Record(ms)
	}
	assert.Equal(t, 8, tr.Count())
	assert.Equal(t, 14.0, tr.Min())
	assert.Equal(t, 40.0, tr.Max())
	assert.InDelta(t, 15, tr.SuggestedBaseline(), 1.0)
	assert.Greater(t, tr.Quantile(0.99), tr.Quantile(0.5))
}

func TestLatencyTrackerIgnoresUnusableReadings(t *testing.T) {
	tr := NewLatencyTracker()
	tr.Record(0)
	tr.Record(-3)
	assert.Equal(t, 0, tr.Count())

	tr.Record(12)
	assert.Equal(t, 1, tr.Count())
	assert.Equal(t, 12.0, tr.Min())
	assert.Equal(t, 12.0, tr.Max())
}
