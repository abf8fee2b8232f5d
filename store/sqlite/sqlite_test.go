package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
	"github.com/ekobres/NetworkOptimizer-sub006/baseline"
	"github.com/ekobres/NetworkOptimizer-sub006/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestSampleInsertAndList(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	s := netopt.NewThroughputSample(at, 850.5, 38.2, 14.7)
	require.NoError(t, st.Samples().Insert(ctx, s))

	got, err := st.Samples().List(ctx, at.Add(-time.Hour), at.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].DayOfWeek)
	assert.Equal(t, 10, got[0].Hour)
	assert.Equal(t, 850.5, got[0].DownloadMbps)
	assert.Equal(t, 38.2, got[0].UploadMbps)
	assert.Equal(t, 14.7, got[0].LatencyMs)
	assert.True(t, got[0].Timestamp.Equal(at))
}

func TestSampleListWindow(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		s := netopt.NewThroughputSample(base.Add(time.Duration(i)*time.Hour), 100, 10, 15)
		require.NoError(t, st.Samples().Insert(ctx, s))
	}

	got, err := st.Samples().List(ctx, base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Len(t, got, 2, "the window is half-open")
}

func TestSamplePurge(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s := netopt.NewThroughputSample(base.AddDate(0, 0, i), 100, 10, 15)
		require.NoError(t, st.Samples().Insert(ctx, s))
	}
	require.NoError(t, st.Samples().PurgeOlderThan(ctx, base.AddDate(0, 0, 2)))

	got, err := st.Samples().List(ctx, base.AddDate(0, 0, -1), base.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestBaselineSaveAndLoad(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	table := baseline.NewTable()
	table.CollectionStarted = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	table.LastUpdated = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, table.SetBucket(0, 10, baseline.Bucket{
		Mean:        840,
		StdDev:      12.5,
		Min:         700,
		Max:         910,
		Median:      845.5,
		SampleCount: 9,
		LastUpdated: time.Date(2024, 1, 29, 10, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, st.Baseline().Save(ctx, table))

	got, err := st.Baseline().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PopulatedCount())
	assert.True(t, got.CollectionStarted.Equal(table.CollectionStarted))
	assert.True(t, got.LastUpdated.Equal(table.LastUpdated))

	b, ok := got.LookupSlot(0, 10)
	require.True(t, ok)
	assert.Equal(t, 840.0, b.Mean)
	assert.Equal(t, 12.5, b.StdDev)
	assert.Equal(t, 700.0, b.Min)
	assert.Equal(t, 910.0, b.Max)
	assert.Equal(t, 845.5, b.Median)
	assert.Equal(t, 9, b.SampleCount)
}

func TestBaselineSaveReplacesWholesale(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	first := baseline.NewTable()
	require.NoError(t, first.SetBucket(0, 10, baseline.Bucket{Median: 100}))
	require.NoError(t, first.SetBucket(1, 11, baseline.Bucket{Median: 200}))
	require.NoError(t, st.Baseline().Save(ctx, first))

	second := baseline.NewTable()
	require.NoError(t, second.SetBucket(3, 3, baseline.Bucket{Median: 300}))
	require.NoError(t, st.Baseline().Save(ctx, second))

	got, err := st.Baseline().Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got.PopulatedCount())
	_, ok := got.LookupSlot(0, 10)
	assert.False(t, ok)
}

func TestBaselineLoadEmpty(t *testing.T) {
	st := newTestStore(t)
	got, err := st.Baseline().Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, got.PopulatedCount())
	assert.False(t, got.IsComplete())
}

func TestStateSaveAndLoad(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, found, err := st.State().Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	state := netopt.ControllerState{
		CurrentRateMbps:      870.4,
		LastKnownMaxRateMbps: 893,
		LastAdjustmentReason: "latency nominal, at capacity",
		UpdatedAt:            time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.State().Save(ctx, state))

	got, found, err := st.State().Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, state.CurrentRateMbps, got.CurrentRateMbps)
	assert.Equal(t, state.LastKnownMaxRateMbps, got.LastKnownMaxRateMbps)
	assert.Equal(t, state.LastAdjustmentReason, got.LastAdjustmentReason)
	assert.True(t, got.UpdatedAt.Equal(state.UpdatedAt))

	// The single state row is overwritten, not appended.
	state.CurrentRateMbps = 500
	require.NoError(t, st.State().Save(ctx, state))
	got, found, err = st.State().Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 500.0, got.CurrentRateMbps)
}
