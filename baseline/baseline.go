// Package baseline learns the expected achievable throughput for each
// hour-of-week slot from historical measurements. A Table holds up to 168
// buckets, one per (dayOfWeek, hour) pair with 0=Monday. Buckets are
// populated either by a batch recompute over raw samples or refined online,
// one sample at a time.
package baseline

import (
	"math"
	"time"

	"github.com/bits-and-blooms/bitset"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
	"github.com/ekobres/NetworkOptimizer-sub006/internal/util"
)

// smoothingFactor is the weight given to a new sample during online bucket
// refinement.
const smoothingFactor = 0.2

// Bucket holds the learned download statistics for one hour-of-week slot.
type Bucket struct {
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64

	// Median is an exact order statistic after a batch recompute. Online
	// refinement seeds it from the first sample and then applies the same
	// exponential smoothing as Mean, so between recomputes it is a smoothed
	// estimate rather than a recomputed rank statistic.
	Median float64

	SampleCount int
	LastUpdated time.Time
}

// Table owns the hour-of-week buckets. It is created empty, populated by
// Recompute or Update, or replaced wholesale by Import. A table instance
// expects a single writer.
type Table struct {
	buckets   [netopt.HoursPerWeek]Bucket
	populated *bitset.BitSet

	CollectionStarted time.Time
	LastUpdated       time.Time
}

// NewTable returns an empty table with no populated buckets.
func NewTable() *Table {
	return &Table{populated: bitset.New(netopt.HoursPerWeek)}
}

func slotIndex(dayOfWeek, hour int) int {
	return dayOfWeek*24 + hour
}

func validSlot(dayOfWeek, hour int) bool {
	return dayOfWeek >= 0 && dayOfWeek <= 6 && hour >= 0 && hour <= 23
}

// Recompute builds a table from scratch by grouping samples into hour-of-week
// slots and computing each slot's statistics over its download rates. The
// result is independent of sample order. An empty sample set yields an empty,
// incomplete table.
func Recompute(samples []netopt.ThroughputSample) *Table {
	t := NewTable()
	groups := make(map[int][]float64)
	for _, s := range samples {
		if !validSlot(s.DayOfWeek, s.Hour) {
			continue
		}
		idx := slotIndex(s.DayOfWeek, s.Hour)
		groups[idx] = append(groups[idx], s.DownloadMbps)

		if t.CollectionStarted.IsZero() || s.Timestamp.Before(t.CollectionStarted) {
			t.CollectionStarted = s.Timestamp
		}
		if s.Timestamp.After(t.LastUpdated) {
			t.LastUpdated = s.Timestamp
		}
		if s.Timestamp.After(t.buckets[idx].LastUpdated) {
			t.buckets[idx].LastUpdated = s.Timestamp
		}
	}

	for idx, rates := range groups {
		mean := util.Mean(rates)
		b := &t.buckets[idx]
		b.Mean = mean
		b.StdDev = util.PopulationStdDev(rates, mean)
		b.Median = util.Median(rates)
		b.Min, b.Max = minMax(rates)
		b.SampleCount = len(rates)
		t.populated.Set(uint(idx))
	}
	return t
}

// Update refines one bucket online. The first sample for an unseen bucket
// seeds every statistic from that value; later samples are folded in with
// exponential smoothing (Mean, Median, variance) while Min and Max only ever
// widen. Returns a validation error for an out-of-range slot, leaving the
// table untouched.
func (t *Table) Update(sample netopt.ThroughputSample) error {
	if !validSlot(sample.DayOfWeek, sample.Hour) {
		return &netopt.ValidationError{
			Field:  "dayOfWeek/hour",
			Value:  float64(slotIndex(sample.DayOfWeek, sample.Hour)),
			Reason: "slot outside 0=Monday..6=Sunday x 0..23",
		}
	}

	idx := slotIndex(sample.DayOfWeek, sample.Hour)
	x := sample.DownloadMbps
	b := &t.buckets[idx]

	if !t.populated.Test(uint(idx)) {
		*b = Bucket{
			Mean:        x,
			Median:      x,
			Min:         x,
			Max:         x,
			SampleCount: 1,
			LastUpdated: sample.Timestamp,
		}
		t.populated.Set(uint(idx))
	} else {
		b.Mean = util.Smooth(b.Mean, x, smoothingFactor)
		b.Median = util.Smooth(b.Median, x, smoothingFactor)
		b.Min = min(b.Min, x)
		b.Max = max(b.Max, x)
		d := x - b.Mean
		b.StdDev = sqrtVariance(util.Smooth(b.StdDev*b.StdDev, d*d, smoothingFactor))
		b.SampleCount++
		b.LastUpdated = sample.Timestamp
	}

	if t.CollectionStarted.IsZero() {
		t.CollectionStarted = sample.Timestamp
	}
	t.LastUpdated = sample.Timestamp
	return nil
}

// Lookup returns the bucket for the wall-clock time's hour-of-week slot, or
// false if the slot has no data yet.
func (t *Table) Lookup(at time.Time) (Bucket, bool) {
	day, hour := netopt.Slot(at)
	return t.LookupSlot(day, hour)
}

// LookupSlot returns the bucket for an explicit (dayOfWeek, hour) slot, or
// false if the slot is invalid or has no data.
func (t *Table) LookupSlot(dayOfWeek, hour int) (Bucket, bool) {
	if !validSlot(dayOfWeek, hour) {
		return Bucket{}, false
	}
	idx := slotIndex(dayOfWeek, hour)
	if !t.populated.Test(uint(idx)) {
		return Bucket{}, false
	}
	return t.buckets[idx], true
}

// SetBucket installs a bucket for a slot, marking it populated. Used when
// rehydrating a table from persisted state.
func (t *Table) SetBucket(dayOfWeek, hour int, b Bucket) error {
	if !validSlot(dayOfWeek, hour) {
		return &netopt.ValidationError{
			Field:  "dayOfWeek/hour",
			Value:  float64(slotIndex(dayOfWeek, hour)),
			Reason: "slot outside 0=Monday..6=Sunday x 0..23",
		}
	}
	idx := slotIndex(dayOfWeek, hour)
	t.buckets[idx] = b
	t.populated.Set(uint(idx))
	return nil
}

// Each calls fn for every populated bucket in slot order.
func (t *Table) Each(fn func(dayOfWeek, hour int, b Bucket)) {
	for idx, ok := t.populated.NextSet(0); ok; idx, ok = t.populated.NextSet(idx + 1) {
		fn(int(idx)/24, int(idx)%24, t.buckets[idx])
	}
}

// PopulatedCount returns the number of populated buckets.
func (t *Table) PopulatedCount() int {
	return int(t.populated.Count())
}

// IsComplete reports whether every hour-of-week slot has data.
func (t *Table) IsComplete() bool {
	return t.populated.Count() == netopt.HoursPerWeek
}

// CompletionPercentage returns how much of the week has data, from 0 to 100.
func (t *Table) CompletionPercentage() float64 {
	return 100 * float64(t.populated.Count()) / float64(netopt.HoursPerWeek)
}

func minMax(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func sqrtVariance(variance float64) float64 {
	if variance <= 0 {
		return 0
	}
	return math.Sqrt(variance)
}
