// Package netopt provides the rate-computation core for an adaptive WAN
// bandwidth controller. It learns a baseline of achievable throughput per
// hour-of-week slot, reconciles fresh measurements against that baseline,
// and nudges the shaped rate up or down from live latency readings.
//
// The core is a set of pure computations over small explicit state values.
// Measurement collection, latency probing, and traffic-control enforcement
// are external collaborators; see the orchestrator package for how cycles
// are composed around them.
package netopt

import "time"

// HoursPerWeek is the number of hour-of-week slots tracked by the baseline.
const HoursPerWeek = 7 * 24

// ThroughputSample is one completed throughput measurement, already converted
// to Mbps by the measurement source. Immutable once created.
type ThroughputSample struct {
	Timestamp    time.Time
	DayOfWeek    int // 0=Monday .. 6=Sunday
	Hour         int // 0..23
	DownloadMbps float64
	UploadMbps   float64
	LatencyMs    float64
}

// NewThroughputSample builds a sample for the given time, assigning the
// hour-of-week slot via Slot.
func NewThroughputSample(t time.Time, downloadMbps, uploadMbps, latencyMs float64) ThroughputSample {
	day, hour := Slot(t)
	return ThroughputSample{
		Timestamp:    t,
		DayOfWeek:    day,
		Hour:         hour,
		DownloadMbps: downloadMbps,
		UploadMbps:   uploadMbps,
		LatencyMs:    latencyMs,
	}
}

// Slot maps a wall-clock time to its hour-of-week slot using the 0=Monday
// convention. Go's time.Weekday starts at Sunday=0, so the weekday is shifted
// explicitly rather than used as-is.
func Slot(t time.Time) (dayOfWeek, hour int) {
	return (int(t.Weekday()) + 6) % 7, t.Hour()
}
