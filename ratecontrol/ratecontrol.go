// Package ratecontrol adjusts the shaped rate from live latency readings,
// between full throughput measurements. Each invocation classifies the link
// into a latency regime and recomputes the rate from scratch off the last
// known maximum; there is no transition memory between cycles.
package ratecontrol

import (
	"math"

	netopt "github.com/ekobres/NetworkOptimizer-sub006"
	"github.com/ekobres/NetworkOptimizer-sub006/internal/util"
)

// Regime classifies a latency reading relative to the configured baseline.
type Regime int

const (
	// RegimeNormal means latency is near baseline; cautious single-step
	// recovery is allowed while latency headroom remains.
	RegimeNormal Regime = iota
	// RegimeCongested means latency exceeds baseline by at least one
	// threshold unit; the rate decays exponentially with the deviation.
	RegimeCongested
	// RegimeRelieved means latency sits clearly below baseline; recovery is
	// allowed to take double steps.
	RegimeRelieved
	// RegimeInvalid means the latency reading was missing or unusable; the
	// rate is held.
	RegimeInvalid
)

func (r Regime) String() string {
	switch r {
	case RegimeNormal:
		return "normal"
	case RegimeCongested:
		return "congested"
	case RegimeRelieved:
		return "relieved"
	case RegimeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

const (
	// relievedHysteresisMs is how far below baseline latency must sit before
	// the relieved regime applies, preventing oscillation around baseline.
	relievedHysteresisMs = 0.4

	// normalHeadroomMs is the most latency may exceed baseline by while still
	// permitting recovery in the normal regime.
	normalHeadroomMs = 0.3

	// ceilingMargin keeps the adjusted rate 5% below the absolute maximum.
	ceilingMargin = 0.95
)

// Decision is the outcome of one adjustment cycle.
type Decision struct {
	// RateMbps is the next shaped rate, rounded to one decimal place. It
	// feeds the externally enforced rate.
	RateMbps float64

	Regime Regime

	// Deviations is how many threshold units latency sits above baseline.
	// Only meaningful in the congested regime.
	Deviations float64

	// Reason describes the adjustment taken.
	Reason string
}

// Adjust computes the next shaped rate from the current maximum rate and a
// live latency reading. A missing or non-positive latency reading holds the
// current rate rather than failing. A non-positive currentMaxRateMbps is a
// precondition violation and returns a validation error without producing a
// decision.
func Adjust(currentMaxRateMbps, latencyMs float64, cfg netopt.RateControlConfig) (Decision, error) {
	if currentMaxRateMbps <= 0 || math.IsNaN(currentMaxRateMbps) {
		return Decision{}, &netopt.ValidationError{
			Field:  "currentMaxRateMbps",
			Value:  currentMaxRateMbps,
			Reason: "rate must be positive",
		}
	}
	if latencyMs <= 0 || math.IsNaN(latencyMs) {
		return Decision{
			RateMbps: currentMaxRateMbps,
			Regime:   RegimeInvalid,
			Reason:   "unusable latency reading, holding rate",
		}, nil
	}

	absoluteMax := cfg.AbsoluteMaxRateMbps
	d := Decision{RateMbps: currentMaxRateMbps}

	switch {
	case latencyMs >= cfg.BaselineLatencyMs+cfg.LatencyThresholdMs:
		d.Regime = RegimeCongested
		d.Deviations = (latencyMs - cfg.BaselineLatencyMs) / cfg.LatencyThresholdMs
		d.RateMbps = currentMaxRateMbps * math.Pow(cfg.DecreaseFactor, d.Deviations)
		d.RateMbps = max(d.RateMbps, cfg.MinRateMbps)
		d.Reason = "latency above threshold, decaying rate"

	case latencyMs < cfg.BaselineLatencyMs-relievedHysteresisMs:
		d.Regime = RegimeRelieved
		lowerBound := absoluteMax * 0.92
		midBound := absoluteMax * 0.94
		switch {
		case currentMaxRateMbps < lowerBound:
			d.RateMbps = currentMaxRateMbps * cfg.IncreaseFactor * cfg.IncreaseFactor
			d.Reason = "latency well below baseline, double-step recovery"
		case currentMaxRateMbps < midBound:
			// Snap rather than multiply to avoid oscillating across the
			// boundary.
			d.RateMbps = midBound
			d.Reason = "latency well below baseline, snapping to band"
		default:
			d.Reason = "latency well below baseline, at capacity"
		}

	default:
		d.Regime = RegimeNormal
		lowerBound := absoluteMax * 0.90
		midBound := absoluteMax * 0.92
		latencyDiff := latencyMs - cfg.BaselineLatencyMs
		switch {
		case latencyDiff > normalHeadroomMs:
			d.Reason = "latency near threshold, holding rate"
		case currentMaxRateMbps < lowerBound:
			d.RateMbps = currentMaxRateMbps * cfg.IncreaseFactor
			d.Reason = "latency nominal, single-step recovery"
		case currentMaxRateMbps < midBound:
			d.RateMbps = midBound
			d.Reason = "latency nominal, snapping to band"
		default:
			d.Reason = "latency nominal, at capacity"
		}
	}

	d.RateMbps = min(d.RateMbps, absoluteMax*ceilingMargin)
	d.RateMbps = min(d.RateMbps, cfg.MaxRateMbps)
	d.RateMbps = util.RoundPlaces(d.RateMbps, 1)
	return d, nil
}
