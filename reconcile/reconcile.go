// Package reconcile turns one fresh throughput measurement into a recommended
// maximum rate. A single measurement is noisy, so it is blended against the
// learned baseline for the current hour-of-week slot before overhead
// compensation and safety caps are applied.
package reconcile

import (
	netopt "github.com/ekobres/NetworkOptimizer-sub006"
	"github.com/ekobres/NetworkOptimizer-sub006/internal/util"
)

// dipThreshold is the fraction of the baseline below which a measurement is
// treated as a suspected transient degradation rather than a real shift.
const dipThreshold = 0.90

// ceilingMargin keeps the reconciled rate a hard 5% below the configured
// maximum, regardless of what blending and overhead produce.
const ceilingMargin = 0.95

// Result is the outcome of reconciling one measurement.
type Result struct {
	// RateMbps is the recommended maximum rate, rounded to a whole Mbps with
	// halves rounding up. It feeds the stored last-known-max rate.
	RateMbps float64

	// BlendedMbps is the baseline-blended rate before overhead and caps.
	BlendedMbps float64

	// Reason describes which blending path was taken.
	Reason string
}

// Reconcile blends measuredMbps against baselineMbps and applies overhead and
// safety caps per cfg. A baselineMbps of zero or below means the current slot
// has no baseline yet; the measurement is then used as-is, unblended.
//
// Blending trusts the baseline more the further the measurement dips below
// it: within 10% of baseline the within-weight applies, below that the
// below-weight (which is always at least as large) applies.
func Reconcile(measuredMbps, baselineMbps float64, cfg netopt.RateControlConfig) Result {
	measured := max(measuredMbps, cfg.MinRateMbps)

	var blended float64
	var reason string
	if baselineMbps <= 0 {
		blended = measured
		reason = "no baseline for slot"
	} else if measured >= baselineMbps*dipThreshold {
		w := cfg.BlendWeightWithin
		blended = baselineMbps*w + measured*(1-w)
		reason = "blended within baseline band"
	} else {
		w := cfg.BlendWeightBelow
		blended = baselineMbps*w + measured*(1-w)
		reason = "blended below baseline band"
	}

	effective := blended * cfg.OverheadMultiplier
	effective = min(effective, cfg.MaxRateMbps)
	effective = min(effective, cfg.MaxRateMbps*ceilingMargin)

	return Result{
		RateMbps:    util.RoundWhole(effective),
		BlendedMbps: blended,
		Reason:      reason,
	}
}
