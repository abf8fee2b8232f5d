package netopt

import (
	"fmt"
	"time"
)

// ControllerState is the single mutable record carried between cycles. It is
// updated once per cycle, by either the reconciler (full-measurement cycle)
// or the rate controller (latency-adjustment cycle), and persisted by the
// orchestrator.
type ControllerState struct {
	// CurrentRateMbps is the rate most recently handed to enforcement.
	CurrentRateMbps float64

	// LastKnownMaxRateMbps is the rate produced by the most recent
	// full-measurement reconciliation. Adjustment cycles decay and recover
	// off this value.
	LastKnownMaxRateMbps float64

	// LastAdjustmentReason describes the decision that produced
	// CurrentRateMbps.
	LastAdjustmentReason string

	UpdatedAt time.Time
}

// ValidationError reports an invalid numeric input to a core operation. The
// operation fails fast without touching controller or baseline state.
type ValidationError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}
