package engine

import (
	"math"
	"time"

	"github.com/mtreharne/focusbeat/internal/profile"
)

// Accumulator folds per-window observations into the session summary
// that becomes telemetry when the run ends. Value semantics: every
// operation returns the updated copy.
type Accumulator struct {
	PeakRolling  float64
	rollingSum   float64
	rollingCount int
	AlertWindows int
}

func (a Accumulator) Observe(rolling float64) Accumulator {
	if rolling > a.PeakRolling {
		a.PeakRolling = rolling
	}
	a.rollingSum += rolling
	a.rollingCount++
	return a
}

func (a Accumulator) Alert() Accumulator {
	a.AlertWindows++
	return a
}

func (a Accumulator) AvgRolling() float64 {
	if a.rollingCount == 0 {
		return 0
	}
	return math.Round(a.rollingSum/float64(a.rollingCount)*10) / 10
}

// Empty reports whether the session produced no usable windows, in
// which case there is nothing worth submitting.
func (a Accumulator) Empty() bool {
	return a.rollingCount == 0
}

// Telemetry shapes the accumulated session into a learner submission.
func (a Accumulator) Telemetry(userID string, start, end time.Time, baseline float64) profile.Telemetry {
	return profile.Telemetry{
		UserID:           userID,
		SessionStartedAt: start,
		SessionEndedAt:   end,
		BaselineBpm:      baseline,
		PeakRollingBpm:   a.PeakRolling,
		AvgRollingBpm:    a.AvgRolling(),
		AlertWindows:     a.AlertWindows,
	}
}
