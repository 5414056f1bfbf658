package engine

import (
	"math"
	"time"

	"github.com/mtreharne/focusbeat/internal/biofeedback"
)

// Signal is the coaching state derived from heart-rate windows.
type Signal string

const (
	SignalSteady    Signal = "steady"
	SignalSlowDown  Signal = "slow_down"
	SignalTakeBreak Signal = "take_break"
)

const (
	// minThresholdMargin keeps ordinary beat-to-beat variation from
	// tripping alerts even when the learned drift is small.
	minThresholdMargin = 6.0

	// driftMargin is added on top of the learned drift so the threshold
	// sits above the user's normal session-time elevation.
	driftMargin = 2.0

	// defaultDrift stands in for the learned drift before any session has
	// been recorded, keeping new users on the same 8 bpm margin instead
	// of a tighter, alert-happy one.
	defaultDrift = 6.0

	// alertCooldown stops the auto-pause from re-firing while the user
	// is already reacting to the previous one.
	alertCooldown = 10 * time.Minute

	// sessionBaselineWindow bounds how far into a session samples may
	// count toward the session's own baseline.
	sessionBaselineWindow = 5 * time.Minute

	// sessionBaselineMinSamples guards against deriving a baseline from
	// one or two stray readings.
	sessionBaselineMinSamples = 3
)

// State is the per-session engine state. It is a plain value so callers
// can persist, copy, and replay it.
type State struct {
	Signal              Signal
	ConsecutiveElevated int
	SessionBaselineBpm  float64
	NextAlertEligibleAt time.Time
	Acc                 Accumulator
}

func NewState() State {
	return State{Signal: SignalSteady}
}

// Input is one polling window's worth of observations.
type Input struct {
	Now        time.Time
	RunActive  bool
	RunStart   time.Time
	Rolling    float64
	Samples    []biofeedback.Sample
	Baseline   *float64
	Drift      *float64
	Configured bool
}

// Decision is what a single step concluded, for callers that act on
// transitions rather than state.
type Decision struct {
	Signal            Signal
	AutoPause         bool
	EffectiveBaseline float64
	Threshold         float64
	Elevated          bool
}

// Step advances the state machine by one polling window. Pure function:
// same state and input always produce the same result.
func Step(s State, in Input) (State, Decision) {
	if in.RunActive && s.SessionBaselineBpm == 0 {
		s.SessionBaselineBpm = sessionBaseline(in.Samples, in.RunStart)
	}

	base := effectiveBaseline(s, in)
	threshold := base + thresholdMargin(in.Drift)

	d := Decision{EffectiveBaseline: base, Threshold: threshold}

	if in.Rolling == 0 || base == 0 {
		// nothing to judge; hold the last signal and leave the streak alone
		d.Signal = s.Signal
		return s, d
	}

	if in.RunActive {
		s.Acc = s.Acc.Observe(in.Rolling)
	}

	d.Elevated = in.Rolling > threshold

	if !d.Elevated {
		s.ConsecutiveElevated = 0
		s.Signal = SignalSteady
		d.Signal = s.Signal
		return s, d
	}

	if !in.RunActive {
		// advisory only between runs: no streak, no auto-pause
		s.ConsecutiveElevated = 0
		s.Signal = SignalSlowDown
		d.Signal = s.Signal
		return s, d
	}

	s.ConsecutiveElevated++
	switch {
	case s.ConsecutiveElevated == 1:
		s.Signal = SignalSlowDown
	default:
		firing := s.ConsecutiveElevated == 2
		s.Signal = SignalTakeBreak
		if firing && !in.Now.Before(s.NextAlertEligibleAt) {
			d.AutoPause = true
			s.NextAlertEligibleAt = in.Now.Add(alertCooldown)
			s.Acc = s.Acc.Alert()
		}
	}

	d.Signal = s.Signal
	return s, d
}

// effectiveBaseline resolves in priority order: this session's observed
// baseline, then the learned profile, then the rolling mean itself.
// The rolling fallback can never read as elevated, which is the point:
// without any baseline there is nothing to alert against.
func effectiveBaseline(s State, in Input) float64 {
	if in.RunActive && s.SessionBaselineBpm > 0 {
		return s.SessionBaselineBpm
	}
	if in.Baseline != nil && *in.Baseline > 0 {
		return *in.Baseline
	}
	return in.Rolling
}

func thresholdMargin(drift *float64) float64 {
	d := defaultDrift
	if drift != nil {
		d = *drift
	}
	return math.Max(minThresholdMargin, d+driftMargin)
}

// sessionBaseline averages the first samples of the session, requiring
// at least sessionBaselineMinSamples inside the opening window. Returns
// 0 until enough samples exist.
func sessionBaseline(samples []biofeedback.Sample, runStart time.Time) float64 {
	if runStart.IsZero() {
		return 0
	}
	windowEnd := runStart.Add(sessionBaselineWindow)

	var sum float64
	var n int
	for _, s := range samples {
		ts, err := time.Parse(time.RFC3339, s.Timestamp)
		if err != nil {
			continue
		}
		if ts.Before(runStart) || ts.After(windowEnd) {
			continue
		}
		sum += s.Bpm
		n++
	}
	if n < sessionBaselineMinSamples {
		return 0
	}
	return math.Round(sum/float64(n)*10) / 10
}
