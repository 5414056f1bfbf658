package engine

import (
	"testing"
	"time"

	"github.com/mtreharne/focusbeat/internal/biofeedback"
)

func ptr(v float64) *float64 { return &v }

func runInput(now time.Time, rolling float64) Input {
	return Input{
		Now:       now,
		RunActive: true,
		RunStart:  now.Add(-10 * time.Minute),
		Rolling:   rolling,
		Baseline:  ptr(70),
		Drift:     ptr(5),
	}
}

// baseline 70, drift 5: threshold = 70 + max(6, 5+2) = 77

func TestStepSteadyBelowThreshold(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	s, d := Step(NewState(), runInput(now, 76))

	if d.Signal != SignalSteady {
		t.Errorf("signal = %q, want steady", d.Signal)
	}
	if d.Threshold != 77 {
		t.Errorf("threshold = %v, want 77", d.Threshold)
	}
	if d.Elevated || d.AutoPause {
		t.Errorf("decision = %+v, want no elevation", d)
	}
	if s.ConsecutiveElevated != 0 {
		t.Errorf("streak = %d, want 0", s.ConsecutiveElevated)
	}
}

func TestStepDefaultDriftWithoutProfile(t *testing.T) {
	t.Parallel()

	// no learned drift yet: the default drift keeps the margin at 8
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	in := runInput(now, 82)
	in.Drift = nil

	_, d := Step(NewState(), in)
	if d.Threshold != 78 {
		t.Errorf("threshold = %v, want 70+8", d.Threshold)
	}
	if !d.Elevated {
		t.Error("82 bpm not elevated against threshold 78")
	}
}

func TestStepMinimumMarginFloorsSmallDrift(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	in := runInput(now, 75)
	in.Drift = ptr(1)

	_, d := Step(NewState(), in)
	if d.Threshold != 76 {
		t.Errorf("threshold = %v, want 70+6 with drift 1 floored", d.Threshold)
	}
}

func TestStepEmptyWindowHoldsSignal(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	s := NewState()

	s, _ = Step(s, runInput(now, 80))
	s, d := Step(s, runInput(now.Add(15*time.Second), 82))
	if d.Signal != SignalTakeBreak {
		t.Fatalf("signal = %q, want take_break before the gap", d.Signal)
	}

	// a window with no samples must not flicker the display to steady
	s, d = Step(s, runInput(now.Add(30*time.Second), 0))
	if d.Signal != SignalTakeBreak {
		t.Errorf("signal = %q, want take_break held across a data gap", d.Signal)
	}
	if s.ConsecutiveElevated != 2 {
		t.Errorf("streak = %d, want 2 held across a data gap", s.ConsecutiveElevated)
	}
}

func TestStepFirstElevatedWindowSlowsDown(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	s, d := Step(NewState(), runInput(now, 80))

	if d.Signal != SignalSlowDown {
		t.Errorf("signal = %q, want slow_down", d.Signal)
	}
	if d.AutoPause {
		t.Error("auto-pause fired on first elevated window")
	}
	if s.ConsecutiveElevated != 1 {
		t.Errorf("streak = %d, want 1", s.ConsecutiveElevated)
	}
}

func TestStepSecondElevatedWindowPausesOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	s := NewState()

	s, _ = Step(s, runInput(now, 80))
	s, d := Step(s, runInput(now.Add(15*time.Second), 82))

	if d.Signal != SignalTakeBreak {
		t.Errorf("signal = %q, want take_break", d.Signal)
	}
	if !d.AutoPause {
		t.Error("auto-pause did not fire on second consecutive elevated window")
	}
	if s.Acc.AlertWindows != 1 {
		t.Errorf("alert windows = %d, want 1", s.Acc.AlertWindows)
	}

	// a third elevated window keeps the signal but must not re-pause
	s, d = Step(s, runInput(now.Add(30*time.Second), 83))
	if d.Signal != SignalTakeBreak {
		t.Errorf("signal = %q, want take_break held", d.Signal)
	}
	if d.AutoPause {
		t.Error("auto-pause re-fired while still elevated")
	}
}

func TestStepRecoveryResetsStreak(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	s := NewState()

	s, _ = Step(s, runInput(now, 80))
	s, d := Step(s, runInput(now.Add(15*time.Second), 74))

	if d.Signal != SignalSteady {
		t.Errorf("signal = %q, want steady after recovery", d.Signal)
	}
	if s.ConsecutiveElevated != 0 {
		t.Errorf("streak = %d, want reset", s.ConsecutiveElevated)
	}

	// the next elevated window starts a fresh streak, no instant pause
	s, d = Step(s, runInput(now.Add(30*time.Second), 80))
	if d.Signal != SignalSlowDown || d.AutoPause {
		t.Errorf("decision = %+v, want slow_down without pause", d)
	}
	_ = s
}

func TestStepCooldownSuppressesSecondPause(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	s := NewState()

	// first alert
	s, _ = Step(s, runInput(now, 80))
	s, d := Step(s, runInput(now.Add(15*time.Second), 82))
	if !d.AutoPause {
		t.Fatal("expected first auto-pause")
	}

	// recover, then climb again five minutes later: inside cooldown
	s, _ = Step(s, runInput(now.Add(30*time.Second), 72))
	s, _ = Step(s, runInput(now.Add(5*time.Minute), 81))
	s, d = Step(s, runInput(now.Add(5*time.Minute+15*time.Second), 82))

	if d.Signal != SignalTakeBreak {
		t.Errorf("signal = %q, want take_break shown during cooldown", d.Signal)
	}
	if d.AutoPause {
		t.Error("auto-pause fired inside cooldown")
	}

	// same pattern after the cooldown elapses fires again
	later := now.Add(15 * time.Minute)
	s, _ = Step(s, runInput(later, 72))
	s, _ = Step(s, runInput(later.Add(15*time.Second), 81))
	_, d = Step(s, runInput(later.Add(30*time.Second), 82))
	if !d.AutoPause {
		t.Error("auto-pause did not fire after cooldown elapsed")
	}
}

func TestStepOutsideRunNeverPauses(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	in := Input{
		Now:      now,
		Rolling:  90,
		Baseline: ptr(70),
		Drift:    ptr(5),
	}

	s := NewState()
	for range 5 {
		var d Decision
		s, d = Step(s, in)
		if d.Signal != SignalSlowDown {
			t.Errorf("signal = %q, want advisory slow_down", d.Signal)
		}
		if d.AutoPause {
			t.Fatal("auto-pause fired outside a run")
		}
	}
	if s.ConsecutiveElevated != 0 {
		t.Errorf("streak = %d, want 0 outside a run", s.ConsecutiveElevated)
	}
}

func TestStepSessionBaselineTakesPriority(t *testing.T) {
	t.Parallel()

	runStart := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	samples := []biofeedback.Sample{
		{Timestamp: "2026-08-24T10:00:30+00:00", Bpm: 78},
		{Timestamp: "2026-08-24T10:01:00+00:00", Bpm: 80},
		{Timestamp: "2026-08-24T10:02:00+00:00", Bpm: 82},
	}

	in := Input{
		Now:       runStart.Add(3 * time.Minute),
		RunActive: true,
		RunStart:  runStart,
		Rolling:   84,
		Samples:   samples,
		Baseline:  ptr(65), // learned profile says lower
		Drift:     ptr(5),
	}

	s, d := Step(NewState(), in)

	// session baseline (78+80+82)/3 = 80 beats the learned 65
	if s.SessionBaselineBpm != 80.0 {
		t.Errorf("session baseline = %v, want 80.0", s.SessionBaselineBpm)
	}
	if d.EffectiveBaseline != 80.0 {
		t.Errorf("effective baseline = %v, want 80.0", d.EffectiveBaseline)
	}
	if d.Elevated {
		t.Error("84 bpm read as elevated against session baseline 80 with margin 7")
	}
}

func TestStepSessionBaselineNeedsEnoughSamples(t *testing.T) {
	t.Parallel()

	runStart := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	in := Input{
		Now:       runStart.Add(time.Minute),
		RunActive: true,
		RunStart:  runStart,
		Rolling:   72,
		Samples: []biofeedback.Sample{
			{Timestamp: "2026-08-24T10:00:30+00:00", Bpm: 78},
			{Timestamp: "2026-08-24T10:01:00+00:00", Bpm: 80},
		},
		Baseline: ptr(70),
		Drift:    ptr(5),
	}

	s, d := Step(NewState(), in)
	if s.SessionBaselineBpm != 0 {
		t.Errorf("session baseline = %v, want unset with only 2 samples", s.SessionBaselineBpm)
	}
	if d.EffectiveBaseline != 70 {
		t.Errorf("effective baseline = %v, want learned 70", d.EffectiveBaseline)
	}
}

func TestStepNoBaselineNeverElevated(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	in := Input{
		Now:       now,
		RunActive: true,
		RunStart:  now.Add(-time.Minute),
		Rolling:   110,
	}

	_, d := Step(NewState(), in)
	if d.Elevated {
		t.Error("elevated with no baseline to compare against")
	}
	if d.Signal != SignalSteady {
		t.Errorf("signal = %q, want steady", d.Signal)
	}
}

func TestAccumulatorSessionSummary(t *testing.T) {
	t.Parallel()

	var a Accumulator
	for _, r := range []float64{72, 80, 85, 78} {
		a = a.Observe(r)
	}
	a = a.Alert()

	if a.PeakRolling != 85 {
		t.Errorf("peak = %v, want 85", a.PeakRolling)
	}
	if got := a.AvgRolling(); got != 78.8 {
		t.Errorf("avg = %v, want 78.8", got)
	}

	start := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	tel := a.Telemetry("user-1", start, start.Add(25*time.Minute), 70)
	if tel.PeakRollingBpm != 85 || tel.AvgRollingBpm != 78.8 || tel.AlertWindows != 1 {
		t.Errorf("telemetry = %+v", tel)
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	t.Parallel()

	var a Accumulator
	if !a.Empty() {
		t.Error("zero accumulator not empty")
	}
	if a.AvgRolling() != 0 {
		t.Errorf("avg = %v, want 0", a.AvgRolling())
	}
	if a.Observe(70).Empty() {
		t.Error("accumulator empty after an observation")
	}
}
