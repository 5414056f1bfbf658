package engine

import (
	"testing"
	"time"
)

func TestSchedulerBaseCadence(t *testing.T) {
	t.Parallel()

	if got := NewScheduler(true).Interval; got != 15*time.Second {
		t.Errorf("focus interval = %v, want 15s", got)
	}
	if got := NewScheduler(false).Interval; got != 60*time.Second {
		t.Errorf("idle interval = %v, want 60s", got)
	}
}

func TestSchedulerBackoffDoublesToCeiling(t *testing.T) {
	t.Parallel()

	s := NewScheduler(true)
	want := []time.Duration{
		30 * time.Second,
		60 * time.Second,
		2 * time.Minute,
		4 * time.Minute,
		5 * time.Minute,
		5 * time.Minute,
	}

	for i, w := range want {
		s = s.Next(true, OutcomeFailure)
		if s.Interval != w {
			t.Errorf("failure %d: interval = %v, want %v", i+1, s.Interval, w)
		}
	}
}

func TestSchedulerRateLimitBacksOff(t *testing.T) {
	t.Parallel()

	s := NewScheduler(false).Next(false, OutcomeRateLimited)
	if s.Interval != 2*time.Minute {
		t.Errorf("interval = %v, want 2m", s.Interval)
	}
}

func TestSchedulerSuccessResets(t *testing.T) {
	t.Parallel()

	s := NewScheduler(true)
	for range 4 {
		s = s.Next(true, OutcomeFailure)
	}

	s = s.Next(true, OutcomeSuccess)
	if s.Interval != 15*time.Second {
		t.Errorf("interval = %v, want reset to 15s", s.Interval)
	}

	// the backoff ladder restarts from scratch
	s = s.Next(true, OutcomeFailure)
	if s.Interval != 30*time.Second {
		t.Errorf("interval = %v, want 30s", s.Interval)
	}
}

func TestSchedulerFollowsFocusStateOnSuccess(t *testing.T) {
	t.Parallel()

	s := NewScheduler(false)
	s = s.Next(true, OutcomeSuccess)
	if s.Interval != 15*time.Second {
		t.Errorf("interval = %v, want 15s when a run starts", s.Interval)
	}

	s = s.Next(false, OutcomeSuccess)
	if s.Interval != 60*time.Second {
		t.Errorf("interval = %v, want 60s when the run ends", s.Interval)
	}
}
