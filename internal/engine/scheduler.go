package engine

import "time"

const (
	focusPollInterval = 15 * time.Second
	idlePollInterval  = 60 * time.Second
	maxPollInterval   = 5 * time.Minute
)

// Outcome classifies a completed poll for backoff purposes.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailure
	OutcomeRateLimited
)

// Scheduler tracks the adaptive polling cadence: tight during a focus
// run, relaxed when idle, exponentially backed off while the vendor is
// failing or throttling. Value semantics like State.
type Scheduler struct {
	Interval time.Duration
	failures int
}

func NewScheduler(focusActive bool) Scheduler {
	return Scheduler{Interval: baseInterval(focusActive)}
}

// Next advances the cadence after a poll. Success snaps straight back
// to the base interval; each failure doubles the wait up to the cap.
func (s Scheduler) Next(focusActive bool, outcome Outcome) Scheduler {
	base := baseInterval(focusActive)

	if outcome == OutcomeSuccess {
		return Scheduler{Interval: base}
	}

	s.failures++
	interval := base << s.failures
	if interval > maxPollInterval {
		interval = maxPollInterval
	}
	s.Interval = interval
	return s
}

func baseInterval(focusActive bool) time.Duration {
	if focusActive {
		return focusPollInterval
	}
	return idlePollInterval
}
