package profile

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mtreharne/focusbeat/internal/xerrors"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

const (
	// ewmaWeight favors history over any single session so one bad day
	// does not wreck the baseline.
	ewmaWeight = 0.2

	// minDrift keeps the alert threshold from collapsing for users with
	// unusually steady heart rates.
	minDrift = 4.0
)

// Learner folds completed-session telemetry into the per-user profile
// using an exponentially weighted moving average.
type Learner struct {
	store  Store
	logger *slog.Logger
}

func NewLearner(store Store, logger *slog.Logger) *Learner {
	return &Learner{store: store, logger: logger}
}

// Record validates and applies one session's telemetry, returning the
// updated profile. The audit insert is best-effort: a failed insert is
// logged and the profile update still lands.
func (l *Learner) Record(ctx context.Context, t Telemetry) (Profile, error) {
	if problems := t.Validate(); problems != nil {
		return Profile{}, xerrors.Validation(problems)
	}

	current, err := l.store.Get(ctx, t.UserID)
	if err != nil {
		return Profile{}, fmt.Errorf("loading profile: %w", err)
	}

	observedDrift := math.Max(0, t.PeakRollingBpm-t.BaselineBpm)

	weight := ewmaWeight
	if current.SampleCount == 0 {
		weight = 1.0
	}

	baseline := blend(current.BaselineMedianBpm, t.BaselineBpm, weight)
	drift := math.Max(minDrift, blend(current.TypicalDriftBpm, observedDrift, weight))
	drift = round1(drift)

	now := time.Now()
	next := Profile{
		UserID:            t.UserID,
		BaselineMedianBpm: &baseline,
		TypicalDriftBpm:   &drift,
		SampleCount:       current.SampleCount + 1,
		UpdatedAt:         &now,
	}

	if err := l.store.Upsert(ctx, next); err != nil {
		return Profile{}, fmt.Errorf("saving profile: %w", err)
	}

	// sample_count already advanced above, so a lost audit row never
	// stalls the learning loop
	if err := l.store.InsertTelemetry(ctx, t); err != nil {
		l.logger.WarnContext(ctx, "telemetry audit insert failed",
			xslog.UserID(t.UserID),
			xslog.Error(err))
	}

	return next, nil
}

func blend(prior *float64, observed, weight float64) float64 {
	if prior == nil {
		return round1(observed)
	}
	return round1(*prior*(1-weight) + observed*weight)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
