package profile

import (
	"context"
	"time"
)

// Profile is the learned per-user resting picture. Pointers are nil
// until the first session has been recorded.
type Profile struct {
	UserID            string     `json:"user_id"`
	BaselineMedianBpm *float64   `json:"baseline_median_bpm"`
	TypicalDriftBpm   *float64   `json:"typical_drift_bpm"`
	SampleCount       int        `json:"sample_count"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// Telemetry is one completed focus session's worth of observations.
type Telemetry struct {
	UserID           string    `json:"user_id"`
	SessionStartedAt time.Time `json:"session_started_at"`
	SessionEndedAt   time.Time `json:"session_ended_at"`
	BaselineBpm      float64   `json:"baseline_bpm"`
	PeakRollingBpm   float64   `json:"peak_rolling_bpm"`
	AvgRollingBpm    float64   `json:"avg_rolling_bpm"`
	AlertWindows     int       `json:"alert_windows"`
}

const (
	minPlausibleBpm = 30
	maxPlausibleBpm = 220
)

// Validate reports field-level problems, keyed by JSON field name.
func (t Telemetry) Validate() map[string]string {
	problems := make(map[string]string)

	if t.UserID == "" {
		problems["user_id"] = "required"
	}
	if t.SessionStartedAt.IsZero() {
		problems["session_started_at"] = "required"
	}
	if t.SessionEndedAt.IsZero() {
		problems["session_ended_at"] = "required"
	} else if !t.SessionStartedAt.IsZero() && t.SessionEndedAt.Before(t.SessionStartedAt) {
		problems["session_ended_at"] = "must not precede session_started_at"
	}

	checkBpm(problems, "baseline_bpm", t.BaselineBpm)
	checkBpm(problems, "peak_rolling_bpm", t.PeakRollingBpm)
	checkBpm(problems, "avg_rolling_bpm", t.AvgRollingBpm)

	if t.AlertWindows < 0 {
		problems["alert_windows"] = "must not be negative"
	}

	if len(problems) == 0 {
		return nil
	}
	return problems
}

func checkBpm(problems map[string]string, field string, v float64) {
	if v < minPlausibleBpm || v > maxPlausibleBpm {
		problems[field] = "must be a plausible human heart rate"
	}
}

// Store persists learned profiles and the raw session audit trail.
type Store interface {
	// Get returns the zero-valued profile when the user has no history.
	Get(ctx context.Context, userID string) (Profile, error)
	Upsert(ctx context.Context, p Profile) error
	InsertTelemetry(ctx context.Context, t Telemetry) error
}
