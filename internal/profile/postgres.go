package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresStore struct {
	db DB
}

var _ Store = (*PostgresStore)(nil)

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (Profile, error) {
	const query = `
		SELECT user_id, baseline_median_bpm, typical_drift_bpm, sample_count, updated_at
		FROM focus_profiles
		WHERE user_id = $1`

	var p Profile
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.BaselineMedianBpm,
		&p.TypicalDriftBpm,
		&p.SampleCount,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		// absence is a valid state: the user simply has no history yet
		return Profile{UserID: userID}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("getting profile: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, p Profile) error {
	const query = `
		INSERT INTO focus_profiles (user_id, baseline_median_bpm, typical_drift_bpm, sample_count, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			baseline_median_bpm = EXCLUDED.baseline_median_bpm,
			typical_drift_bpm = EXCLUDED.typical_drift_bpm,
			sample_count = EXCLUDED.sample_count,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query,
		p.UserID,
		p.BaselineMedianBpm,
		p.TypicalDriftBpm,
		p.SampleCount,
	); err != nil {
		return fmt.Errorf("upserting profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) InsertTelemetry(ctx context.Context, t Telemetry) error {
	const query = `
		INSERT INTO focus_telemetry (user_id, session_started_at, session_ended_at, baseline_bpm, peak_rolling_bpm, avg_rolling_bpm, alert_windows)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	if _, err := s.db.Exec(ctx, query,
		t.UserID,
		t.SessionStartedAt,
		t.SessionEndedAt,
		t.BaselineBpm,
		t.PeakRollingBpm,
		t.AvgRollingBpm,
		t.AlertWindows,
	); err != nil {
		return fmt.Errorf("inserting telemetry: %w", err)
	}
	return nil
}
