package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mtreharne/focusbeat/internal/migrations"
)

// Store journals completed focus runs on the client so a session
// survives a dead network and can be resubmitted later.
type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening local database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging local database: %w", err)
	}

	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying local migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type Run struct {
	ID             int64
	StartedAt      time.Time
	EndedAt        time.Time
	BaselineBpm    float64
	PeakRollingBpm float64
	AvgRollingBpm  float64
	AlertWindows   int
	FinalSignal    string
	Submitted      bool
}

func (s *Store) RecordRun(ctx context.Context, run Run) (int64, error) {
	const query = `
		INSERT INTO focus_runs (started_at, ended_at, baseline_bpm, peak_rolling_bpm, avg_rolling_bpm, alert_windows, final_signal, submitted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := s.db.ExecContext(ctx, query,
		run.StartedAt,
		run.EndedAt,
		run.BaselineBpm,
		run.PeakRollingBpm,
		run.AvgRollingBpm,
		run.AlertWindows,
		run.FinalSignal,
		run.Submitted,
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}
	return id, nil
}

func (s *Store) MarkSubmitted(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "UPDATE focus_runs SET submitted = 1 WHERE id = ?", id); err != nil {
		return fmt.Errorf("marking run submitted: %w", err)
	}
	return nil
}

// Unsubmitted returns runs whose telemetry never reached the server,
// oldest first.
func (s *Store) Unsubmitted(ctx context.Context) ([]Run, error) {
	const query = `
		SELECT id, started_at, ended_at, baseline_bpm, peak_rolling_bpm, avg_rolling_bpm, alert_windows, final_signal, submitted
		FROM focus_runs
		WHERE submitted = 0
		ORDER BY started_at ASC`

	return s.queryRuns(ctx, query)
}

// RecentRuns returns the newest runs for the status display.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	const query = `
		SELECT id, started_at, ended_at, baseline_bpm, peak_rolling_bpm, avg_rolling_bpm, alert_windows, final_signal, submitted
		FROM focus_runs
		ORDER BY started_at DESC
		LIMIT ?`

	return s.queryRuns(ctx, query, limit)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := rows.Scan(
			&run.ID,
			&run.StartedAt,
			&run.EndedAt,
			&run.BaselineBpm,
			&run.PeakRollingBpm,
			&run.AvgRollingBpm,
			&run.AlertWindows,
			&run.FinalSignal,
			&run.Submitted,
		); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}
