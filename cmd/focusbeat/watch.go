package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mtreharne/focusbeat/internal/client/api"
	"github.com/mtreharne/focusbeat/internal/engine"
	"github.com/mtreharne/focusbeat/internal/localstore"
	"github.com/mtreharne/focusbeat/internal/paths"
	"github.com/mtreharne/focusbeat/internal/profile"
)

func watchCmd() *cobra.Command {
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run a focus session with live biofeedback",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := clientFromEnv()
			if err != nil {
				return err
			}

			store, err := openLocalStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			resubmitPending(cmd, client, store)

			return runSession(cmd, client, store, cfg.UserID, duration)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 25*time.Minute, "focus session length")
	return cmd
}

func openLocalStore(ctx context.Context) (*localstore.Store, error) {
	if _, err := paths.EnsureDir(); err != nil {
		return nil, err
	}
	dbPath, err := paths.DB()
	if err != nil {
		return nil, err
	}
	return localstore.Open(ctx, dbPath)
}

// runSession polls the server on the adaptive cadence, feeds each
// window through the signal engine, and journals the finished session.
func runSession(cmd *cobra.Command, client *api.Client, store *localstore.Store, userID string, duration time.Duration) error {
	ctx := cmd.Context()

	start := time.Now()
	deadline := start.Add(duration)
	state := engine.NewState()
	sched := engine.NewScheduler(true)

	cmd.Printf("Focus session started (%s). Ctrl+C to stop early.\n", duration)

	paused := false
	for !paused {
		now := time.Now()
		if !now.Before(deadline) {
			break
		}

		select {
		case <-ctx.Done():
			// treat interrupt as an early, clean session end
			paused = true
			continue
		case <-time.After(sched.Interval):
		}

		resp, err := client.Metrics(ctx, userID, &start)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				paused = true
				continue
			}
			cmd.PrintErrf("fetch failed, backing off: %v\n", err)
			sched = sched.Next(true, engine.OutcomeFailure)
			continue
		}

		outcome := engine.OutcomeSuccess
		if resp.RateLimited {
			outcome = engine.OutcomeRateLimited
		}
		sched = sched.Next(true, outcome)

		if resp.Warning != "" {
			cmd.PrintErrln(resp.Warning)
		}
		if !resp.Connected {
			continue
		}

		var decision engine.Decision
		state, decision = engine.Step(state, engine.Input{
			Now:       time.Now(),
			RunActive: true,
			RunStart:  start,
			Rolling:   resp.RollingBpm,
			Samples:   resp.Samples,
			Baseline:  profileBaseline(resp.Profile),
			Drift:     profileDrift(resp.Profile),
		})

		printWindow(cmd, resp.RollingBpm, decision)

		if decision.AutoPause {
			cmd.Println("Take a break: your heart rate has stayed elevated. Pausing the session.")
			paused = true
		}
	}

	return finishSession(cmd, client, store, userID, start, state)
}

func finishSession(cmd *cobra.Command, client *api.Client, store *localstore.Store, userID string, start time.Time, state engine.State) error {
	end := time.Now()
	cmd.Printf("Session ended after %s.\n", end.Sub(start).Round(time.Second))

	if state.Acc.Empty() {
		cmd.Println("No biofeedback collected this session; nothing to submit.")
		return nil
	}

	baseline := state.SessionBaselineBpm
	if baseline == 0 {
		baseline = state.Acc.AvgRolling()
	}
	telemetry := state.Acc.Telemetry(userID, start, end, baseline)

	run := localstore.Run{
		StartedAt:      start,
		EndedAt:        end,
		BaselineBpm:    telemetry.BaselineBpm,
		PeakRollingBpm: telemetry.PeakRollingBpm,
		AvgRollingBpm:  telemetry.AvgRollingBpm,
		AlertWindows:   telemetry.AlertWindows,
		FinalSignal:    string(state.Signal),
	}

	// journal first so a dead network cannot lose the session
	runID, err := store.RecordRun(cmd.Context(), run)
	if err != nil {
		return fmt.Errorf("journaling session: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 10*time.Second)
	defer cancel()

	updated, err := client.SubmitTelemetry(ctx, telemetry)
	if err != nil {
		cmd.PrintErrf("telemetry submit failed, will retry next session: %v\n", err)
		return nil
	}
	if err := store.MarkSubmitted(ctx, runID); err != nil {
		cmd.PrintErrf("marking run submitted: %v\n", err)
	}

	if updated.BaselineMedianBpm != nil {
		cmd.Printf("Profile updated: baseline %.1f bpm over %d sessions.\n",
			*updated.BaselineMedianBpm, updated.SampleCount)
	}
	return nil
}

func resubmitPending(cmd *cobra.Command, client *api.Client, store *localstore.Store) {
	_, cfg, err := clientFromEnv()
	if err != nil {
		return
	}

	pending, err := store.Unsubmitted(cmd.Context())
	if err != nil || len(pending) == 0 {
		return
	}

	cmd.Printf("Resubmitting %d pending session(s)...\n", len(pending))
	for _, run := range pending {
		telemetry := profile.Telemetry{
			UserID:           cfg.UserID,
			SessionStartedAt: run.StartedAt,
			SessionEndedAt:   run.EndedAt,
			BaselineBpm:      run.BaselineBpm,
			PeakRollingBpm:   run.PeakRollingBpm,
			AvgRollingBpm:    run.AvgRollingBpm,
			AlertWindows:     run.AlertWindows,
		}
		if _, err := client.SubmitTelemetry(cmd.Context(), telemetry); err != nil {
			cmd.PrintErrf("resubmit failed for run %d: %v\n", run.ID, err)
			continue
		}
		if err := store.MarkSubmitted(cmd.Context(), run.ID); err != nil {
			cmd.PrintErrf("marking run %d submitted: %v\n", run.ID, err)
		}
	}
}

func printWindow(cmd *cobra.Command, rolling float64, d engine.Decision) {
	switch d.Signal {
	case engine.SignalSlowDown:
		cmd.Printf("[%.1f bpm] elevated above %.1f: slow down\n", rolling, d.Threshold)
	case engine.SignalTakeBreak:
		cmd.Printf("[%.1f bpm] still elevated: take a break\n", rolling)
	default:
		cmd.Printf("[%.1f bpm] steady\n", rolling)
	}
}

func profileBaseline(p *profile.Profile) *float64 {
	if p == nil {
		return nil
	}
	return p.BaselineMedianBpm
}

func profileDrift(p *profile.Profile) *float64 {
	if p == nil {
		return nil
	}
	return p.TypicalDriftBpm
}
