package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection health, profile, and recent sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := clientFromEnv()
			if err != nil {
				return err
			}

			conn, err := client.Connection(cmd.Context(), cfg.UserID)
			if err != nil {
				return err
			}

			if !conn.Connected {
				cmd.Println("Wearable: not connected. Run 'focusbeat connect' to link your account.")
			} else {
				cmd.Printf("Wearable: connected (scopes: %s)\n", formatScopes(conn.GrantedScopes))
				if len(conn.MissingScopes) > 0 {
					cmd.Printf("  missing scopes: %s (reconnect to grant)\n", formatScopes(conn.MissingScopes))
				}
				if conn.ExpiresIn != "" {
					cmd.Printf("  token refresh due in %s\n", conn.ExpiresIn)
				}
			}

			resp, err := client.Metrics(cmd.Context(), cfg.UserID, nil)
			if err != nil {
				return err
			}
			if p := resp.Profile; p != nil && p.BaselineMedianBpm != nil {
				cmd.Printf("Profile: baseline %.1f bpm, drift %.1f bpm, %d sessions\n",
					*p.BaselineMedianBpm, *p.TypicalDriftBpm, p.SampleCount)
			} else {
				cmd.Println("Profile: no sessions recorded yet")
			}

			store, err := openLocalStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			runs, err := store.RecentRuns(cmd.Context(), 5)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				return nil
			}

			cmd.Println("Recent sessions:")
			for _, run := range runs {
				mark := " "
				if !run.Submitted {
					mark = "!"
				}
				cmd.Printf("  %s %s  %s  avg %.1f peak %.1f  alerts %d\n",
					mark,
					run.StartedAt.Format("2006-01-02 15:04"),
					run.EndedAt.Sub(run.StartedAt).Round(time.Minute),
					run.AvgRollingBpm,
					run.PeakRollingBpm,
					run.AlertWindows)
			}
			return nil
		},
	}
}

func formatScopes(scopes []string) string {
	if len(scopes) == 0 {
		return "none"
	}
	return strings.Join(scopes, ", ")
}
