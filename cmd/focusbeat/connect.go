package main

import (
	"net/url"

	"github.com/spf13/cobra"
)

func connectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Link your wearable account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := clientFromEnv()
			if err != nil {
				return err
			}

			conn, err := client.Connection(cmd.Context(), cfg.UserID)
			if err == nil && conn.Connected && len(conn.MissingScopes) == 0 {
				cmd.Println("Already connected. Run 'focusbeat status' for details.")
				return nil
			}

			q := make(url.Values)
			q.Set("user_id", cfg.UserID)
			cmd.Println("Open this URL in your browser to connect your wearable:")
			cmd.Println()
			cmd.Printf("  %s/auth/start?%s\n", cfg.ServerURL, q.Encode())
			cmd.Println()
			cmd.Println("Then run 'focusbeat status' to verify the connection.")
			return nil
		},
	}
}
