package main

import (
	"github.com/spf13/cobra"
)

func disconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Revoke wearable access and forget the connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, cfg, err := clientFromEnv()
			if err != nil {
				return err
			}

			if err := client.Disconnect(cmd.Context(), cfg.UserID); err != nil {
				return err
			}

			cmd.Println("Wearable disconnected.")
			return nil
		},
	}
}
