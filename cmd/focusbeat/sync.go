package main

import (
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Resubmit sessions that never reached the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := clientFromEnv()
			if err != nil {
				return err
			}

			store, err := openLocalStore(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			resubmitPending(cmd, client, store)
			return nil
		},
	}
}
