package main

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtreharne/focusbeat/internal/config"
	"github.com/mtreharne/focusbeat/internal/migrations/postgres"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.ReadServer()
			if err != nil {
				return fmt.Errorf("reading config: %w", err)
			}

			pool, err := pgxpool.New(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return fmt.Errorf("connecting: %w", err)
			}
			defer pool.Close()

			if err := postgres.Apply(cmd.Context(), pool); err != nil {
				return err
			}

			cmd.Println("Migrations applied successfully")
			return nil
		},
	}
}
