package main

import (
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtreharne/focusbeat/internal/config"
	"github.com/spf13/cobra"
)

// credentialsCmd lists stored connections for support work. Token
// values are never printed.
func credentialsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "credentials",
		Short: "List connected users and token expiry",
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

			rows, err := pool.Query(cmd.Context(), `
				SELECT user_id, granted_scope, expires_at, updated_at
				FROM credentials
				ORDER BY updated_at DESC`)
			if err != nil {
				return fmt.Errorf("querying credentials: %w", err)
			}
			defer rows.Close()

			n := 0
			for rows.Next() {
				var userID, scope string
				var expiresAt, updatedAt time.Time
				if err := rows.Scan(&userID, &scope, &expiresAt, &updatedAt); err != nil {
					return fmt.Errorf("scanning credential: %w", err)
				}

				status := "valid"
				if !expiresAt.After(time.Now()) {
					status = "expired"
				}
				cmd.Printf("%s  %s  expires %s (%s)  scopes: %s\n",
					userID,
					status,
					expiresAt.Format(time.RFC3339),
					time.Until(expiresAt).Round(time.Minute),
					scope)
				n++
			}
			if err := rows.Err(); err != nil {
				return err
			}
			if n == 0 {
				cmd.Println("No connected users")
			}
			return nil
		},
	}
}
