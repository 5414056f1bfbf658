package credential

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

func (s *PostgresStore) Get(ctx context.Context, userID string) (*Credential, error) {
	const query = `
		SELECT user_id, access_token, refresh_token, token_type, granted_scope, expires_at
		FROM credentials
		WHERE user_id = $1`

	var cred Credential
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&cred.UserID,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.TokenType,
		&cred.GrantedScope,
		&cred.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting credential: %w", err)
	}
	return &cred, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, cred Credential) error {
	const query = `
		INSERT INTO credentials (user_id, access_token, refresh_token, token_type, granted_scope, expires_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			granted_scope = EXCLUDED.granted_scope,
			expires_at = EXCLUDED.expires_at,
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query,
		cred.UserID,
		cred.AccessToken,
		cred.RefreshToken,
		cred.TokenType,
		cred.GrantedScope,
		cred.ExpiresAt,
	); err != nil {
		return fmt.Errorf("upserting credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID string) error {
	const query = `DELETE FROM credentials WHERE user_id = $1`

	if _, err := s.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}
