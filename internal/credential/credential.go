package credential

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("credential not found")

// Credential is the stored OAuth envelope for one user. It is owned by
// the token manager; no other component reads raw token values.
type Credential struct {
	UserID       string
	AccessToken  string
	RefreshToken string
	TokenType    string
	GrantedScope string
	ExpiresAt    time.Time
}

type Store interface {
	// Get returns ErrNotFound when the user has no stored credential.
	Get(ctx context.Context, userID string) (*Credential, error)

	// Upsert persists the full token envelope atomically, keyed on user id.
	Upsert(ctx context.Context, cred Credential) error

	// Delete revokes the stored credential. Deleting an absent credential
	// is not an error.
	Delete(ctx context.Context, userID string) error
}
