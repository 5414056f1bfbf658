package oauth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mtreharne/focusbeat/internal/credential"
)

// Connection describes the stored credential for debugging without ever
// exposing raw token values.
type Connection struct {
	Connected     bool       `json:"connected"`
	GrantedScopes []string   `json:"granted_scopes"`
	MissingScopes []string   `json:"missing_scopes"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	ExpiresIn     string     `json:"expires_in,omitempty"`
}

func (m *Manager) Introspect(ctx context.Context, userID string) (*Connection, error) {
	cred, err := m.store.Get(ctx, userID)
	if errors.Is(err, credential.ErrNotFound) {
		return &Connection{
			Connected:     false,
			MissingScopes: slices.Clone(RequiredScopes),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading credential: %w", err)
	}

	granted := strings.Fields(cred.GrantedScope)

	var missing []string
	for _, scope := range RequiredScopes {
		if !slices.Contains(granted, scope) {
			missing = append(missing, scope)
		}
	}

	expiresAt := cred.ExpiresAt
	return &Connection{
		Connected:     true,
		GrantedScopes: granted,
		MissingScopes: missing,
		ExpiresAt:     &expiresAt,
		ExpiresIn:     time.Until(expiresAt).Round(time.Second).String(),
	}, nil
}
