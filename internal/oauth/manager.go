package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mtreharne/focusbeat/internal/credential"
	"github.com/mtreharne/focusbeat/internal/xerrors"
	"github.com/mtreharne/focusbeat/internal/xslog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// expiryBuffer is the safety margin subtracted from the stored expiry.
// A token inside the buffer is treated as expired so it never dies
// mid-request.
const expiryBuffer = 90 * time.Second

const refreshTimeout = 10 * time.Second

// Manager owns the stored credential lifecycle: exchange, transparent
// refresh with per-user single-flight, and revocation. Refresh tokens
// are one-time-use, so duplicate refresh calls for the same user would
// invalidate the credential; the singleflight group serializes them.
type Manager struct {
	config *oauth2.Config
	store  credential.Store
	group  singleflight.Group
	logger *slog.Logger
}

func NewManager(config *oauth2.Config, store credential.Store, logger *slog.Logger) *Manager {
	return &Manager{
		config: config,
		store:  store,
		logger: logger,
	}
}

// AccessToken returns a currently valid access token for the user,
// refreshing if the stored one is inside the expiry buffer. Fails closed
// with xerrors.ErrNotConnected when no credential exists.
func (m *Manager) AccessToken(ctx context.Context, userID string) (string, error) {
	if m.config.ClientID == "" {
		return "", xerrors.ErrNotConfigured
	}

	cred, err := m.store.Get(ctx, userID)
	if errors.Is(err, credential.ErrNotFound) {
		return "", xerrors.ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}

	if fresh(cred, time.Now()) {
		return cred.AccessToken, nil
	}

	token, err, _ := m.group.Do(userID, func() (any, error) {
		return m.refresh(userID)
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// refresh runs inside the per-user flight. It re-reads the stored
// credential first: a caller that queued behind a completed refresh must
// use its result rather than burning the rotated refresh token again.
func (m *Manager) refresh(userID string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	cred, err := m.store.Get(ctx, userID)
	if errors.Is(err, credential.ErrNotFound) {
		return "", xerrors.ErrNotConnected
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}

	now := time.Now()
	if fresh(cred, now) {
		return cred.AccessToken, nil
	}

	if cred.RefreshToken == "" {
		return "", fmt.Errorf("%w: no refresh token stored", xerrors.ErrAuthExpired)
	}

	src := m.config.TokenSource(ctx, &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.ExpiresAt,
	})

	newToken, refreshErr := src.Token()
	if refreshErr != nil {
		// Rotation race: another process may have consumed the refresh
		// token first. If the stored credential is now safely fresh,
		// that writer won and its access token is good.
		latest, gerr := m.store.Get(ctx, userID)
		if gerr == nil && fresh(latest, time.Now()) {
			m.logger.InfoContext(ctx, "refresh lost rotation race, using stored token",
				xslog.UserID(userID))
			return latest.AccessToken, nil
		}

		return "", fmt.Errorf("%w: refresh grant failed", xerrors.ErrAuthExpired)
	}

	next := credential.Credential{
		UserID:       userID,
		AccessToken:  newToken.AccessToken,
		RefreshToken: newToken.RefreshToken,
		TokenType:    newToken.TokenType,
		GrantedScope: cred.GrantedScope,
		ExpiresAt:    newToken.Expiry,
	}
	if next.RefreshToken == "" {
		// vendor did not rotate; keep the old one
		next.RefreshToken = cred.RefreshToken
	}
	if scope := tokenScope(newToken); scope != "" {
		next.GrantedScope = scope
	}

	if err := m.store.Upsert(ctx, next); err != nil {
		return "", fmt.Errorf("saving refreshed credential: %w", err)
	}

	m.logger.DebugContext(ctx, "refreshed vendor token", xslog.UserID(userID))
	return next.AccessToken, nil
}

// Exchange performs the authorization-code grant and persists the full
// token envelope as a single upsert.
func (m *Manager) Exchange(ctx context.Context, userID string, code string) error {
	token, err := m.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}

	scope := tokenScope(token)
	if scope == "" {
		scope = strings.Join(m.config.Scopes, " ")
	}

	cred := credential.Credential{
		UserID:       userID,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		GrantedScope: scope,
		ExpiresAt:    token.Expiry,
	}

	if err := m.store.Upsert(ctx, cred); err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Revoke deletes the stored credential so the user is prompted to
// reconnect instead of polling a permanently broken integration.
func (m *Manager) Revoke(ctx context.Context, userID string) error {
	if err := m.store.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// AuthCodeURL builds the vendor authorization URL for the given state.
func (m *Manager) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return m.config.AuthCodeURL(state, opts...)
}

// TokenSource adapts the manager to oauth2.TokenSource for the vendor
// client's transport.
func (m *Manager) TokenSource(userID string) oauth2.TokenSource {
	return &managerTokenSource{manager: m, userID: userID}
}

type managerTokenSource struct {
	manager *Manager
	userID  string
}

var _ oauth2.TokenSource = (*managerTokenSource)(nil)

func (s *managerTokenSource) Token() (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	accessToken, err := s.manager.AccessToken(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"}, nil
}

func fresh(cred *credential.Credential, now time.Time) bool {
	return cred.ExpiresAt.Add(-expiryBuffer).After(now)
}

func tokenScope(token *oauth2.Token) string {
	scope, _ := token.Extra("scope").(string)
	return scope
}
