package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/mtreharne/focusbeat/internal/client/oura"
	"github.com/mtreharne/focusbeat/internal/credential"
	"github.com/mtreharne/focusbeat/internal/oauth"
	"github.com/mtreharne/focusbeat/internal/profile"
	"github.com/mtreharne/focusbeat/internal/service/metrics"
	"github.com/mtreharne/focusbeat/internal/storage"
	"golang.org/x/oauth2"
)

type stubCollections struct {
	heartRows []oura.Row
}

func (s *stubCollections) HeartRate(context.Context, string, *time.Time) ([]oura.Row, error) {
	return s.heartRows, nil
}

func (s *stubCollections) DailyStress(context.Context, string) (oura.Row, error) {
	return nil, nil
}

type testEnv struct {
	handler *Handler
	creds   *credential.MemoryStore
	backend *storage.MemoryBackend
	tokenTS *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokenTS := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"granted-access","token_type":"Bearer","refresh_token":"granted-refresh","expires_in":3600,"scope":"heartrate daily personal"}`))
	}))
	t.Cleanup(tokenTS.Close)

	logger := slog.New(slog.DiscardHandler)
	creds := credential.NewMemoryStore()
	manager := oauth.NewManager(&oauth2.Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		Scopes:       oauth.RequiredScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   tokenTS.URL + "/authorize",
			TokenURL:  tokenTS.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}, creds, logger)

	backend := storage.NewMemoryBackend(100, 100)
	t.Cleanup(func() { _ = backend.Close() })

	profiles := profile.NewMemoryStore()
	collections := &stubCollections{}

	h := NewHandler(Config{
		Manager: manager,
		States:  backend,
		Metrics: metrics.New(true, collections, manager, profiles, logger),
		Learner: profile.NewLearner(profiles, logger),
		Clients: func(userID string) *oura.Client {
			return oura.New(manager.TokenSource(userID),
				oura.WithBaseURL(tokenTS.URL),
				oura.WithLogger(logger))
		},
		Configured: true,
		Logger:     logger,
	})

	return &testEnv{handler: h, creds: creds, backend: backend, tokenTS: tokenTS}
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestHandleAuthStartRedirects(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/start?user_id=user-1", nil))

	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want 307", rec.Code)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("parsing redirect location: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("redirect carries no state parameter")
	}
	if got := loc.Query().Get("scope"); !strings.Contains(got, "heartrate") {
		t.Errorf("scope = %q, want heartrate requested", got)
	}

	// state must be stored and bound to the user
	entry, err := env.backend.GetAndDelete(context.Background(), state)
	if err != nil {
		t.Fatalf("state not stored: %v", err)
	}
	if entry.UserID != "user-1" {
		t.Errorf("state bound to %q, want user-1", entry.UserID)
	}
}

func TestHandleAuthStartRequiresUserID(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/start", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleAuthCallbackStoresCredential(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	entry := storage.StateEntry{UserID: "user-1", CreatedAt: time.Now()}
	if err := env.backend.Set(context.Background(), "state-1", entry, time.Minute); err != nil {
		t.Fatalf("seeding state: %v", err)
	}

	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1&code=auth-code", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	cred, err := env.creds.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("credential not stored: %v", err)
	}
	if cred.AccessToken != "granted-access" || cred.RefreshToken != "granted-refresh" {
		t.Errorf("stored envelope = %q/%q", cred.AccessToken, cred.RefreshToken)
	}
	if cred.GrantedScope != "heartrate daily personal" {
		t.Errorf("granted scope = %q", cred.GrantedScope)
	}
}

func TestHandleAuthCallbackRejectsReplayedState(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	entry := storage.StateEntry{UserID: "user-1", CreatedAt: time.Now()}
	if err := env.backend.Set(context.Background(), "state-1", entry, time.Minute); err != nil {
		t.Fatalf("seeding state: %v", err)
	}

	routes := env.handler.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1&code=auth-code", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("first callback status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1&code=auth-code", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("replayed callback status = %d, want 400", rec.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics?user_id=user-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp metrics.Response
	if err := go_json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Connected {
		t.Error("Connected = false")
	}
}

func TestHandleMetricsRejectsBadFocusStart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics?user_id=user-1&focus_start=yesterday", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleTelemetry(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{
		"user_id": "user-1",
		"session_started_at": "2026-08-24T09:00:00Z",
		"session_ended_at": "2026-08-24T09:25:00Z",
		"baseline_bpm": 70,
		"peak_rolling_bpm": 85,
		"avg_rolling_bpm": 76,
		"alert_windows": 1
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/telemetry", strings.NewReader(body))
	env.handler.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	var updated profile.Profile
	if err := go_json.NewDecoder(rec.Body).Decode(&updated); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if updated.SampleCount != 1 {
		t.Errorf("sample count = %d, want 1", updated.SampleCount)
	}
}

func TestHandleTelemetryValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	body := `{
		"user_id": "user-1",
		"session_started_at": "2026-08-24T09:00:00Z",
		"session_ended_at": "2026-08-24T09:25:00Z",
		"baseline_bpm": 500,
		"peak_rolling_bpm": 85,
		"avg_rolling_bpm": 76
	}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/telemetry", strings.NewReader(body))
	env.handler.Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestHandleConnectionDebug(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rec := httptest.NewRecorder()
	env.handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/debug/connection?user_id=user-1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "access_token") || strings.Contains(body, "granted-access") {
		t.Errorf("debug payload leaks token material: %s", body)
	}
}

func TestAPIKeyGuard(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.apiKey = "secret-key"
	routes := env.handler.Routes()

	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics?user_id=user-1", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status without key = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/metrics?user_id=user-1", nil)
	req.Header.Set("X-Api-Key", "secret-key")
	routes.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status with key = %d, want 200", rec.Code)
	}

	// auth flow and health stay open
	rec = httptest.NewRecorder()
	routes.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", rec.Code)
	}
}
