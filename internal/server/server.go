package server

import (
	"log/slog"
	"net/http"

	"github.com/mtreharne/focusbeat/internal/collect"
	"github.com/mtreharne/focusbeat/internal/oauth"
	"github.com/mtreharne/focusbeat/internal/profile"
	"github.com/mtreharne/focusbeat/internal/server/middleware"
	"github.com/mtreharne/focusbeat/internal/service/metrics"
	"github.com/mtreharne/focusbeat/internal/storage"
	"github.com/mtreharne/focusbeat/internal/xhttp"
)

// Handler bundles the HTTP surface: OAuth connect flow, the metrics
// read path, telemetry ingestion, and debug introspection.
type Handler struct {
	manager    *oauth.Manager
	states     storage.StateStore
	metrics    *metrics.Service
	learner    *profile.Learner
	clients    collect.ClientFor
	configured bool
	apiKey     string
	logger     *slog.Logger
}

type Config struct {
	Manager    *oauth.Manager
	States     storage.StateStore
	Metrics    *metrics.Service
	Learner    *profile.Learner
	Clients    collect.ClientFor
	Configured bool
	APIKey     string
	Logger     *slog.Logger
}

func NewHandler(cfg Config) *Handler {
	return &Handler{
		manager:    cfg.Manager,
		states:     cfg.States,
		metrics:    cfg.Metrics,
		learner:    cfg.Learner,
		clients:    cfg.Clients,
		configured: cfg.Configured,
		apiKey:     cfg.APIKey,
		logger:     cfg.Logger,
	}
}

// Routes wires the full route table. API routes sit behind the
// optional key check; the OAuth flow and health probe stay open.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET /auth/start", h.HandleAuthStart)
	mux.HandleFunc("GET /auth/callback", h.HandleAuthCallback)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/metrics", h.HandleMetrics)
	api.HandleFunc("POST /api/telemetry", h.HandleTelemetry)
	api.HandleFunc("GET /api/debug/connection", h.HandleConnection)
	api.HandleFunc("DELETE /api/connection", h.HandleDisconnect)

	mux.Handle("/api/", middleware.APIKeyAuth(h.apiKey)(api))

	return mux
}

func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	xhttp.WriteOK(w, map[string]string{"status": "ok"})
}
