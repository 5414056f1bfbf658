package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/mtreharne/focusbeat/internal/oauth"
	"github.com/mtreharne/focusbeat/internal/storage"
	"github.com/mtreharne/focusbeat/internal/xslog"
	"golang.org/x/oauth2"
)

const stateTTL = 5 * time.Minute

func (h *Handler) HandleAuthStart(w http.ResponseWriter, r *http.Request) {
	if !h.configured {
		http.Error(w, "wearable integration is not configured", http.StatusServiceUnavailable)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "missing user_id parameter", http.StatusBadRequest)
		return
	}

	state, err := oauth.GenerateState()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	entry := storage.StateEntry{
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if err := h.states.Set(r.Context(), state, entry, stateTTL); err != nil {
		http.Error(w, "failed to store state", http.StatusInternalServerError)
		return
	}

	authURL := h.manager.AuthCodeURL(state, oauth2.AccessTypeOffline)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

func (h *Handler) HandleAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	state := r.URL.Query().Get("state")
	if state == "" {
		http.Error(w, "missing state parameter", http.StatusBadRequest)
		return
	}

	// single use: replayed or forged states die here
	entry, err := h.states.GetAndDelete(ctx, state)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "invalid or expired state parameter", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, "failed to retrieve state", http.StatusInternalServerError)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		logger.WarnContext(ctx, "authorization denied",
			xslog.UserID(entry.UserID),
			xslog.OAuthError(errParam, r.URL.Query().Get("error_description")))
		writeAuthResult(w, http.StatusBadRequest, "Authorization was denied. You can close this tab and try again.")
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing authorization code", http.StatusBadRequest)
		return
	}

	if err := h.manager.Exchange(ctx, entry.UserID, code); err != nil {
		logger.ErrorContext(ctx, "code exchange failed",
			xslog.UserID(entry.UserID),
			xslog.Error(err))
		writeAuthResult(w, http.StatusBadGateway, "Connecting your wearable failed. Please try again.")
		return
	}

	// exercise the fresh token once so a dud grant surfaces here, not
	// on the first metrics poll
	if _, err := h.clients(entry.UserID).Personal.Get(ctx); err != nil {
		logger.WarnContext(ctx, "post-connect verification failed",
			xslog.UserID(entry.UserID),
			xslog.Error(err))
	}

	logger.InfoContext(ctx, "wearable connected", xslog.UserID(entry.UserID))
	writeAuthResult(w, http.StatusOK, "Wearable connected. You can close this tab and return to the timer.")
}

func writeAuthResult(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte("<!DOCTYPE html><html><body><p>" + message + "</p></body></html>"))
}
