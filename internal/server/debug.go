package server

import (
	"net/http"

	"github.com/mtreharne/focusbeat/internal/xhttp"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

// HandleConnection reports connection health for support and debugging.
// Token values never appear in the payload.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		xhttp.WriteError(w, http.StatusBadRequest, "missing user_id parameter")
		return
	}

	conn, err := h.manager.Introspect(ctx, userID)
	if err != nil {
		xslog.FromContext(ctx).ErrorContext(ctx, "introspecting connection",
			xslog.UserID(userID), xslog.Error(err))
		xhttp.WriteError(w, http.StatusInternalServerError, "failed to inspect connection")
		return
	}

	xhttp.WriteOK(w, conn)
}

// HandleDisconnect revokes vendor access and drops the stored
// credential.
func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		xhttp.WriteError(w, http.StatusBadRequest, "missing user_id parameter")
		return
	}

	// best effort: the vendor-side revoke failing must not strand a
	// credential we can delete locally
	if err := h.clients(userID).Personal.RevokeAccess(ctx); err != nil {
		logger.WarnContext(ctx, "vendor revoke failed",
			xslog.UserID(userID), xslog.Error(err))
	}

	if err := h.manager.Revoke(ctx, userID); err != nil {
		logger.ErrorContext(ctx, "deleting credential",
			xslog.UserID(userID), xslog.Error(err))
		xhttp.WriteError(w, http.StatusInternalServerError, "failed to disconnect")
		return
	}

	xhttp.WriteOK(w, map[string]bool{"disconnected": true})
}
