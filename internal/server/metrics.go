package server

import (
	"net/http"
	"time"

	"github.com/mtreharne/focusbeat/internal/xhttp"
)

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		xhttp.WriteError(w, http.StatusBadRequest, "missing user_id parameter")
		return
	}

	var focusStart *time.Time
	if raw := r.URL.Query().Get("focus_start"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			xhttp.WriteError(w, http.StatusBadRequest, "focus_start must be RFC 3339")
			return
		}
		focusStart = &ts
	}

	xhttp.WriteOK(w, h.metrics.Read(r.Context(), userID, focusStart))
}
