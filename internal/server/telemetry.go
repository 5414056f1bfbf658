package server

import (
	"errors"
	"net/http"

	go_json "github.com/goccy/go-json"
	"github.com/mtreharne/focusbeat/internal/profile"
	"github.com/mtreharne/focusbeat/internal/xerrors"
	"github.com/mtreharne/focusbeat/internal/xhttp"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

func (h *Handler) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	var telemetry profile.Telemetry
	if err := go_json.NewDecoder(r.Body).Decode(&telemetry); err != nil {
		xhttp.WriteError(w, http.StatusBadRequest, "malformed telemetry body")
		return
	}

	updated, err := h.learner.Record(ctx, telemetry)
	if err != nil {
		var xerr *xerrors.Error
		if errors.As(err, &xerr) && xerr.Validation != nil {
			xhttp.WriteValidationError(w, xerr.Validation.Fields)
			return
		}

		logger.ErrorContext(ctx, "recording telemetry",
			xslog.UserID(telemetry.UserID),
			xslog.Error(err))
		xhttp.WriteError(w, http.StatusInternalServerError, "failed to record telemetry")
		return
	}

	xhttp.WriteOK(w, updated)
}
