package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/mtreharne/focusbeat/internal/xhttp"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

// APIKeyAuth guards API routes with a shared key. An empty configured
// key disables the check for local development.
func APIKeyAuth(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := xhttp.GetRequestHeaderAPIKey(r)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				xslog.FromContext(r.Context()).WarnContext(r.Context(), "rejected API key",
					xslog.RequestPath(r))
				xhttp.WriteError(w, http.StatusUnauthorized, "invalid API key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
