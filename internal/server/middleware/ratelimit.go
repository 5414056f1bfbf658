package middleware

import (
	"net/http"
	"time"

	"github.com/mtreharne/focusbeat/internal/storage"
	"github.com/mtreharne/focusbeat/internal/xhttp"
	"github.com/mtreharne/focusbeat/internal/xslog"
)

// RateLimit applies IP-based rate limiting in front of the whole mux.
func RateLimit(limiter storage.RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := xslog.FromContext(r.Context())
			ip := xhttp.GetRequestIP(r)

			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.ErrorContext(r.Context(), "rate limit check failed",
					xslog.Error(err),
					xslog.IP(ip))
				xhttp.WriteError(w, http.StatusServiceUnavailable, "rate limit check failed")
				return
			}

			if !allowed {
				xhttp.SetHeaderRetryAfter(w, time.Second)
				xhttp.WriteError(w, http.StatusTooManyRequests, "too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
