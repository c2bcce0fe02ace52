package middleware

import (
	"context"
	"net/http"
	"time"

	"research-backend/pkg/api"
)

// Timeout caps how long a handler may run. Handlers observe the deadline
// through the request context; if one returns without writing after the
// deadline passed, the client gets a 504.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			ww := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(ww, r.WithContext(ctx))

			if ctx.Err() == context.DeadlineExceeded && !ww.written() {
				api.Error(ww, http.StatusGatewayTimeout, "request timed out")
			}
		})
	}
}
