package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/safepay/wallet-api/internal/pkg/logger"
)

// Logger logs one line per HTTP request. It runs after chi's RealIP, so RemoteAddr already holds
// the client address reported by a trusted proxy.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		// The request-scoped logger already carries request_id
		l := logger.FromContext(r.Context())
		var event *zerolog.Event
		if wrapped.statusCode >= http.StatusInternalServerError {
			event = l.Error()
		} else {
			event = l.Info()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).
			Dur("duration", time.Since(start)).
			Str("ip", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("HTTP Request")
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
