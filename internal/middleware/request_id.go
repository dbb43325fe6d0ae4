package middleware

import (
	"net/http"
	"regexp"
	"time"

	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
	"github.com/safepay/wallet-api/internal/pkg/response"
)

const (
	RequestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

var requestIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// RequestContext attaches a reqctx.RequestContext to every request. A well-formed client
// X-Request-ID is kept; anything else is replaced by a generated id.
func RequestContext(gen reqctx.IDGenerator, clock reqctx.Clock) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc := reqctx.New(gen, clock)
			if id := r.Header.Get(RequestIDHeader); validRequestID(id) {
				rc.CorrelationID = id
			}

			w.Header().Set(RequestIDHeader, rc.CorrelationID)

			ctx := reqctx.With(r.Context(), rc)
			ctx = logger.WithRequestID(ctx, rc.CorrelationID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	return id != "" && len(id) <= maxRequestIDLength && requestIDPattern.MatchString(id)
}

// Timeout adds a timeout to requests. The 503 body is the JSON error envelope for the request.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := response.TransportErrorBody(r.Context(), response.CodeRequestTimeout, "Request timeout")
			w.Header().Set("Content-Type", "application/json")
			http.TimeoutHandler(next, timeout, body).ServeHTTP(w, r)
		})
	}
}
