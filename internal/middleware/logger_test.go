package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/safepay/wallet-api/internal/pkg/logger"
)

func TestLoggerUsesProxyAddressAndStatusLevel(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantLevel string
	}{
		{"client error", http.StatusNotFound, "info"},
		{"server error", http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			base := zerolog.New(&buf)

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			withLogger := func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					next.ServeHTTP(w, r.WithContext(logger.WithContext(r.Context(), &base)))
				})
			}
			h := chimw.RealIP(withLogger(Logger(inner)))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/user1/payment-methods", nil)
			req.Header.Set("X-Real-IP", "203.0.113.7")
			h.ServeHTTP(httptest.NewRecorder(), req)

			var entry map[string]interface{}
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log entry: %v; raw=%s", err, buf.String())
			}
			if entry["ip"] != "203.0.113.7" {
				t.Fatalf("expected proxy address, got %v", entry["ip"])
			}
			if entry["level"] != tt.wantLevel || entry["status"] != float64(tt.status) {
				t.Fatalf("unexpected entry %v", entry)
			}
		})
	}
}
