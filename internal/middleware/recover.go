package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/safepay/wallet-api/internal/pkg/errorhandler"
)

// Recover turns panics into INTERNAL_ERROR responses tagged with the request id
func Recover(h *errorhandler.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					h.HandlePanic(r.Context(), w, err, string(debug.Stack()))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
