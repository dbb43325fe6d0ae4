package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safepay/wallet-api/internal/pkg/jwt"
)

// Routes returns the payment router. scope wraps each route with its required agent scope and
// may be nil when caller auth is disabled.
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler, scope func(string) func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	if authMiddleware != nil {
		r.Use(authMiddleware)
	}

	with := func(s string) chi.Router {
		if scope == nil {
			return r
		}
		return r.With(scope(s))
	}

	with(jwt.ScopePaymentMethodsRead).Post("/payment-methods", h.ListPaymentMethods)
	with(jwt.ScopePaymentMethodsRead).Get("/users/{userID}/payment-methods", h.GetUserPaymentMethods)
	with(jwt.ScopeChargesCheck).Post("/charges/check", h.CheckCharge)
	return r
}
