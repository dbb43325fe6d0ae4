package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/safepay/wallet-api/internal/pkg/errorhandler"
	"github.com/safepay/wallet-api/internal/pkg/response"
)

// Handler exposes Service over HTTP.
type Handler struct {
	svc    *Service
	errors *errorhandler.Handler
}

func NewHandler(svc *Service, errs *errorhandler.Handler) *Handler {
	return &Handler{svc: svc, errors: errs}
}

// ListPaymentMethods handles POST /payment-methods
func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	var req GetPaymentMethodsRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		h.errors.Handle(r.Context(), w, MalformedRequest(err.Error()))
		return
	}
	h.listPaymentMethods(w, r, req)
}

// GetUserPaymentMethods handles GET /users/{userID}/payment-methods
func (h *Handler) GetUserPaymentMethods(w http.ResponseWriter, r *http.Request) {
	h.listPaymentMethods(w, r, GetPaymentMethodsRequest{UserID: chi.URLParam(r, "userID")})
}

func (h *Handler) listPaymentMethods(w http.ResponseWriter, r *http.Request, req GetPaymentMethodsRequest) {
	methods, err := h.svc.GetPaymentMethods(r.Context(), req)
	if err != nil {
		h.errors.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, methods)
}

// CheckCharge handles POST /charges/check
func (h *Handler) CheckCharge(w http.ResponseWriter, r *http.Request) {
	var req CheckChargeRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		h.errors.Handle(r.Context(), w, MalformedRequest(err.Error()))
		return
	}

	result, err := h.svc.CheckCharge(r.Context(), req)
	if err != nil {
		h.errors.Handle(r.Context(), w, err)
		return
	}
	response.OK(w, result)
}
