package payment

import (
	"github.com/shopspring/decimal"

	"github.com/safepay/wallet-api/internal/domain/instrument"
)

// GetPaymentMethodsRequest for POST /payment-methods
type GetPaymentMethodsRequest struct {
	UserID string `json:"user_id" validate:"notblank"`
}

// CheckChargeRequest for POST /charges/check
type CheckChargeRequest struct {
	UserID       string          `json:"user_id" validate:"notblank"`
	InstrumentID string          `json:"instrument_id" validate:"notblank"`
	Amount       decimal.Decimal `json:"amount"`

	// CardID is accepted as an alias for InstrumentID.
	CardID string `json:"card_id,omitempty"`
}

func (r CheckChargeRequest) normalized() CheckChargeRequest {
	if r.InstrumentID == "" && r.CardID != "" {
		r.InstrumentID = r.CardID
	}
	r.CardID = ""
	return r
}

// PaymentMethodResponse is one instrument as returned to callers.
type PaymentMethodResponse struct {
	InstrumentID string `json:"instrument_id"`
	Kind         string `json:"kind"`
	Brand        string `json:"brand"`
	Last4        string `json:"last4"`
	Nickname     string `json:"nickname"`
}

// ChargeCheckResponse always carries all three checks.
type ChargeCheckResponse struct {
	SufficientCredit bool `json:"sufficient_credit"`
	DailyLimitOK     bool `json:"daily_limit_ok"`
	CardActive       bool `json:"card_active"`
}

// NewPaymentMethodResponses maps records 1:1, keeping order. The result is never nil.
func NewPaymentMethodResponses(records []instrument.Record) []PaymentMethodResponse {
	out := make([]PaymentMethodResponse, 0, len(records))
	for _, r := range records {
		out = append(out, PaymentMethodResponse{
			InstrumentID: r.InstrumentID,
			Kind:         string(r.Kind),
			Brand:        r.Brand,
			Last4:        r.Last4,
			Nickname:     r.Nickname,
		})
	}
	return out
}

func NewChargeCheckResponse(res ChargeCheckResult) *ChargeCheckResponse {
	return &ChargeCheckResponse{
		SufficientCredit: res.SufficientCredit,
		DailyLimitOK:     res.DailyLimitOK,
		CardActive:       res.CardActive,
	}
}
