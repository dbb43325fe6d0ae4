package payment

import (
	"github.com/shopspring/decimal"

	"github.com/safepay/wallet-api/internal/domain/instrument"
)

// ChargeCheckResult holds three independent checks.
type ChargeCheckResult struct {
	SufficientCredit bool
	DailyLimitOK     bool
	CardActive       bool
}

// Allowed reports whether every check passed.
func (r ChargeCheckResult) Allowed() bool {
	return r.SufficientCredit && r.DailyLimitOK && r.CardActive
}

// Evaluator computes charge checks against a record's current account state.
// It never short-circuits: all three checks are always computed.
type Evaluator struct{}

func (Evaluator) Evaluate(rec instrument.Record, amount decimal.Decimal) ChargeCheckResult {
	return ChargeCheckResult{
		SufficientCredit: amount.LessThanOrEqual(rec.AvailableCredit),
		DailyLimitOK:     rec.SpentToday.Add(amount).LessThanOrEqual(rec.DailyLimit),
		CardActive:       rec.IsActive(),
	}
}
