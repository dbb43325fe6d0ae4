package instrument

import (
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
	KindOther  Kind = "other"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusClosed    Status = "closed"
)

// Instrument is the caller-visible part of a payment method.
type Instrument struct {
	InstrumentID string `db:"instrument_id" json:"instrument_id"`
	Kind         Kind   `db:"kind" json:"kind"`
	Brand        string `db:"brand" json:"brand"`
	Last4        string `db:"last4" json:"last4"`
	Nickname     string `db:"nickname" json:"nickname"`
}

// AccountState is the current limit and status data behind an instrument.
// Providers read it fresh on every lookup.
type AccountState struct {
	Status          Status          `db:"status" json:"status"`
	AvailableCredit decimal.Decimal `db:"available_credit" json:"available_credit"`
	DailyLimit      decimal.Decimal `db:"daily_limit" json:"daily_limit"`
	SpentToday      decimal.Decimal `db:"spent_today" json:"spent_today"`
}

// Record is what a provider returns for one instrument.
type Record struct {
	Instrument
	AccountState
}

// IsActive reports whether the instrument may be charged at all.
func (s AccountState) IsActive() bool {
	return s.Status == StatusActive
}

// Find returns the record with the given instrument id.
func Find(records []Record, instrumentID string) (Record, bool) {
	for _, r := range records {
		if r.InstrumentID == instrumentID {
			return r, true
		}
	}
	return Record{}, false
}
