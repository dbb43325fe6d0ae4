package instrument

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/safepay/wallet-api/internal/pkg/validator"
)

//go:embed default_dataset.yaml
var defaultDatasetYAML []byte

// UserDocument is the storage-neutral shape of one user record. The memory provider loads it
// from YAML; the Redis and S3 providers store it as JSON.
type UserDocument struct {
	UserID         string               `json:"user_id" yaml:"user_id" validate:"notblank,max=128"`
	Name           string               `json:"name" yaml:"name"`
	PaymentMethods []InstrumentDocument `json:"payment_methods" yaml:"payment_methods" validate:"dive"`
}

// InstrumentDocument carries amounts as strings so no precision is lost in YAML or JSON.
type InstrumentDocument struct {
	CardID          string `json:"card_id" yaml:"card_id" validate:"notblank,max=128"`
	Type            string `json:"type" yaml:"type" validate:"instrument_kind"`
	Brand           string `json:"brand" yaml:"brand"`
	Last4           string `json:"last4" yaml:"last4" validate:"last4"`
	Nickname        string `json:"nickname" yaml:"nickname"`
	Status          string `json:"status,omitempty" yaml:"status,omitempty" validate:"omitempty,oneof=active suspended closed"`
	AvailableCredit string `json:"available_credit" yaml:"available_credit"`
	DailyLimit      string `json:"daily_limit" yaml:"daily_limit"`
	SpentToday      string `json:"spent_today,omitempty" yaml:"spent_today,omitempty"`
}

// Dataset is an ordered set of user documents.
type Dataset struct {
	Users []UserDocument `yaml:"users"`
}

// DefaultDataset returns the built-in dataset used when no dataset file is configured.
func DefaultDataset() (*Dataset, error) {
	return ParseDataset(defaultDatasetYAML)
}

// LoadDataset reads a YAML dataset from path.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ParseDataset(data)
}

// ParseDataset decodes and validates a YAML dataset.
func ParseDataset(data []byte) (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}
	seen := make(map[string]struct{}, len(ds.Users))
	for i := range ds.Users {
		doc := &ds.Users[i]
		if err := doc.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[doc.UserID]; dup {
			return nil, fmt.Errorf("%w: duplicate user %s", ErrInvalidDataset, doc.UserID)
		}
		seen[doc.UserID] = struct{}{}
	}
	return &ds, nil
}

// Validate checks field formats and that instrument ids are unique within the user.
func (d *UserDocument) Validate() error {
	if errs := validator.Validate(d); errs != nil {
		return fmt.Errorf("%w: user %q: %s", ErrInvalidDataset, d.UserID, joinFieldErrors(errs))
	}
	seen := make(map[string]struct{}, len(d.PaymentMethods))
	for _, pm := range d.PaymentMethods {
		if _, dup := seen[pm.CardID]; dup {
			return fmt.Errorf("%w: user %s has duplicate instrument %s", ErrInvalidDataset, d.UserID, pm.CardID)
		}
		seen[pm.CardID] = struct{}{}
	}
	_, err := d.Records()
	return err
}

// Records converts the document into provider records, preserving order.
func (d *UserDocument) Records() ([]Record, error) {
	out := make([]Record, 0, len(d.PaymentMethods))
	for _, pm := range d.PaymentMethods {
		rec, err := pm.Record()
		if err != nil {
			return nil, fmt.Errorf("%w: user %s: %v", ErrInvalidDataset, d.UserID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Record converts one instrument document.
func (p InstrumentDocument) Record() (Record, error) {
	available, err := parseAmount(p.AvailableCredit)
	if err != nil {
		return Record{}, fmt.Errorf("instrument %s available_credit: %w", p.CardID, err)
	}
	limit, err := parseAmount(p.DailyLimit)
	if err != nil {
		return Record{}, fmt.Errorf("instrument %s daily_limit: %w", p.CardID, err)
	}
	spent, err := parseAmount(p.SpentToday)
	if err != nil {
		return Record{}, fmt.Errorf("instrument %s spent_today: %w", p.CardID, err)
	}

	status := Status(p.Status)
	if status == "" {
		status = StatusActive
	}

	return Record{
		Instrument: Instrument{
			InstrumentID: p.CardID,
			Kind:         Kind(p.Type),
			Brand:        p.Brand,
			Last4:        p.Last4,
			Nickname:     p.Nickname,
		},
		AccountState: AccountState{
			Status:          status,
			AvailableCredit: available,
			DailyLimit:      limit,
			SpentToday:      spent,
		},
	}, nil
}

// DocumentFromRecords builds a document back from records. Used by seeding tools.
func DocumentFromRecords(userID, name string, records []Record) UserDocument {
	doc := UserDocument{UserID: userID, Name: name, PaymentMethods: make([]InstrumentDocument, 0, len(records))}
	for _, r := range records {
		doc.PaymentMethods = append(doc.PaymentMethods, InstrumentDocument{
			CardID:          r.InstrumentID,
			Type:            string(r.Kind),
			Brand:           r.Brand,
			Last4:           r.Last4,
			Nickname:        r.Nickname,
			Status:          string(r.Status),
			AvailableCredit: r.AvailableCredit.StringFixed(2),
			DailyLimit:      r.DailyLimit.StringFixed(2),
			SpentToday:      r.SpentToday.StringFixed(2),
		})
	}
	return doc
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount %s is negative", s)
	}
	return d, nil
}

func joinFieldErrors(errs map[string]string) string {
	parts := make([]string, 0, len(errs))
	for field, msg := range errs {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
