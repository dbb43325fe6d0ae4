package instrument

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDatasetRejectsDuplicateUsers(t *testing.T) {
	data := []byte(`
users:
  - user_id: u1
    payment_methods: []
  - user_id: u1
    payment_methods: []
`)
	if _, err := ParseDataset(data); !errors.Is(err, ErrInvalidDataset) {
		t.Fatalf("expected ErrInvalidDataset, got %v", err)
	}
}

func TestParseDatasetRejectsBadInstrument(t *testing.T) {
	tests := []struct {
		name string
		card string
	}{
		{"bad last4", `{card_id: c1, type: credit, last4: "12a4", available_credit: "1", daily_limit: "1"}`},
		{"bad kind", `{card_id: c1, type: wire, last4: "1234", available_credit: "1", daily_limit: "1"}`},
		{"negative amount", `{card_id: c1, type: debit, last4: "1234", available_credit: "-1", daily_limit: "1"}`},
		{"bad amount", `{card_id: c1, type: debit, last4: "1234", available_credit: "abc", daily_limit: "1"}`},
		{"blank id", `{card_id: "  ", type: debit, last4: "1234", available_credit: "1", daily_limit: "1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte("users:\n  - user_id: u1\n    payment_methods:\n      - " + tt.card + "\n")
			if _, err := ParseDataset(data); !errors.Is(err, ErrInvalidDataset) {
				t.Fatalf("expected ErrInvalidDataset, got %v", err)
			}
		})
	}
}

func TestLoadDatasetFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.yaml")
	content := `
users:
  - user_id: alice
    name: Alice
    payment_methods:
      - card_id: visa_1
        type: debit
        brand: Visa
        last4: "4242"
        nickname: Everyday
        available_credit: "120.50"
        daily_limit: "300"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}

	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatalf("LoadDataset: %v", err)
	}
	records, err := ds.Users[0].Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Status != StatusActive {
		t.Fatalf("expected default status active, got %s", r.Status)
	}
	if !r.SpentToday.IsZero() {
		t.Fatalf("expected zero spent today, got %s", r.SpentToday)
	}
	if r.AvailableCredit.String() != "120.5" {
		t.Fatalf("unexpected available credit %s", r.AvailableCredit)
	}
}

func TestDocumentFromRecordsRoundTrip(t *testing.T) {
	ds, err := DefaultDataset()
	if err != nil {
		t.Fatalf("DefaultDataset: %v", err)
	}
	records, err := ds.Users[0].Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}

	doc := DocumentFromRecords("user1", "John Doe", records)
	if err := doc.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	back, err := doc.Records()
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	for i := range records {
		if back[i].InstrumentID != records[i].InstrumentID || !back[i].DailyLimit.Equal(records[i].DailyLimit) {
			t.Fatalf("record %d changed: %+v vs %+v", i, back[i], records[i])
		}
	}
}
