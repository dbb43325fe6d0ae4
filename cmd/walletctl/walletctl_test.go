package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/domain/instrument"
	"github.com/safepay/wallet-api/internal/domain/payment"
	"github.com/safepay/wallet-api/internal/pkg/apperror"
)

func TestSeedThenLookupThroughLocalObjectStore(t *testing.T) {
	cfg := &config.Config{
		Provider:   instrument.ProviderS3,
		S3Endpoint: "file://" + t.TempDir(),
		S3Prefix:   "users/",
	}
	ctx := context.Background()

	var out bytes.Buffer
	if err := runSeed(ctx, cfg, instrument.ProviderS3, "", &out); err != nil {
		t.Fatalf("runSeed: %v", err)
	}
	if !strings.Contains(out.String(), "Seeded 4 users into s3") {
		t.Fatalf("unexpected seed output %q", out.String())
	}

	provider, cleanup, err := instrument.NewProvider(ctx, cfg)
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	defer cleanup()
	svc := payment.NewService(provider)

	out.Reset()
	if err := runLookup(ctx, svc, "user1", false, &out); err != nil {
		t.Fatalf("runLookup: %v", err)
	}
	if !strings.Contains(out.String(), "card_001") || !strings.Contains(out.String(), "Sapphire Card") {
		t.Fatalf("unexpected lookup output:\n%s", out.String())
	}
}

func TestLookupJSONReportsDomainError(t *testing.T) {
	provider, err := instrument.NewDefaultMemoryProvider()
	if err != nil {
		t.Fatalf("NewDefaultMemoryProvider: %v", err)
	}
	svc := payment.NewService(provider)

	var out bytes.Buffer
	err = runLookup(context.Background(), svc, "nobody", true, &out)
	if !apperror.HasCode(err, apperror.CodeUserNotFound) {
		t.Fatalf("expected USER_NOT_FOUND, got %v", err)
	}

	var body struct {
		Success bool `json:"success"`
		Error   struct {
			Code string `json:"error_code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(out.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error.Code != "USER_NOT_FOUND" {
		t.Fatalf("unexpected output %s", out.String())
	}
}

func TestSeedRejectsMemoryTarget(t *testing.T) {
	err := runSeed(context.Background(), &config.Config{}, instrument.ProviderMemory, "", &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected error for memory target")
	}
}
