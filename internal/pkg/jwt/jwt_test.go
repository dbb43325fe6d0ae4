package jwt

import (
	"errors"
	"testing"
	"time"
)

func TestAgentTokenRoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateAgentToken("checkout-agent", nil)
	if err != nil {
		t.Fatalf("GenerateAgentToken: %v", err)
	}

	claims, err := svc.ValidateAgentToken(token)
	if err != nil {
		t.Fatalf("ValidateAgentToken: %v", err)
	}
	if claims.AgentID != "checkout-agent" {
		t.Fatalf("expected agent id checkout-agent, got %s", claims.AgentID)
	}
	if !claims.HasScope(ScopeChargesCheck) || !claims.HasScope(ScopePaymentMethodsRead) {
		t.Fatalf("expected default scopes, got %v", claims.Scopes)
	}
}

func TestAgentTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour).GenerateAgentToken("a", nil)
	if err != nil {
		t.Fatalf("GenerateAgentToken: %v", err)
	}
	if _, err := NewService("secret-b", time.Hour).ValidateAgentToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestAgentTokenExpired(t *testing.T) {
	svc := NewService("test-secret", time.Minute)
	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	token, err := svc.GenerateAgentToken("a", []string{ScopeChargesCheck})
	if err != nil {
		t.Fatalf("GenerateAgentToken: %v", err)
	}

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := svc.ValidateAgentToken(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestGenerateAgentTokenRequiresAgentID(t *testing.T) {
	if _, err := NewService("s", time.Hour).GenerateAgentToken("", nil); err == nil {
		t.Fatal("expected error for empty agent id")
	}
}
