package errorhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/safepay/wallet-api/internal/pkg/apperror"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/metrics"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
)

type errorEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string                 `json:"error_code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func testContext(buf *bytes.Buffer) context.Context {
	l := zerolog.New(buf)
	ctx := logger.WithContext(context.Background(), &l)
	return reqctx.With(ctx, reqctx.RequestContext{
		CorrelationID: "req-100",
		ReceivedAt:    time.Date(2026, 5, 6, 7, 8, 9, 0, time.UTC),
	})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var out errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return out
}

func TestHandleClientError(t *testing.T) {
	var logs bytes.Buffer
	ctx := testContext(&logs)
	m := metrics.New()
	h := New(m)

	rec := httptest.NewRecorder()
	h.Handle(ctx, rec, apperror.New(apperror.CodeUserNotFound, "user nobody not found").WithDetail("user_id", "nobody"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body.Success || body.Error.Code != "USER_NOT_FOUND" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	if body.Error.Details["request_id"] != "req-100" || body.Error.Details["timestamp"] != "2026-05-06T07:08:09Z" {
		t.Fatalf("missing correlation details: %v", body.Error.Details)
	}
	if body.Error.Details["user_id"] != "nobody" {
		t.Fatalf("original details lost: %v", body.Error.Details)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if entry["level"] != "info" {
		t.Fatalf("client errors must not be logged as faults, got level %v", entry["level"])
	}
	if got := testutil.ToFloat64(m.DomainErrorsTotal.WithLabelValues("USER_NOT_FOUND")); got != 1 {
		t.Fatalf("expected USER_NOT_FOUND counted once, got %v", got)
	}
}

func TestHandleUnclassifiedError(t *testing.T) {
	var logs bytes.Buffer
	ctx := testContext(&logs)
	h := New(nil)

	rec := httptest.NewRecorder()
	h.Handle(ctx, rec, errors.New("pq: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	if body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("expected INTERNAL_ERROR, got %s", body.Error.Code)
	}
	if body.Error.Message == "pq: connection refused" {
		t.Fatalf("raw cause must not reach the caller")
	}
	if body.Error.Details["request_id"] != "req-100" {
		t.Fatalf("missing request id: %v", body.Error.Details)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(logs.Bytes(), &entry); err != nil {
		t.Fatalf("decode log: %v", err)
	}
	if entry["level"] != "error" || entry["error"] != "pq: connection refused" {
		t.Fatalf("expected error-level entry with cause, got %v", entry)
	}
}

func TestNormalizeKeepsExistingEnrichment(t *testing.T) {
	original := apperror.New(apperror.CodeInvalidRequest, "amount must be greater than zero").
		WithRequest(reqctx.RequestContext{CorrelationID: "first", ReceivedAt: time.Unix(0, 0)})

	got := Normalize(testContext(&bytes.Buffer{}), original)

	if got.RequestID() != "first" {
		t.Fatalf("expected original request id kept, got %q", got.RequestID())
	}
}

func TestHandlePanic(t *testing.T) {
	var logs bytes.Buffer
	ctx := testContext(&logs)
	h := New(nil)

	rec := httptest.NewRecorder()
	h.HandlePanic(ctx, rec, "nil map write", "goroutine 1 [running]")

	body := decodeEnvelope(t, rec)
	if rec.Code != http.StatusInternalServerError || body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected panic response: %d %+v", rec.Code, body)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("goroutine")) {
		t.Fatalf("stack trace leaked to caller")
	}
}

func TestHandleCallerCancelledIsNotCounted(t *testing.T) {
	var logs bytes.Buffer
	ctx, cancel := context.WithCancel(testContext(&logs))
	cancel()
	m := metrics.New()
	h := New(m)

	rec := httptest.NewRecorder()
	h.Handle(ctx, rec, fmt.Errorf("lookup user user1: %w", context.Canceled))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if got := testutil.ToFloat64(m.DomainErrorsTotal.WithLabelValues(string(apperror.CodeInternal))); got != 0 {
		t.Fatalf("cancelled request counted as domain error: %v", got)
	}
	if bytes.Contains(logs.Bytes(), []byte(`"level":"error"`)) {
		t.Fatalf("cancelled request logged as server fault: %s", logs.String())
	}
}
