package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/safepay/wallet-api/internal/domain/instrument"
	"github.com/safepay/wallet-api/internal/domain/payment"
	"github.com/safepay/wallet-api/internal/pkg/errorhandler"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	provider, err := instrument.NewDefaultMemoryProvider()
	if err != nil {
		t.Fatalf("NewDefaultMemoryProvider: %v", err)
	}
	n := 0
	ids := reqctx.IDGeneratorFunc(func() string {
		n++
		return fmt.Sprintf("mcp-%d", n)
	})
	clock := func() time.Time { return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC) }

	svc := payment.NewService(provider)
	return NewServer(NewToolHandler(svc, errorhandler.New(nil), ids, clock))
}

func runLines(t *testing.T, s *Server, lines ...string) []MCPResponse {
	t.Helper()
	var out bytes.Buffer
	if err := s.Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")+"\n"), &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var resps []MCPResponse
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var r MCPResponse
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			t.Fatalf("decode response %q: %v", sc.Text(), err)
		}
		resps = append(resps, r)
	}
	return resps
}

func toolResult(t *testing.T, r MCPResponse) CallToolResult {
	t.Helper()
	raw, err := json.Marshal(r.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var res CallToolResult
	if err := json.Unmarshal(raw, &res); err != nil {
		t.Fatalf("decode tool result: %v", err)
	}
	if len(res.Content) != 1 || res.Content[0].Type != "text" {
		t.Fatalf("unexpected content %+v", res.Content)
	}
	return res
}

func TestInitializeAndListTools(t *testing.T) {
	resps := runLines(t, newTestServer(t),
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`,
	)
	if len(resps) != 2 {
		t.Fatalf("expected 2 responses (notification gets none), got %d", len(resps))
	}

	raw, _ := json.Marshal(resps[1].Result)
	var list ListToolsResult
	if err := json.Unmarshal(raw, &list); err != nil {
		t.Fatalf("decode tools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range list.Tools {
		names[tool.Name] = true
	}
	if !names[ToolGetPaymentMethods] || !names[ToolCheckCharge] {
		t.Fatalf("missing tools in %v", names)
	}
}

func TestCallGetPaymentMethods(t *testing.T) {
	resps := runLines(t, newTestServer(t),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_payment_methods","arguments":{"user_id":"user1"}}}`,
	)
	res := toolResult(t, resps[0])
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content[0].Text)
	}

	var methods []payment.PaymentMethodResponse
	if err := json.Unmarshal([]byte(res.Content[0].Text), &methods); err != nil {
		t.Fatalf("decode methods: %v", err)
	}
	if len(methods) != 2 || methods[0].InstrumentID != "card_001" || methods[1].InstrumentID != "card_002" {
		t.Fatalf("unexpected methods %+v", methods)
	}
}

func TestCallDomainErrorsAreToolErrors(t *testing.T) {
	resps := runLines(t, newTestServer(t),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_payment_methods","arguments":{"user_id":"nobody"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"check_charge","arguments":{"user_id":"user1","card_id":"card_999","amount":50.0}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"check_charge","arguments":{"user_id":"user1","instrument_id":"card_001","amount":-1}}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"get_payment_methods","arguments":{}}}`,
	)

	wantCodes := []string{"USER_NOT_FOUND", "INSTRUMENT_NOT_FOUND", "INVALID_REQUEST", "MISSING_USER_ID"}
	for i, want := range wantCodes {
		res := toolResult(t, resps[i])
		if !res.IsError {
			t.Fatalf("call %d: expected isError", i+1)
		}
		var payload struct {
			Code    string                 `json:"error_code"`
			Message string                 `json:"message"`
			Details map[string]interface{} `json:"details"`
		}
		if err := json.Unmarshal([]byte(res.Content[0].Text), &payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.Code != want {
			t.Fatalf("call %d: expected %s, got %s", i+1, want, payload.Code)
		}
		if payload.Details["request_id"] != fmt.Sprintf("mcp-%d", i+1) {
			t.Fatalf("call %d: unexpected request_id %v", i+1, payload.Details["request_id"])
		}
		if payload.Details["timestamp"] != "2026-07-01T00:00:00Z" {
			t.Fatalf("call %d: unexpected timestamp %v", i+1, payload.Details["timestamp"])
		}
	}
}

func TestCallCheckCharge(t *testing.T) {
	resps := runLines(t, newTestServer(t),
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"check_charge","arguments":{"user_id":"user1","card_id":"card_001","amount":50.0}}}`,
	)
	res := toolResult(t, resps[0])
	if res.IsError {
		t.Fatalf("unexpected error result: %s", res.Content[0].Text)
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(res.Content[0].Text), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"sufficient_credit", "daily_limit_ok", "card_active"} {
		if _, ok := out[key].(bool); !ok {
			t.Fatalf("missing %s in %v", key, out)
		}
	}
}

func TestProtocolErrors(t *testing.T) {
	resps := runLines(t, newTestServer(t),
		`not json`,
		`{"jsonrpc":"2.0","id":1,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"transfer_funds","arguments":{}}}`,
	)
	want := []int{codeParseError, codeMethodNotFound, codeInvalidParams}
	if len(resps) != len(want) {
		t.Fatalf("expected %d responses, got %d", len(want), len(resps))
	}
	for i, code := range want {
		if resps[i].Error == nil || resps[i].Error.Code != code {
			t.Fatalf("response %d: expected error code %d, got %+v", i, code, resps[i].Error)
		}
	}
}
