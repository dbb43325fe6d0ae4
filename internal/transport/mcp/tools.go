package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/safepay/wallet-api/internal/domain/payment"
	"github.com/safepay/wallet-api/internal/pkg/errorhandler"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
	"github.com/safepay/wallet-api/internal/pkg/response"
)

// Tool names exposed to agents.
const (
	ToolGetPaymentMethods = "get_payment_methods"
	ToolCheckCharge       = "check_charge"
)

var ErrUnknownTool = errors.New("unknown tool")

// ToolHandler handles MCP tool calls
type ToolHandler struct {
	svc    *payment.Service
	errors *errorhandler.Handler
	ids    reqctx.IDGenerator
	clock  reqctx.Clock
}

// NewToolHandler creates a new tool handler. A call whose ctx carries no request context gets
// one from ids and clock.
func NewToolHandler(svc *payment.Service, errs *errorhandler.Handler, ids reqctx.IDGenerator, clock reqctx.Clock) *ToolHandler {
	return &ToolHandler{svc: svc, errors: errs, ids: ids, clock: clock}
}

// Handle dispatches a tool call. Domain failures come back as a result with IsError set; the
// returned error is reserved for unknown tools.
func (h *ToolHandler) Handle(ctx context.Context, name string, args json.RawMessage) (*CallToolResult, error) {
	ctx, rc := reqctx.Ensure(ctx, h.ids, h.clock)
	ctx = logger.WithRequestID(ctx, rc.CorrelationID)

	var (
		data interface{}
		err  error
	)
	switch name {
	case ToolGetPaymentMethods:
		var req payment.GetPaymentMethodsRequest
		if err = decodeArguments(args, &req); err == nil {
			data, err = h.svc.GetPaymentMethods(ctx, req)
		}
	case ToolCheckCharge:
		var req payment.CheckChargeRequest
		if err = decodeArguments(args, &req); err == nil {
			data, err = h.svc.CheckCharge(ctx, req)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	if err != nil {
		appErr := errorhandler.Normalize(ctx, err)
		h.errors.Report(ctx, appErr)
		return textResult(response.NewErrorInfo(appErr), true)
	}
	return textResult(data, false)
}

func decodeArguments(args json.RawMessage, v interface{}) error {
	if len(bytes.TrimSpace(args)) == 0 || bytes.Equal(bytes.TrimSpace(args), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return payment.MalformedRequest(err.Error())
	}
	return nil
}

func textResult(v interface{}, isError bool) (*CallToolResult, error) {
	text, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &CallToolResult{
		Content: []ToolContent{{Type: "text", Text: string(text)}},
		IsError: isError,
	}, nil
}

func getToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        ToolGetPaymentMethods,
			Description: "List the payment instruments registered to a user, in the order the user's wallet holds them",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user_id": map[string]interface{}{
						"type":        "string",
						"description": "Identifier of the user whose wallet to read",
					},
				},
				"required": []string{"user_id"},
			},
		},
		{
			Name:        ToolCheckCharge,
			Description: "Check whether a proposed charge against one of the user's instruments is currently allowed. Returns sufficient_credit, daily_limit_ok and card_active",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"user_id": map[string]interface{}{
						"type":        "string",
						"description": "Identifier of the user",
					},
					"instrument_id": map[string]interface{}{
						"type":        "string",
						"description": "Instrument to charge, as returned by get_payment_methods",
					},
					"card_id": map[string]interface{}{
						"type":        "string",
						"description": "Alias for instrument_id",
					},
					"amount": map[string]interface{}{
						"type":        "number",
						"description": "Charge amount, greater than 0",
					},
				},
				"required": []string{"user_id", "amount"},
			},
		},
	}
}
