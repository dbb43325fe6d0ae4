package errorhandler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/safepay/wallet-api/internal/pkg/apperror"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/metrics"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
	"github.com/safepay/wallet-api/internal/pkg/response"
)

// Handler turns any error into a classified, request-tagged error response.
type Handler struct {
	metrics *metrics.Metrics
}

// New creates an error handler. m may be nil.
func New(m *metrics.Metrics) *Handler {
	return &Handler{metrics: m}
}

// Normalize classifies err and enriches it with the request context found in ctx.
// It never returns nil for a non-nil err.
func Normalize(ctx context.Context, err error) *apperror.Error {
	appErr := apperror.Classify(err)
	if appErr == nil {
		return nil
	}
	if appErr.RequestID() != "" {
		return appErr
	}
	rc, ok := reqctx.From(ctx)
	if !ok {
		return appErr
	}
	return appErr.WithRequest(rc)
}

// Report logs and counts an already-normalised error. Client-class codes are logged at info
// level; only INTERNAL_ERROR is logged as a server fault. Failures of a request the caller
// abandoned are logged at debug level and not counted.
func (h *Handler) Report(ctx context.Context, appErr *apperror.Error) {
	if CallerCancelled(ctx) {
		logger.LogDebug(ctx, "Request cancelled by caller", "error_code", string(appErr.Code))
		return
	}
	h.metrics.RecordDomainError(string(appErr.Code))

	l := logger.FromContext(ctx)
	var event *zerolog.Event
	if apperror.IsClientError(appErr.Code) {
		event = l.Info()
	} else {
		event = l.Error()
		if appErr.Err != nil {
			event = event.Err(appErr.Err)
		}
	}

	event.
		Str("request_id", reqctx.RequestID(ctx)).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message).
		Int("status_code", apperror.HTTPStatus(appErr.Code))

	if apperror.IsClientError(appErr.Code) {
		event.Msg("Request rejected")
		return
	}
	event.Msg("Request error")
}

// CallerCancelled reports whether the caller hung up on the request carried by ctx.
func CallerCancelled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// Handle normalises, reports and writes err.
func (h *Handler) Handle(ctx context.Context, w http.ResponseWriter, err error) {
	appErr := Normalize(ctx, err)
	h.Report(ctx, appErr)
	response.DomainError(w, appErr)
}

// HandlePanic logs a recovered panic with its stack and writes INTERNAL_ERROR.
// The stack trace stays in the logs; callers only see the correlation metadata.
func (h *Handler) HandlePanic(ctx context.Context, w http.ResponseWriter, panicErr interface{}, stackTrace string) {
	logger.FromContext(ctx).Error().
		Str("request_id", reqctx.RequestID(ctx)).
		Interface("panic_error", panicErr).
		Str("panic_stack", stackTrace).
		Msg("Request panic error")

	appErr := Normalize(ctx, fmt.Errorf("panic: %v", panicErr))
	h.metrics.RecordDomainError(string(appErr.Code))
	response.DomainError(w, appErr)
}
