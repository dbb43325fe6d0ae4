package response

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/safepay/wallet-api/internal/pkg/apperror"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
)

// DecodeJSON decodes JSON from request body into the provided struct
func DecodeJSON(body io.ReadCloser, v interface{}) error {
	defer body.Close()
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo is the stable error payload.
type ErrorInfo struct {
	Code    string                 `json:"error_code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details"`
}

// NewErrorInfo converts a domain error to its wire shape.
func NewErrorInfo(err *apperror.Error) *ErrorInfo {
	details := make(map[string]interface{}, len(err.Details))
	for k, v := range err.Details {
		details[k] = v
	}
	return &ErrorInfo{
		Code:    string(err.Code),
		Message: err.Message,
		Details: details,
	}
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// OK sends a 200 OK response
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, data)
}

// DomainError sends the error envelope with the status mapped from the error code.
func DomainError(w http.ResponseWriter, err *apperror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperror.HTTPStatus(err.Code))

	resp := Response{
		Success: false,
		Error:   NewErrorInfo(err),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// Codes written by the HTTP layer itself. They sit outside the domain taxonomy.
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeRouteNotFound    = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeRequestTimeout   = "REQUEST_TIMEOUT"
)

// Unauthorized sends a 401 response for callers without a valid agent token.
func Unauthorized(ctx context.Context, w http.ResponseWriter, message string) {
	transportError(ctx, w, http.StatusUnauthorized, CodeUnauthorized, message)
}

// Forbidden sends a 403 response for agent tokens lacking a scope.
func Forbidden(ctx context.Context, w http.ResponseWriter, message string) {
	transportError(ctx, w, http.StatusForbidden, CodeForbidden, message)
}

// NotFound is the router's handler for unknown paths.
func NotFound(w http.ResponseWriter, r *http.Request) {
	transportError(r.Context(), w, http.StatusNotFound, CodeRouteNotFound, "No route for "+r.URL.Path)
}

// MethodNotAllowed is the router's handler for known paths hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	transportError(r.Context(), w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "Method "+r.Method+" not allowed")
}

// TransportErrorBody renders the error envelope for code. It is used where the body must be
// produced before the status is known, such as http.TimeoutHandler.
func TransportErrorBody(ctx context.Context, code, message string) string {
	data, _ := json.Marshal(Response{Success: false, Error: transportErrorInfo(ctx, code, message)})
	return string(data) + "\n"
}

func transportError(ctx context.Context, w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: false,
		Error:   transportErrorInfo(ctx, code, message),
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// transportErrorInfo carries the same request_id and timestamp details as domain errors.
func transportErrorInfo(ctx context.Context, code, message string) *ErrorInfo {
	details := map[string]interface{}{}
	if rc, ok := reqctx.From(ctx); ok {
		details[apperror.DetailRequestID] = rc.CorrelationID
		details[apperror.DetailTimestamp] = rc.Timestamp()
	}
	return &ErrorInfo{Code: code, Message: message, Details: details}
}
