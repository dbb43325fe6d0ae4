// Package apperror defines the closed error taxonomy returned across the service boundary.
//
// Every failure leaving a payment operation is an *Error whose Code is one of the constants
// below. Anything else is classified as CodeInternal before it is returned.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/safepay/wallet-api/internal/pkg/reqctx"
)

// Code is a stable, caller-facing error category.
type Code string

const (
	CodeMissingUserID      Code = "MISSING_USER_ID"
	CodeInvalidRequest     Code = "INVALID_REQUEST"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeInstrumentNotFound Code = "INSTRUMENT_NOT_FOUND"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Detail keys set by WithRequest.
const (
	DetailRequestID = "request_id"
	DetailTimestamp = "timestamp"
)

// Valid reports whether c belongs to the taxonomy.
func (c Code) Valid() bool {
	switch c {
	case CodeMissingUserID, CodeInvalidRequest, CodeUserNotFound, CodeInstrumentNotFound, CodeInternal:
		return true
	}
	return false
}

// Details holds scalar or list values describing a failure. Never put secrets here.
type Details map[string]interface{}

// Error is a classified, caller-safe failure.
type Error struct {
	Code    Code
	Message string
	Details Details
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by code so errors.Is(err, &Error{Code: CodeUserNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	if !code.Valid() {
		code = CodeInternal
	}
	return &Error{Code: code, Message: msg}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...interface{}) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap classifies err under code. An existing *Error in the chain keeps its code, message and
// details; only the missing pieces come from the arguments.
func Wrap(err error, code Code, msg string) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing.clone()
	}
	e := New(code, msg)
	e.Err = err
	return e
}

// Classify normalises any error into the taxonomy. Context cancellation and unknown errors
// become CodeInternal.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Code: CodeInternal, Message: "user record lookup timed out", Err: err}
	case errors.Is(err, context.Canceled):
		return &Error{Code: CodeInternal, Message: "request cancelled", Err: err}
	}
	return &Error{Code: CodeInternal, Message: "an unexpected error occurred", Err: err}
}

// WithDetail returns e with key set in its details.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = Details{}
	}
	e.Details[key] = value
	return e
}

// WithRequest returns a copy of e whose details carry the request id and timestamp.
// Code and message are never changed.
func (e *Error) WithRequest(rc reqctx.RequestContext) *Error {
	out := e.clone()
	if out.Details == nil {
		out.Details = Details{}
	}
	out.Details[DetailRequestID] = rc.CorrelationID
	out.Details[DetailTimestamp] = rc.Timestamp()
	return out
}

// RequestID returns the correlation id attached by WithRequest, if any.
func (e *Error) RequestID() string {
	if id, ok := e.Details[DetailRequestID].(string); ok {
		return id
	}
	return ""
}

func (e *Error) clone() *Error {
	out := &Error{Code: e.Code, Message: e.Message, Err: e.Err}
	if e.Details != nil {
		out.Details = make(Details, len(e.Details))
		for k, v := range e.Details {
			out.Details[k] = v
		}
	}
	return out
}

// HasCode checks if err is an *Error with the given code.
func HasCode(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// IsClientError reports whether code is an expected, caller-caused outcome.
// Only CodeInternal is a server fault.
func IsClientError(code Code) bool {
	return code.Valid() && code != CodeInternal
}

// HTTPStatus maps a code to its transport status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeMissingUserID, CodeInvalidRequest:
		return http.StatusBadRequest
	case CodeUserNotFound, CodeInstrumentNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
