package payment

import (
	"sort"
	"strings"

	"github.com/safepay/wallet-api/internal/pkg/apperror"
	"github.com/safepay/wallet-api/internal/pkg/validator"
)

// Detail keys used by validation and lookup failures.
const (
	DetailUserID        = "user_id"
	DetailInstrumentID  = "instrument_id"
	DetailValidUserIDs  = "valid_user_ids"
	DetailInvalidFields = "invalid_fields"
)

const fieldAmount = "amount"

func missingUserID() *apperror.Error {
	return apperror.New(apperror.CodeMissingUserID, "user_id is required")
}

// ValidateGetPaymentMethods rejects a blank user id.
func ValidateGetPaymentMethods(req GetPaymentMethodsRequest) *apperror.Error {
	if strings.TrimSpace(req.UserID) == "" {
		return missingUserID()
	}
	return nil
}

// ValidateCheckCharge reports a blank user id as MISSING_USER_ID ahead of any other field.
// Remaining field failures become one INVALID_REQUEST listing every bad field.
func ValidateCheckCharge(req CheckChargeRequest) *apperror.Error {
	if strings.TrimSpace(req.UserID) == "" {
		return missingUserID()
	}
	errs := validator.Validate(req)
	// Compared as a decimal; a float conversion would round tiny amounts to zero.
	if !req.Amount.IsPositive() {
		if errs == nil {
			errs = map[string]string{}
		}
		errs[fieldAmount] = "Value must be greater than 0"
	}
	if len(errs) == 0 {
		return nil
	}
	return invalidRequest(errs)
}

func invalidRequest(errs map[string]string) *apperror.Error {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+errs[f])
	}
	return apperror.New(apperror.CodeInvalidRequest, "invalid request: "+strings.Join(parts, "; ")).
		WithDetail(DetailInvalidFields, fields)
}

// MalformedRequest is returned when a payload cannot be decoded at all.
func MalformedRequest(reason string) *apperror.Error {
	return apperror.New(apperror.CodeInvalidRequest, "malformed request body: "+reason)
}
