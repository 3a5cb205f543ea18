package dto

import (
	"errors"
	"net/http"

	"github.com/erp/ledger/internal/domain/shared"
)

// Codes used for failures that do not come from the domain
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeInvalidTenant   = "INVALID_TENANT"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
)

// kindStatus maps a domain error kind to its HTTP status
var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:   http.StatusBadRequest,
	shared.KindNotFound:     http.StatusNotFound,
	shared.KindConcurrency:  http.StatusConflict,
	shared.KindInvalidState: http.StatusUnprocessableEntity,
	shared.KindExternalIO:   http.StatusServiceUnavailable,
}

// codeStatus overrides the kind mapping for individual codes
var codeStatus = map[string]int{
	"DUPLICATE_ACCOUNT": http.StatusConflict,
	"ALREADY_EXISTS":    http.StatusConflict,
}

// GetHTTPStatus returns the status for a domain error code and kind.
// Unknown kinds answer 500.
func GetHTTPStatus(code string, kind shared.ErrorKind) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// FromError converts err into a status and the error payload of the envelope.
// Errors outside the domain are reported as internal without their message.
func FromError(err error) (int, *ErrorInfo) {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return GetHTTPStatus(de.Code, de.Kind), &ErrorInfo{Code: de.Code, Message: de.Message}
	}
	return http.StatusInternalServerError, &ErrorInfo{Code: ErrCodeInternal, Message: "An unexpected error occurred"}
}
