package dto

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/erp/ledger/internal/domain/invoicing"
	"github.com/erp/ledger/internal/domain/ledger"
	"github.com/erp/ledger/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		kind     shared.ErrorKind
		expected int
	}{
		{"IMBALANCED_ENTRY", shared.KindValidation, http.StatusBadRequest},
		{"ACCOUNT_NOT_FOUND", shared.KindNotFound, http.StatusNotFound},
		{"INVOICE_LOCKED", shared.KindConcurrency, http.StatusConflict},
		{"ACCOUNT_IN_USE", shared.KindInvalidState, http.StatusUnprocessableEntity},
		{"EXTERNAL_IO", shared.KindExternalIO, http.StatusServiceUnavailable},
		{"DUPLICATE_ACCOUNT", shared.KindValidation, http.StatusConflict},
		{"SOMETHING", "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code, tt.kind))
		})
	}
}

func TestFromError(t *testing.T) {
	status, info := FromError(fmt.Errorf("post: %w", ledger.ErrImbalancedEntry.Withf("debits 10 != credits 9")))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "IMBALANCED_ENTRY", info.Code)
	assert.Equal(t, "debits 10 != credits 9", info.Message)

	status, info = FromError(invoicing.ErrConcurrency)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "CONCURRENCY_CONFLICT", info.Code)

	status, info = FromError(errors.New("pq: connection refused"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrCodeInternal, info.Code)
	assert.NotContains(t, info.Message, "pq")
}

func TestResponseEnvelope(t *testing.T) {
	raw, err := json.Marshal(NewSuccessResponse(map[string]int{"lines": 2}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":{"lines":2}}`, string(raw))

	raw, err = json.Marshal(NewErrorResponseWithRequestID("INVOICE_NOT_FOUND", "Invoice not found", "req-1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"INVOICE_NOT_FOUND","message":"Invoice not found","request_id":"req-1"}}`, string(raw))

	raw, err = json.Marshal(NewValidationErrorResponse("Request validation failed", "", []ValidationDetail{{Field: "journal", Message: "This field is required"}}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"VALIDATION_ERROR","message":"Request validation failed","details":[{"field":"journal","message":"This field is required"}]}}`, string(raw))
}
