package dto

import (
	"net/http"

	"github.com/schoolfee/backend/internal/domain/fee"
	"github.com/schoolfee/backend/internal/domain/payroll"
	"github.com/schoolfee/backend/internal/domain/shared"
)

// Codes produced by the transport layer itself
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRateLimited     = "RATE_LIMIT_EXCEEDED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:           http.StatusBadRequest,
	shared.CodeInvalidInput:         http.StatusBadRequest,
	shared.CodeInvalidEffectiveDate: http.StatusBadRequest,
	shared.CodeOverpaymentRejected:  http.StatusBadRequest,
	ErrCodeBadRequest:               http.StatusBadRequest,

	shared.CodeUnauthorized: http.StatusUnauthorized,
	shared.CodeForbidden:    http.StatusForbidden,
	shared.CodeNotFound:     http.StatusNotFound,

	shared.CodeAlreadyExists:          http.StatusConflict,
	fee.CodeBillAlreadyExists:         http.StatusConflict,
	fee.CodeBillHasPayments:           http.StatusConflict,
	fee.CodeCategoryInUse:             http.StatusConflict,
	payroll.CodeRecordAlreadyExists:   http.StatusConflict,
	shared.CodeConcurrentModification: http.StatusConflict,

	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	shared.CodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeRateLimited:      http.StatusTooManyRequests,

	ErrCodeInternal: http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, 500 when unknown
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
