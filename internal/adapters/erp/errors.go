package erp

import (
	"fmt"
	"net/http"
)

// Upstream error codes classified as retryable. Everything else
// (validation, authorization, mapping errors) is fatal for the document.
const (
	CodeTimeout            = "TIMEOUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeRateLimit          = "RATE_LIMIT"
	CodePeriodClosed       = "POSTING_PERIOD_CLOSED"
	CodeAuthFailed         = "AUTHENTICATION_FAILED"
	CodeValidation         = "VALIDATION_FAILED"
)

var retryableCodes = map[string]bool{
	CodeTimeout:            true,
	CodeServiceUnavailable: true,
	CodeRateLimit:          true,
	CodePeriodClosed:       true,
}

// ExternalSystemError wraps any failure from the connector boundary. It
// carries the upstream payload for diagnostics and a retryable
// classification that is surfaced to the caller, never acted on here.
type ExternalSystemError struct {
	Family     SystemFamily
	Operation  string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *ExternalSystemError) Error() string {
	kind := "non-retryable"
	if e.Retryable {
		kind = "retryable"
	}
	return fmt.Sprintf("%s %s failed (%s, %s): %s", e.Family, e.Operation, e.Code, kind, e.Message)
}

// newExternalError classifies an upstream failure by HTTP status and error
// code and wraps it for the caller.
func newExternalError(family SystemFamily, operation string, statusCode int, code, message string) *ExternalSystemError {
	if code == "" {
		code = codeForStatus(statusCode)
	}
	return &ExternalSystemError{
		Family:     family,
		Operation:  operation,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryableCodes[code] || retryableStatus(statusCode),
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return CodeTimeout
	case http.StatusTooManyRequests:
		return CodeRateLimit
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return CodeServiceUnavailable
	case http.StatusUnauthorized, http.StatusForbidden:
		return CodeAuthFailed
	default:
		return CodeValidation
	}
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}
