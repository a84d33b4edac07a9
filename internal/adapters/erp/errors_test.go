package erp

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewExternalError_RetryableByCode(t *testing.T) {
	tests := []struct {
		code      string
		retryable bool
	}{
		{CodeTimeout, true},
		{CodeServiceUnavailable, true},
		{CodeRateLimit, true},
		{CodePeriodClosed, true},
		{CodeAuthFailed, false},
		{CodeValidation, false},
		{"ACCOUNT_BLOCKED", false},
	}

	for _, tc := range tests {
		err := newExternalError(FamilyS4Cloud, "PostDocument", http.StatusBadRequest, tc.code, "upstream says no")
		assert.Equal(t, tc.retryable, err.Retryable, "code %s", tc.code)
		assert.Equal(t, tc.code, err.Code)
	}
}

func TestNewExternalError_ClassifiesByStatusWhenCodeMissing(t *testing.T) {
	tests := []struct {
		status    int
		code      string
		retryable bool
	}{
		{http.StatusRequestTimeout, CodeTimeout, true},
		{http.StatusGatewayTimeout, CodeTimeout, true},
		{http.StatusTooManyRequests, CodeRateLimit, true},
		{http.StatusBadGateway, CodeServiceUnavailable, true},
		{http.StatusServiceUnavailable, CodeServiceUnavailable, true},
		{http.StatusUnauthorized, CodeAuthFailed, false},
		{http.StatusForbidden, CodeAuthFailed, false},
		{http.StatusUnprocessableEntity, CodeValidation, false},
	}

	for _, tc := range tests {
		err := newExternalError(FamilyBusinessOne, "GetBalance", tc.status, "", "boom")
		assert.Equal(t, tc.code, err.Code, "status %d", tc.status)
		assert.Equal(t, tc.retryable, err.Retryable, "status %d", tc.status)
	}
}

func TestExternalSystemError_Message(t *testing.T) {
	err := newExternalError(FamilyS4OnPrem, "ReverseDocument", http.StatusServiceUnavailable, "", "maintenance window")

	assert.Contains(t, err.Error(), "s4hana_onprem")
	assert.Contains(t, err.Error(), "ReverseDocument")
	assert.Contains(t, err.Error(), "retryable")
	assert.Contains(t, err.Error(), "maintenance window")
}
