package httpclient

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/foodieexpress/storefront/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func nestedError(code, message string) string {
	return `{"error":{"code":"` + code + `","message":"` + message + `"}}`
}

func TestParseResponseError_StatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		code     string
	}{
		{"not found", http.StatusNotFound, nestedError("NOT_FOUND", "restaurant r9"), apperrors.ErrNotFound, "NOT_FOUND"},
		{"bad request", http.StatusBadRequest, `{"message":"deliveryAddress is required"}`, apperrors.ErrInvalidInput, "INVALID_INPUT"},
		{"conflict", http.StatusConflict, nestedError("CONFLICT", "duplicate"), apperrors.ErrConflict, "CONFLICT"},
		{"unauthorized", http.StatusUnauthorized, `{"message":"token expired"}`, apperrors.ErrUnauthorized, "UNAUTHORIZED"},
		{"forbidden", http.StatusForbidden, `{"message":"not your order"}`, apperrors.ErrForbidden, "FORBIDDEN"},
		{"unprocessable", http.StatusUnprocessableEntity, `{"message":"restaurant closed"}`, apperrors.ErrOrderRejected, "ORDER_REJECTED"},
		{"server error", http.StatusInternalServerError, `oops`, apperrors.ErrServiceUnavail, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, tt.body), "backend")
			require.Error(t, err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestParseResponseError_FlatMessagePreserved(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusUnprocessableEntity, `{"message":"restaurant closed"}`), "backend")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "backend: restaurant closed", appErr.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
}

func TestParseResponseError_ValidationErrorsList(t *testing.T) {
	body := `{"errors":["street is required","zipCode is required"]}`
	err := ParseResponseError(makeResponse(http.StatusBadRequest, body), "backend")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "backend: street is required; zipCode is required", appErr.Message)
}

func TestParseResponseError_ServerErrorKeepsBackendCode(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusServiceUnavailable, nestedError("MAINTENANCE", "down")), "backend")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "MAINTENANCE", appErr.Code)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
}

func TestParseResponseError_EmptyBodyUsesStatusText(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusBadRequest, ``), "backend")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "backend: Bad Request", appErr.Message)
}

func TestParseResponseError_UnmappedStatus(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusTooManyRequests, `slow down`), "backend")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "BACKEND_ERROR", appErr.Code)
	assert.Equal(t, http.StatusTooManyRequests, appErr.Status)
	assert.Equal(t, "backend: slow down", appErr.Message)
}
