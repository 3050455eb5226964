package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/foodieexpress/storefront/pkg/errors"
)

// BackendErrorResponse covers the two error bodies the platform backend
// emits: the nested {"error":{"code","message"}} envelope and the flat
// {"message","errors"} body produced by its validation layer.
type BackendErrorResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", serviceName, resp.StatusCode, err)
	}

	var backend BackendErrorResponse
	if json.Unmarshal(bodyBytes, &backend) == nil {
		switch {
		case backend.Error != nil:
			return mapBackendError(resp.StatusCode, backend.Error.Code, backend.Error.Message, serviceName)
		case backend.Message != "":
			return mapBackendError(resp.StatusCode, "", backend.Message, serviceName)
		case len(backend.Errors) > 0:
			return mapBackendError(resp.StatusCode, "", strings.Join(backend.Errors, "; "), serviceName)
		}
	}

	return mapBackendError(resp.StatusCode, "", strings.TrimSpace(string(bodyBytes)), serviceName)
}

func mapBackendError(status int, code, message, serviceName string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	qualifiedMsg := fmt.Sprintf("%s: %s", serviceName, message)

	switch {
	case status == http.StatusNotFound:
		return apperrors.NotFound(serviceName, message)
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(qualifiedMsg)
	case status == http.StatusConflict:
		return apperrors.Conflict(qualifiedMsg)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(qualifiedMsg)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(qualifiedMsg)
	case status == http.StatusUnprocessableEntity:
		return apperrors.OrderRejected(qualifiedMsg)
	case status >= 500:
		appErr := apperrors.ServiceUnavailable(qualifiedMsg)
		if code != "" {
			appErr.Code = code
		}
		return appErr
	default:
		if code == "" {
			code = "BACKEND_ERROR"
		}
		return &apperrors.AppError{
			Code:    code,
			Message: qualifiedMsg,
			Status:  status,
		}
	}
}
