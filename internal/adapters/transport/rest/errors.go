package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/satishbabariya/prisma-soql/internal/core/mutation/domain"
)

// APIError is a non-successful HTTP answer.
type APIError struct {
	Method     string
	Path       string
	HTTPStatus int
	ErrorCode  string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.ErrorCode == "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d %s: %s", e.Method, e.Path, e.HTTPStatus, e.ErrorCode, e.Message)
}

type apiErrorBody struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func responseError(method, path string, resp *http.Response) error {
	if resp.StatusCode == http.StatusServiceUnavailable {
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrServiceUnavailable)
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Method: method, Path: path, HTTPStatus: resp.StatusCode}

	var bodies []apiErrorBody
	if err := json.Unmarshal(data, &bodies); err == nil && len(bodies) > 0 {
		apiErr.ErrorCode = bodies[0].ErrorCode
		apiErr.Message = bodies[0].Message
		return apiErr
	}

	var single struct {
		Error       string `json:"error"`
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(data, &single); err == nil && single.Error != "" {
		apiErr.ErrorCode = single.Error
		apiErr.Message = single.Description
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(data))
	return apiErr
}
