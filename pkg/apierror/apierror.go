package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeValidation       = "VALIDATION_FAILED"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeRemote           = "REMOTE_ERROR"
	CodeUnavailable      = "REMOTE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
	CodeMutationInFlight = "MUTATION_IN_FLIGHT"
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
	HTTPStatus int    `json:"-"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Code: code, Message: message, Details: details, HTTPStatus: status}
}

// FromStatus classifies a non-2xx remote status. An empty message falls back
// to the caller-supplied text.
func FromStatus(status int, message string, fallback string) *APIError {
	if message == "" {
		message = fallback
	}

	code := CodeRemote
	switch {
	case status == http.StatusUnauthorized:
		code = CodeUnauthorized
	case status == http.StatusForbidden:
		code = CodeForbidden
	case status == http.StatusNotFound:
		code = CodeNotFound
	case status == http.StatusConflict:
		code = CodeConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code = CodeBadRequest
	case status >= 500:
		code = CodeUnavailable
	}

	return New(code, message, "", status)
}

// UserMessage returns the human-readable text of err, or fallback when err
// carries none.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}

	return fallback
}

func HasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// WithFallback returns err as an *APIError whose message is never empty.
// Errors that are not API errors become INTERNAL_ERROR.
func WithFallback(err error, fallback string) *APIError {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return New(CodeInternal, fallback, err.Error(), http.StatusInternalServerError)
	}

	out := *apiErr
	if out.Message == "" {
		out.Message = fallback
	}
	return &out
}
