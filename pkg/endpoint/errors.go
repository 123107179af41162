package endpoint

import (
	"errors"
	"fmt"
	"net/http"
)

// BadRequestError is returned for malformed or missing identifying
// parameters and out-of-range values.
type BadRequestError struct {
	Message string
	Field   string
	URI     string
}

func (e *BadRequestError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid value for %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// StatusCode returns the HTTP status code for this error.
func (e *BadRequestError) StatusCode() int {
	return http.StatusBadRequest
}

// BadRequestf builds a BadRequestError with a formatted message.
func BadRequestf(format string, args ...any) *BadRequestError {
	return &BadRequestError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError is returned when no definition exists for a request.
type NotFoundError struct {
	Project string
	Route   string
	Method  string
}

func (e *NotFoundError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("endpoint %s %s/%s not found", e.Method, e.Project, e.Route)
	}
	return fmt.Sprintf("endpoint %s/%s not found", e.Project, e.Route)
}

// StatusCode returns the HTTP status code for this error.
func (e *NotFoundError) StatusCode() int {
	return http.StatusNotFound
}

// MethodNotAllowedError is returned when a definition exists but was
// published for a different method.
type MethodNotAllowedError struct {
	Method   string
	Expected string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method %s not allowed, endpoint expects %s", e.Method, e.Expected)
}

// StatusCode returns the HTTP status code for this error.
func (e *MethodNotAllowedError) StatusCode() int {
	return http.StatusMethodNotAllowed
}

// InternalError wraps a persistence failure.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status code for this error.
func (e *InternalError) StatusCode() int {
	return http.StatusInternalServerError
}

// StatusCodeError is an error carrying an HTTP status code.
type StatusCodeError interface {
	error
	StatusCode() int
}

// ErrorResponse is the JSON body written for every failed request.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Error      string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	Field      string `json:"field,omitempty"`
	Project    string `json:"project,omitempty"`
	Route      string `json:"route,omitempty"`
	Method     string `json:"method,omitempty"`
	Expected   string `json:"expected,omitempty"`
	URI        string `json:"uri,omitempty"`
}

// ToErrorResponse converts an error to an ErrorResponse.
func ToErrorResponse(err error) *ErrorResponse {
	var (
		badRequest *BadRequestError
		notFound   *NotFoundError
		notAllowed *MethodNotAllowedError
	)

	switch {
	case errors.As(err, &badRequest):
		return &ErrorResponse{
			StatusCode: badRequest.StatusCode(),
			Error:      "bad request",
			Detail:     badRequest.Message,
			Field:      badRequest.Field,
			URI:        badRequest.URI,
		}
	case errors.As(err, &notFound):
		return &ErrorResponse{
			StatusCode: notFound.StatusCode(),
			Error:      "endpoint not found",
			Project:    notFound.Project,
			Route:      notFound.Route,
			Method:     notFound.Method,
		}
	case errors.As(err, &notAllowed):
		return &ErrorResponse{
			StatusCode: notAllowed.StatusCode(),
			Error:      "method not allowed",
			Method:     notAllowed.Method,
			Expected:   notAllowed.Expected,
		}
	default:
		return &ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Error:      "internal error",
			Detail:     err.Error(),
		}
	}
}
