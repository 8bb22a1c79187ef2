// Package apperror defines a centralized system for application-specific errors.
// Every error the server writes to a client goes through AppError, so all JSON error
// bodies share one shape (see ErrorResponse) and one mapping to HTTP status codes.
package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// ErrorType is an enumeration (using `iota`) for different categories of application errors.
type ErrorType int

const (
	// UnknownError is for unspecified errors
	UnknownError ErrorType = iota
	// BadRequestError represents a malformed request from the caller
	BadRequestError
	// NotFoundError represents a route or resource that does not exist
	NotFoundError
	// MethodNotAllowedError represents an HTTP method the route does not serve
	MethodNotAllowedError
	// InternalError represents a generic internal server error
	InternalError
	// InvalidBackendResponse represents a backend answer that is not JSON
	InvalidBackendResponse
	// BackendUnavailable represents a failure to reach the backend at all
	BackendUnavailable
	// NotImplementedError represents a feature this server cannot offer
	NotImplementedError
)

// PreviewLength is how many characters of an unexpected backend body are echoed as a preview.
const PreviewLength = 200

// Meta carries the optional diagnostic fields some errors expose to clients.
type Meta struct {
	ContentType string
	Preview     string
	Details     string
	Backend     string
}

// AppError is a custom error type for the application.
// Message is the user-facing summary (the `error` field of the response), Detail is
// the longer explanation (the `message` field), and Err is the wrapped cause.
type AppError struct {
	Type    ErrorType
	Message string
	Detail  string
	Meta    Meta
	Err     error // Underlying error
}

// Error returns the string representation of the error, satisfying the `error` interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Unwrap returns the underlying error so `errors.Is` and `errors.As` can inspect the chain.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code appropriate for the error type.
// Both backend failure kinds map to 500.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case BadRequestError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case MethodNotAllowedError:
		return http.StatusMethodNotAllowed
	case NotImplementedError:
		return http.StatusNotImplemented
	case InvalidBackendResponse, BackendUnavailable, InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// NewAppError creates a new AppError. This is a generic constructor.
func NewAppError(errType ErrorType, message string, underlyingError error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     underlyingError,
	}
}

// NewBadRequestError creates a new BadRequestError
func NewBadRequestError(message string, underlyingError error) *AppError {
	e := NewAppError(BadRequestError, message, underlyingError)
	if underlyingError != nil {
		e.Detail = underlyingError.Error()
	}
	return e
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(message string) *AppError {
	return NewAppError(NotFoundError, message, nil)
}

// NewMethodNotAllowedError creates a new MethodNotAllowedError for the given method.
func NewMethodNotAllowedError(method string) *AppError {
	e := NewAppError(MethodNotAllowedError, "Method not allowed", nil)
	e.Detail = fmt.Sprintf("method %s is not supported on this route", method)
	return e
}

// NewInternalError creates a new InternalError
func NewInternalError(message string, underlyingError error) *AppError {
	return NewAppError(InternalError, message, underlyingError)
}

// NewInvalidBackendResponseError reports a backend response that is not JSON, either
// because of its content type or because the body does not parse.
// The raw body is kept in Details and its first PreviewLength characters in Preview.
func NewInvalidBackendResponseError(contentType, body string) *AppError {
	e := NewAppError(InvalidBackendResponse, "Invalid response from backend", nil)
	shown := contentType
	if shown == "" {
		shown = "no content type"
	}
	e.Detail = fmt.Sprintf("the backend response (%s) is not valid JSON; check that the endpoint exists and is configured correctly", shown)
	e.Meta = Meta{
		ContentType: contentType,
		Preview:     Preview(body),
		Details:     body,
	}
	return e
}

// NewBackendUnavailableError reports a failure to reach the backend at backendURL.
func NewBackendUnavailableError(backendURL string, underlyingError error) *AppError {
	e := NewAppError(BackendUnavailable, "Failed to connect to backend", underlyingError)
	if underlyingError != nil {
		e.Detail = underlyingError.Error()
	} else {
		e.Detail = "Unknown error"
	}
	e.Meta.Backend = backendURL
	return e
}

// Preview truncates s to PreviewLength characters without splitting a UTF-8 sequence.
func Preview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLength])
}

// ErrorResponse represents the error payload written to API clients.
type ErrorResponse struct {
	Error       string `json:"error" example:"Failed to connect to backend"`
	Message     string `json:"message,omitempty" example:"dial tcp 127.0.0.1:4000: connect: connection refused"`
	ContentType string `json:"contentType,omitempty" example:"text/html; charset=utf-8"`
	Preview     string `json:"preview,omitempty" example:"<!DOCTYPE html><html>..."`
	Details     string `json:"details,omitempty"`
	Backend     string `json:"backend,omitempty" example:"http://localhost:4000"`
}

// ToResponse converts an AppError to an ErrorResponse suitable for API responses.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:       e.Message,
		Message:     e.Detail,
		ContentType: e.Meta.ContentType,
		Preview:     e.Meta.Preview,
		Details:     e.Meta.Details,
		Backend:     e.Meta.Backend,
	}
}

// FromError attempts to convert a generic error to an *AppError.
// It returns the *AppError and true if successful, otherwise nil and false.
func FromError(err error) (*AppError, bool) {
	if err == nil {
		return nil, false
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// WriteJSON serializes `data` to JSON and writes it with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		// The header is already out; nothing useful can be sent if encoding fails.
		_ = json.NewEncoder(w).Encode(data)
	}
}

// Write converts any error into the standardized JSON error response.
// Errors that are not *AppError are wrapped in a generic InternalError.
func Write(w http.ResponseWriter, err error) {
	appErr, ok := FromError(err)
	if !ok {
		appErr = NewInternalError("an unexpected error occurred", err)
		appErr.Detail = err.Error()
	}
	WriteJSON(w, appErr.StatusCode(), appErr.ToResponse())
}
