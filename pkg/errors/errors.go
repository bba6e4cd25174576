package errors

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType classifies an AppError. Clients branch on it; the message is for people.
type ErrorType string

const (
	// Request errors
	ErrorTypeValidation   ErrorType = "VALIDATION"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeRateLimit    ErrorType = "RATE_LIMIT"

	// Server errors
	ErrorTypeInternal    ErrorType = "INTERNAL"
	ErrorTypeUnavailable ErrorType = "UNAVAILABLE"
	ErrorTypeDatabase    ErrorType = "DATABASE"

	// Client-side errors raised while talking to the API
	ErrorTypeNetwork         ErrorType = "NETWORK"
	ErrorTypeServerRejection ErrorType = "SERVER_REJECTION"
	ErrorTypeStale           ErrorType = "STALE"
)

// ErrStaleResponse marks a completion that arrived after its target state moved on
var ErrStaleResponse = errors.New("response no longer relevant to current state")

// AppError is an error with a type, an HTTP status and optional structured details
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	Code       string                 `json:"code,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StackTrace string                 `json:"-"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetails attaches structured details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCause wraps an underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Cause = err
	return e
}

func newAppError(errType ErrorType, status int, message string) *AppError {
	return &AppError{
		Type:       errType,
		Message:    message,
		HTTPStatus: status,
		StackTrace: stackTrace(),
	}
}

// stackTrace skips itself, newAppError and the exported constructor
func stackTrace() string {
	var pcs [32]uintptr
	n := runtime.Callers(4, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s:%d %s\n", frame.File, frame.Line, frame.Function)
		if !more {
			break
		}
	}
	return b.String()
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message)
}

// NewNotFoundError creates a not found error for resource
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", resource))
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return newAppError(ErrorTypeConflict, http.StatusConflict, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message)
}

// NewDatabaseError reports a failed storage operation
func NewDatabaseError(operation string, err error) *AppError {
	return newAppError(ErrorTypeDatabase, http.StatusInternalServerError,
		fmt.Sprintf("database operation '%s' failed", operation)).WithCause(err)
}

// NewNetworkError reports a request that never produced a response
func NewNetworkError(message string, err error) *AppError {
	return newAppError(ErrorTypeNetwork, http.StatusBadGateway, message).WithCause(err)
}

// NewServerRejection reports a non-2xx response. The detail is kept verbatim;
// an empty detail falls back to a generic message.
func NewServerRejection(status int, detail string) *AppError {
	if detail == "" {
		detail = fmt.Sprintf("request failed with status %d", status)
	}
	return newAppError(ErrorTypeServerRejection, status, detail)
}

// NewStaleError wraps ErrStaleResponse with the operation that was discarded
func NewStaleError(operation string) *AppError {
	return newAppError(ErrorTypeStale, http.StatusConflict,
		fmt.Sprintf("discarded stale result of '%s'", operation)).WithCause(ErrStaleResponse)
}

// GetAppError extracts AppError from an error chain
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

// IsType checks if an error is of a specific type
func IsType(err error, errType ErrorType) bool {
	appErr := GetAppError(err)
	return appErr != nil && appErr.Type == errType
}

// IsNotFound matches NOT_FOUND app errors and domain errors
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound) || isDomainType(err, DomainNotFoundError)
}

// IsValidation matches VALIDATION app errors and domain errors
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation) || isDomainType(err, DomainValidationError)
}

// IsConflict matches CONFLICT app errors and domain errors
func IsConflict(err error) bool {
	return IsType(err, ErrorTypeConflict) || isDomainType(err, DomainConflictError)
}

func isDomainType(err error, errType DomainErrorType) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Type == errType
}

// IsNetwork checks if an error is a transport failure
func IsNetwork(err error) bool {
	return IsType(err, ErrorTypeNetwork)
}

// IsServerRejection checks if an error is a non-2xx remote response
func IsServerRejection(err error) bool {
	return IsType(err, ErrorTypeServerRejection)
}

// IsStale checks if an error reports a discarded stale response
func IsStale(err error) bool {
	return errors.Is(err, ErrStaleResponse)
}

// StatusOf returns the HTTP status carried by an AppError or DomainError, or 0
func StatusOf(err error) int {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.HTTPStatus
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.StatusCode
	}
	return 0
}
