package errors

import (
	"fmt"
	"strings"
)

// DomainErrorType represents the category of domain error
type DomainErrorType string

const (
	// DomainValidationError indicates input validation failure
	DomainValidationError DomainErrorType = "VALIDATION_ERROR"

	// DomainBusinessRuleError indicates a business rule violation
	DomainBusinessRuleError DomainErrorType = "BUSINESS_RULE_ERROR"

	// DomainNotFoundError indicates a resource was not found
	DomainNotFoundError DomainErrorType = "NOT_FOUND"

	// DomainConflictError indicates a conflict with existing state
	DomainConflictError DomainErrorType = "CONFLICT"
)

// DomainError represents a domain-specific error with rich context
type DomainError struct {
	Type       DomainErrorType        `json:"type"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Cause      error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// NewDomainError creates a new domain error
func NewDomainError(errorType DomainErrorType, code string, message string) *DomainError {
	return &DomainError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		StatusCode: domainErrorTypeToStatusCode(errorType),
	}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Type, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// WithDetail returns a copy of the error carrying an extra detail.
// Sentinels are shared, so the receiver is never mutated.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	clone := *e
	clone.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		clone.Details[k] = v
	}
	clone.Details[key] = value
	return &clone
}

// WithCause returns a copy of the error wrapping cause
func (e *DomainError) WithCause(cause error) *DomainError {
	clone := *e
	clone.Cause = cause
	return &clone
}

// Is matches domain errors by type and code
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// Unwrap returns the underlying cause
func (e *DomainError) Unwrap() error {
	return e.Cause
}

func domainErrorTypeToStatusCode(errorType DomainErrorType) int {
	switch errorType {
	case DomainValidationError:
		return 400
	case DomainBusinessRuleError:
		return 422
	case DomainNotFoundError:
		return 404
	case DomainConflictError:
		return 409
	default:
		return 500
	}
}

// Common domain errors
var (
	ErrSelfLink = NewDomainError(
		DomainValidationError,
		"SELF_LINK",
		"A concept cannot be linked to itself",
	)

	ErrDuplicateLink = NewDomainError(
		DomainConflictError,
		"DUPLICATE_LINK",
		"Link already exists",
	)

	ErrLinkNotFound = NewDomainError(
		DomainNotFoundError,
		"LINK_NOT_FOUND",
		"Link not found",
	)

	ErrDuplicateConceptName = NewDomainError(
		DomainConflictError,
		"DUPLICATE_CONCEPT_NAME",
		"Concept with this name already exists",
	)

	ErrConceptNameTaken = NewDomainError(
		DomainConflictError,
		"CONCEPT_NAME_TAKEN",
		"Another concept with this name already exists",
	)

	ErrConceptNotFound = NewDomainError(
		DomainNotFoundError,
		"CONCEPT_NOT_FOUND",
		"Concept not found",
	)

	ErrAnnotationNotFound = NewDomainError(
		DomainNotFoundError,
		"ANNOTATION_NOT_FOUND",
		"Annotation not found",
	)

	ErrDocumentNotFound = NewDomainError(
		DomainNotFoundError,
		"DOCUMENT_NOT_FOUND",
		"Document not found",
	)

	ErrBlobNotFound = NewDomainError(
		DomainNotFoundError,
		"BLOB_NOT_FOUND",
		"Document content not found",
	)

	ErrTooManyAnnotationRefs = NewDomainError(
		DomainBusinessRuleError,
		"TOO_MANY_ANNOTATION_REFS",
		"Concept references too many annotations",
	)

	ErrTooManyLinks = NewDomainError(
		DomainBusinessRuleError,
		"TOO_MANY_LINKS",
		"Concept has too many links",
	)
)

// ValidationErrors aggregates multiple field validation failures
type ValidationErrors struct {
	Errors []*DomainError `json:"errors"`
}

// NewValidationErrors creates a new validation errors collection
func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]*DomainError, 0),
	}
}

// Add adds a validation error
func (v *ValidationErrors) Add(field string, message string) {
	err := NewDomainError(DomainValidationError, "FIELD_VALIDATION_ERROR", message).
		WithDetail("field", field)
	v.Errors = append(v.Errors, err)
}

// HasErrors returns true if there are validation errors
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}

	messages := make([]string, len(v.Errors))
	for i, err := range v.Errors {
		messages[i] = err.Message
	}
	return fmt.Sprintf("Validation failed: %s", strings.Join(messages, "; "))
}

// ToMap converts validation errors to a map for JSON serialization
func (v *ValidationErrors) ToMap() map[string][]string {
	result := make(map[string][]string)

	for _, err := range v.Errors {
		field, ok := err.Details["field"].(string)
		if !ok {
			field = "general"
		}
		result[field] = append(result[field], err.Message)
	}

	return result
}

// AsAppError folds the collection into a single VALIDATION AppError, or nil
func (v *ValidationErrors) AsAppError() error {
	if !v.HasErrors() {
		return nil
	}
	fields := make(map[string]interface{})
	for field, messages := range v.ToMap() {
		fields[field] = messages
	}
	return NewValidationError(v.Error()).WithDetails(fields)
}
