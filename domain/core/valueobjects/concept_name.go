package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/whikwon/nexusnote/domain/config"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// ConceptName is the trimmed, non-blank display name of a concept
type ConceptName struct {
	value string
}

// NewConceptName creates a name with validation using default configuration
func NewConceptName(name string) (ConceptName, error) {
	return NewConceptNameWithConfig(name, config.DefaultDomainConfig())
}

// NewConceptNameWithConfig creates a name with validation and configuration
func NewConceptNameWithConfig(name string, cfg *config.DomainConfig) (ConceptName, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return ConceptName{}, pkgerrors.NewValidationError("concept name cannot be empty")
	}

	if utf8.RuneCountInString(name) > cfg.MaxConceptNameLength {
		return ConceptName{}, pkgerrors.NewValidationError(
			fmt.Sprintf("concept name exceeds maximum length of %d characters", cfg.MaxConceptNameLength))
	}

	return ConceptName{value: name}, nil
}

// String returns the name
func (n ConceptName) String() string {
	return n.value
}

// Key returns the form used for uniqueness comparisons
func (n ConceptName) Key() string {
	return strings.ToLower(n.value)
}

// Equals compares names case-insensitively
func (n ConceptName) Equals(other ConceptName) bool {
	return n.Key() == other.Key()
}

// IsEmpty checks if the name is the zero value
func (n ConceptName) IsEmpty() bool {
	return n.value == ""
}
