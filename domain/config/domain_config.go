package config

import "fmt"

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Annotation constraints
	MaxHighlightAreas   int
	MaxQuoteLength      int
	MaxCommentLength    int
	MaxTagLength        int
	AllowBareHighlights bool

	// Concept constraints
	MaxConceptNameLength    int
	MaxConceptCommentLength int
	MaxAnnotationRefs       int
	MaxLinksPerConcept      int

	// Document constraints
	MaxDocumentNameLength int
	DefaultContentType    string
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		// Annotation constraints
		MaxHighlightAreas:   64,
		MaxQuoteLength:      20000,
		MaxCommentLength:    50000,
		MaxTagLength:        32,
		AllowBareHighlights: false,

		// Concept constraints
		MaxConceptNameLength:    200,
		MaxConceptCommentLength: 50000,
		MaxAnnotationRefs:       1000,
		MaxLinksPerConcept:      500,

		// Document constraints
		MaxDocumentNameLength: 255,
		DefaultContentType:    "application/pdf",
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Tighter payload limits for production
	config.MaxQuoteLength = 10000
	config.MaxCommentLength = 20000
	config.MaxConceptCommentLength = 20000

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxHighlightAreas = 256
	config.MaxAnnotationRefs = 10000
	config.MaxLinksPerConcept = 5000

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks if the configuration is valid
func (c *DomainConfig) Validate() error {
	if c.MaxHighlightAreas < 1 {
		return fmt.Errorf("MaxHighlightAreas must be positive, got %d", c.MaxHighlightAreas)
	}
	if c.MaxConceptNameLength < 1 {
		return fmt.Errorf("MaxConceptNameLength must be positive, got %d", c.MaxConceptNameLength)
	}
	if c.MaxAnnotationRefs < 1 || c.MaxLinksPerConcept < 1 {
		return fmt.Errorf("MaxAnnotationRefs and MaxLinksPerConcept must be positive")
	}
	return nil
}
