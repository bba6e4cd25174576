package valueobjects

import "github.com/google/uuid"

// Identifiers are opaque strings assigned by the server.
// The client never mints them; the reference backend uses UUIDs.

// DocumentID identifies an uploaded document
type DocumentID string

// AnnotationID identifies an annotation
type AnnotationID string

// ConceptID identifies a concept
type ConceptID string

// LinkID identifies a link between two concepts
type LinkID string

// NewDocumentID creates a new random DocumentID
func NewDocumentID() DocumentID { return DocumentID(uuid.New().String()) }

// NewAnnotationID creates a new random AnnotationID
func NewAnnotationID() AnnotationID { return AnnotationID(uuid.New().String()) }

// NewConceptID creates a new random ConceptID
func NewConceptID() ConceptID { return ConceptID(uuid.New().String()) }

// NewLinkID creates a new random LinkID
func NewLinkID() LinkID { return LinkID(uuid.New().String()) }

func (id DocumentID) String() string   { return string(id) }
func (id AnnotationID) String() string { return string(id) }
func (id ConceptID) String() string    { return string(id) }
func (id LinkID) String() string       { return string(id) }

// IsZero reports whether the id is empty
func (id DocumentID) IsZero() bool { return id == "" }

// IsZero reports whether the id is empty
func (id AnnotationID) IsZero() bool { return id == "" }

// IsZero reports whether the id is empty
func (id ConceptID) IsZero() bool { return id == "" }

// IsZero reports whether the id is empty
func (id LinkID) IsZero() bool { return id == "" }
