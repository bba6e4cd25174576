package ports

import (
	"context"
	"io"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

// The interfaces below are the remote API consumed by the client core.
// Mutations return the server's canonical record.

// DocumentContent is the binary body of a document
type DocumentContent struct {
	Data        []byte
	ContentType string
}

// DocumentBundle is a document with its annotations and the concepts touching them
type DocumentBundle struct {
	Document    *entities.Document
	Annotations []*entities.Annotation
	Concepts    []*entities.Concept
}

// DocumentAPI covers the document endpoints
type DocumentAPI interface {
	ListDocuments(ctx context.Context) ([]entities.DocumentSummary, error)
	FetchContent(ctx context.Context, id valueobjects.DocumentID) (*DocumentContent, error)
	FetchMetadata(ctx context.Context, id valueobjects.DocumentID) (*DocumentBundle, error)
	UploadDocument(ctx context.Context, fileName string, r io.Reader) (*entities.Document, error)
	DeleteDocument(ctx context.Context, id valueobjects.DocumentID) error
	RenameDocument(ctx context.Context, id valueobjects.DocumentID, name string) (*entities.Document, error)
}

// AnnotationAPI covers the annotation endpoints
type AnnotationAPI interface {
	CreateAnnotation(ctx context.Context, draft entities.AnnotationDraft) (*entities.Annotation, error)
	DeleteAnnotation(ctx context.Context, id valueobjects.AnnotationID) error
	UpdateAnnotation(ctx context.Context, id valueobjects.AnnotationID, comment string) (*entities.Annotation, error)
}

// ConceptDraft is the body of a concept creation
type ConceptDraft struct {
	Name             string
	Comment          string
	AnnotationIDs    []valueobjects.AnnotationID
	LinkedConceptIDs []valueobjects.ConceptID
}

// ConceptAPI covers the concept endpoints
type ConceptAPI interface {
	ListConcepts(ctx context.Context) ([]*entities.Concept, error)
	CreateConcept(ctx context.Context, draft ConceptDraft) (*entities.Concept, error)
	UpdateConcept(ctx context.Context, concept *entities.Concept) (*entities.Concept, error)
	DeleteConcept(ctx context.Context, id valueobjects.ConceptID) error
}

// LinkAPI covers the link endpoints. Edges are created here, never through
// the generic concept update.
type LinkAPI interface {
	CreateLink(ctx context.Context, a, b valueobjects.ConceptID) error
	DeleteLink(ctx context.Context, a, b valueobjects.ConceptID) error
}

// ConceptGraphAPI is what the concept store needs
type ConceptGraphAPI interface {
	ConceptAPI
	LinkAPI
}

// RemoteAPI is the whole backend surface
type RemoteAPI interface {
	DocumentAPI
	AnnotationAPI
	ConceptAPI
	LinkAPI
}
