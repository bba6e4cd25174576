package ports

import (
	"context"
	"io"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
)

// DocumentRepository defines the interface for document persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type DocumentRepository interface {
	// Save persists a document (create or update)
	Save(ctx context.Context, doc *entities.Document) error

	// GetByID retrieves a document by its ID
	GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error)

	// List returns every document, oldest first
	List(ctx context.Context) ([]*entities.Document, error)

	// Delete removes a document record
	Delete(ctx context.Context, id valueobjects.DocumentID) error
}

// AnnotationRepository defines the interface for annotation persistence
type AnnotationRepository interface {
	// Save persists an annotation (create or update)
	Save(ctx context.Context, annotation *entities.Annotation) error

	// GetByID retrieves an annotation by its ID
	GetByID(ctx context.Context, id valueobjects.AnnotationID) (*entities.Annotation, error)

	// ListByDocument retrieves all annotations of a document, oldest first
	ListByDocument(ctx context.Context, documentID valueobjects.DocumentID) ([]*entities.Annotation, error)

	// Delete removes an annotation
	Delete(ctx context.Context, id valueobjects.AnnotationID) error

	// DeleteByDocument removes all annotations of a document and returns their ids
	DeleteByDocument(ctx context.Context, documentID valueobjects.DocumentID) ([]valueobjects.AnnotationID, error)
}

// ConceptRepository defines the interface for concept persistence.
// Stored concepts carry no links; the link table is authoritative for those.
type ConceptRepository interface {
	// Save persists a concept (create or update). It fails with
	// ErrDuplicateConceptName when another concept holds the same name key.
	Save(ctx context.Context, concept *entities.Concept) error

	// GetByID retrieves a concept by its ID
	GetByID(ctx context.Context, id valueobjects.ConceptID) (*entities.Concept, error)

	// FindByName retrieves the concept whose case-folded name equals key, if any
	FindByName(ctx context.Context, key string) (*entities.Concept, error)

	// List returns every concept, oldest first
	List(ctx context.Context) ([]*entities.Concept, error)

	// Delete removes a concept
	Delete(ctx context.Context, id valueobjects.ConceptID) error
}

// LinkRepository defines the interface for concept link persistence
type LinkRepository interface {
	// Save persists a link
	Save(ctx context.Context, link *entities.Link) error

	// Find returns the link joining a and b in either order
	Find(ctx context.Context, a, b valueobjects.ConceptID) (*entities.Link, error)

	// List returns every link
	List(ctx context.Context) ([]*entities.Link, error)

	// ListByConcept returns every link touching id
	ListByConcept(ctx context.Context, id valueobjects.ConceptID) ([]*entities.Link, error)

	// Delete removes a link
	Delete(ctx context.Context, link *entities.Link) error
}

// BlobStore holds uploaded document bytes
type BlobStore interface {
	// Put stores the reader's content under key and returns the byte count
	Put(ctx context.Context, key string, r io.Reader) (int64, error)

	// Get returns the content stored under key
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the content stored under key
	Delete(ctx context.Context, key string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}
