package events

import (
	"time"

	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

// SourceBackend is the EventBridge source for events raised by the API
const SourceBackend = "nexusnote.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

func newBase(aggregateID, eventType string, timestamp time.Time) BaseEvent {
	return BaseEvent{
		AggregateID: aggregateID,
		EventType:   eventType,
		Timestamp:   timestamp,
		Version:     1,
	}
}

// Document Events

// DocumentUploaded is raised when a document is stored
type DocumentUploaded struct {
	BaseEvent
	DocumentID  valueobjects.DocumentID `json:"document_id"`
	Name        string                  `json:"name"`
	ContentType string                  `json:"content_type"`
	Size        int64                   `json:"size"`
}

// NewDocumentUploaded creates a DocumentUploaded event
func NewDocumentUploaded(id valueobjects.DocumentID, name, contentType string, size int64, timestamp time.Time) DocumentUploaded {
	return DocumentUploaded{
		BaseEvent:   newBase(id.String(), "document.uploaded", timestamp),
		DocumentID:  id,
		Name:        name,
		ContentType: contentType,
		Size:        size,
	}
}

// DocumentRenamed is raised when a document's name changes
type DocumentRenamed struct {
	BaseEvent
	DocumentID valueobjects.DocumentID `json:"document_id"`
	OldName    string                  `json:"old_name"`
	NewName    string                  `json:"new_name"`
}

// NewDocumentRenamed creates a DocumentRenamed event
func NewDocumentRenamed(id valueobjects.DocumentID, oldName, newName string, timestamp time.Time) DocumentRenamed {
	return DocumentRenamed{
		BaseEvent:  newBase(id.String(), "document.renamed", timestamp),
		DocumentID: id,
		OldName:    oldName,
		NewName:    newName,
	}
}

// DocumentDeleted is raised when a document and its annotations are removed
type DocumentDeleted struct {
	BaseEvent
	DocumentID    valueobjects.DocumentID     `json:"document_id"`
	AnnotationIDs []valueobjects.AnnotationID `json:"annotation_ids"`
}

// NewDocumentDeleted creates a DocumentDeleted event
func NewDocumentDeleted(id valueobjects.DocumentID, annotationIDs []valueobjects.AnnotationID, timestamp time.Time) DocumentDeleted {
	return DocumentDeleted{
		BaseEvent:     newBase(id.String(), "document.deleted", timestamp),
		DocumentID:    id,
		AnnotationIDs: annotationIDs,
	}
}

// Annotation Events

// AnnotationCreated is raised when a highlight is persisted
type AnnotationCreated struct {
	BaseEvent
	AnnotationID valueobjects.AnnotationID `json:"annotation_id"`
	DocumentID   valueobjects.DocumentID   `json:"document_id"`
	Pages        []int                     `json:"pages"`
}

// NewAnnotationCreated creates an AnnotationCreated event
func NewAnnotationCreated(id valueobjects.AnnotationID, documentID valueobjects.DocumentID, pages []int, timestamp time.Time) AnnotationCreated {
	return AnnotationCreated{
		BaseEvent:    newBase(id.String(), "annotation.created", timestamp),
		AnnotationID: id,
		DocumentID:   documentID,
		Pages:        pages,
	}
}

// AnnotationCommentUpdated is raised when an annotation's comment is replaced
type AnnotationCommentUpdated struct {
	BaseEvent
	AnnotationID valueobjects.AnnotationID `json:"annotation_id"`
	DocumentID   valueobjects.DocumentID   `json:"document_id"`
}

// NewAnnotationCommentUpdated creates an AnnotationCommentUpdated event
func NewAnnotationCommentUpdated(id valueobjects.AnnotationID, documentID valueobjects.DocumentID, timestamp time.Time) AnnotationCommentUpdated {
	return AnnotationCommentUpdated{
		BaseEvent:    newBase(id.String(), "annotation.comment_updated", timestamp),
		AnnotationID: id,
		DocumentID:   documentID,
	}
}

// AnnotationDeleted is raised when an annotation is removed
type AnnotationDeleted struct {
	BaseEvent
	AnnotationID valueobjects.AnnotationID `json:"annotation_id"`
	DocumentID   valueobjects.DocumentID   `json:"document_id"`
}

// NewAnnotationDeleted creates an AnnotationDeleted event
func NewAnnotationDeleted(id valueobjects.AnnotationID, documentID valueobjects.DocumentID, timestamp time.Time) AnnotationDeleted {
	return AnnotationDeleted{
		BaseEvent:    newBase(id.String(), "annotation.deleted", timestamp),
		AnnotationID: id,
		DocumentID:   documentID,
	}
}

// Concept Events

// ConceptCreated is raised when a concept is created
type ConceptCreated struct {
	BaseEvent
	ConceptID valueobjects.ConceptID `json:"concept_id"`
	Name      string                 `json:"name"`
}

// NewConceptCreated creates a ConceptCreated event
func NewConceptCreated(id valueobjects.ConceptID, name string, timestamp time.Time) ConceptCreated {
	return ConceptCreated{
		BaseEvent: newBase(id.String(), "concept.created", timestamp),
		ConceptID: id,
		Name:      name,
	}
}

// ConceptUpdated is raised when a concept record is replaced
type ConceptUpdated struct {
	BaseEvent
	ConceptID      valueobjects.ConceptID      `json:"concept_id"`
	Name           string                      `json:"name"`
	AnnotationRefs []valueobjects.AnnotationID `json:"annotation_ids"`
}

// NewConceptUpdated creates a ConceptUpdated event
func NewConceptUpdated(id valueobjects.ConceptID, name string, refs []valueobjects.AnnotationID, timestamp time.Time) ConceptUpdated {
	return ConceptUpdated{
		BaseEvent:      newBase(id.String(), "concept.updated", timestamp),
		ConceptID:      id,
		Name:           name,
		AnnotationRefs: refs,
	}
}

// ConceptDeleted is raised when a concept and its links are removed
type ConceptDeleted struct {
	BaseEvent
	ConceptID valueobjects.ConceptID `json:"concept_id"`
}

// NewConceptDeleted creates a ConceptDeleted event
func NewConceptDeleted(id valueobjects.ConceptID, timestamp time.Time) ConceptDeleted {
	return ConceptDeleted{
		BaseEvent: newBase(id.String(), "concept.deleted", timestamp),
		ConceptID: id,
	}
}

// Link Events

// ConceptsLinked is raised when a link between two concepts is created
type ConceptsLinked struct {
	BaseEvent
	LinkID   valueobjects.LinkID    `json:"link_id"`
	ConceptA valueobjects.ConceptID `json:"concept_a"`
	ConceptB valueobjects.ConceptID `json:"concept_b"`
}

// NewConceptsLinked creates a ConceptsLinked event
func NewConceptsLinked(id valueobjects.LinkID, a, b valueobjects.ConceptID, timestamp time.Time) ConceptsLinked {
	return ConceptsLinked{
		BaseEvent: newBase(id.String(), "concepts.linked", timestamp),
		LinkID:    id,
		ConceptA:  a,
		ConceptB:  b,
	}
}

// ConceptsUnlinked is raised when a link is removed
type ConceptsUnlinked struct {
	BaseEvent
	LinkID   valueobjects.LinkID    `json:"link_id"`
	ConceptA valueobjects.ConceptID `json:"concept_a"`
	ConceptB valueobjects.ConceptID `json:"concept_b"`
}

// NewConceptsUnlinked creates a ConceptsUnlinked event
func NewConceptsUnlinked(id valueobjects.LinkID, a, b valueobjects.ConceptID, timestamp time.Time) ConceptsUnlinked {
	return ConceptsUnlinked{
		BaseEvent: newBase(id.String(), "concepts.unlinked", timestamp),
		LinkID:    id,
		ConceptA:  a,
		ConceptB:  b,
	}
}
