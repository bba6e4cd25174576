// Package dto holds the JSON wire contract shared by the REST handlers and the
// remote client. Field names follow the document/annotation/concept API.
package dto

import (
	"time"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

// Annotation is the wire form of an annotation
type Annotation struct {
	ID             valueobjects.AnnotationID    `json:"id"`
	FileID         valueobjects.DocumentID      `json:"file_id"`
	HighlightAreas []valueobjects.HighlightArea `json:"highlight_areas"`
	Quote          string                       `json:"quote"`
	Comment        string                       `json:"comment"`
	Tag            string                       `json:"tag,omitempty"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
}

// Concept is the wire form of a concept and the body of /concept/update
type Concept struct {
	ID               valueobjects.ConceptID      `json:"id" validate:"required"`
	Name             string                      `json:"name" validate:"required"`
	Comment          string                      `json:"comment"`
	AnnotationIDs    []valueobjects.AnnotationID `json:"annotation_ids"`
	LinkedConceptIDs []valueobjects.ConceptID    `json:"linked_concept_ids"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

// Document is the wire form of a document
type Document struct {
	ID          valueobjects.DocumentID `json:"id"`
	Name        string                  `json:"name"`
	ContentType string                  `json:"content_type"`
	Path        string                  `json:"path,omitempty"`
	Metadata    map[string]string       `json:"metadata,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// DocumentSummary is an entry of /document/list
type DocumentSummary struct {
	ID   valueobjects.DocumentID `json:"id"`
	Name string                  `json:"name"`
}

// DocumentBundle is the body of /document/{id}/metadata
type DocumentBundle struct {
	Document    Document     `json:"document"`
	Annotations []Annotation `json:"annotations"`
	Concepts    []Concept    `json:"concepts"`
}

// Link is the confirmation returned by /link/create
type Link struct {
	ID         valueobjects.LinkID      `json:"id"`
	ConceptIDs []valueobjects.ConceptID `json:"concept_ids"`
	CreatedAt  time.Time                `json:"created_at"`
}

// Request bodies

// CreateAnnotationRequest is the body of /annotation/create
type CreateAnnotationRequest struct {
	FileID         valueobjects.DocumentID      `json:"file_id" validate:"required"`
	Comment        string                       `json:"comment"`
	HighlightAreas []valueobjects.HighlightArea `json:"highlight_areas" validate:"required,min=1"`
	Quote          string                       `json:"quote"`
	Tag            string                       `json:"tag,omitempty"`
}

// UpdateAnnotationRequest is the body of /annotation/update
type UpdateAnnotationRequest struct {
	ID      valueobjects.AnnotationID `json:"id" validate:"required"`
	Comment string                    `json:"comment"`
}

// IDRequest is the body of the delete endpoints
type IDRequest struct {
	ID string `json:"id" validate:"required"`
}

// RenameDocumentRequest is the body of /document/update
type RenameDocumentRequest struct {
	ID   valueobjects.DocumentID `json:"id" validate:"required"`
	Name string                  `json:"name" validate:"required"`
}

// CreateConceptRequest is the body of /concept/create
type CreateConceptRequest struct {
	Name             string                      `json:"name" validate:"required"`
	Comment          string                      `json:"comment"`
	AnnotationIDs    []valueobjects.AnnotationID `json:"annotation_ids,omitempty"`
	LinkedConceptIDs []valueobjects.ConceptID    `json:"linked_concept_ids,omitempty"`
}

// LinkRequest is the body of /link/create and /link/delete
type LinkRequest struct {
	ConceptIDs []valueobjects.ConceptID `json:"concept_ids" validate:"required,len=2,dive,required"`
}

// ErrorBody is the body of every non-2xx response
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Conversions

// FromAnnotation converts an entity to its wire form
func FromAnnotation(a *entities.Annotation) Annotation {
	areas := a.HighlightAreas()
	if areas == nil {
		areas = valueobjects.HighlightAreas{}
	}
	return Annotation{
		ID:             a.ID(),
		FileID:         a.DocumentID(),
		HighlightAreas: areas,
		Quote:          a.Quote(),
		Comment:        a.Comment(),
		Tag:            a.Tag(),
		CreatedAt:      a.CreatedAt(),
		UpdatedAt:      a.UpdatedAt(),
	}
}

// FromAnnotations converts a slice, never returning nil
func FromAnnotations(as []*entities.Annotation) []Annotation {
	out := make([]Annotation, 0, len(as))
	for _, a := range as {
		out = append(out, FromAnnotation(a))
	}
	return out
}

// ToEntity rebuilds the entity
func (a Annotation) ToEntity() (*entities.Annotation, error) {
	return entities.ReconstructAnnotation(a.ID, a.FileID, a.HighlightAreas, a.Quote, a.Comment, a.Tag, a.CreatedAt, a.UpdatedAt)
}

// ToAnnotations rebuilds a slice of entities
func ToAnnotations(as []Annotation) ([]*entities.Annotation, error) {
	out := make([]*entities.Annotation, 0, len(as))
	for _, a := range as {
		e, err := a.ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FromConcept converts an entity to its wire form
func FromConcept(c *entities.Concept) Concept {
	return Concept{
		ID:               c.ID(),
		Name:             c.Name(),
		Comment:          c.Comment(),
		AnnotationIDs:    c.AnnotationRefs(),
		LinkedConceptIDs: c.LinkedConcepts(),
		CreatedAt:        c.CreatedAt(),
		UpdatedAt:        c.UpdatedAt(),
	}
}

// FromConcepts converts a slice, never returning nil
func FromConcepts(cs []*entities.Concept) []Concept {
	out := make([]Concept, 0, len(cs))
	for _, c := range cs {
		out = append(out, FromConcept(c))
	}
	return out
}

// ToEntity rebuilds the entity
func (c Concept) ToEntity() (*entities.Concept, error) {
	return entities.ReconstructConcept(c.ID, c.Name, c.Comment, c.AnnotationIDs, c.LinkedConceptIDs, c.CreatedAt, c.UpdatedAt)
}

// ToConcepts rebuilds a slice of entities
func ToConcepts(cs []Concept) ([]*entities.Concept, error) {
	out := make([]*entities.Concept, 0, len(cs))
	for _, c := range cs {
		e, err := c.ToEntity()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// FromDocument converts an entity to its wire form
func FromDocument(d *entities.Document) Document {
	return Document{
		ID:          d.ID(),
		Name:        d.Name(),
		ContentType: d.ContentType(),
		Path:        d.Path(),
		Metadata:    d.Metadata(),
		CreatedAt:   d.CreatedAt(),
		UpdatedAt:   d.UpdatedAt(),
	}
}

// ToEntity rebuilds the entity
func (d Document) ToEntity() (*entities.Document, error) {
	return entities.ReconstructDocument(d.ID, d.Name, d.ContentType, d.Path, d.Metadata, d.CreatedAt, d.UpdatedAt)
}

// FromDocumentSummaries converts list entries, never returning nil
func FromDocumentSummaries(ds []entities.DocumentSummary) []DocumentSummary {
	out := make([]DocumentSummary, 0, len(ds))
	for _, d := range ds {
		out = append(out, DocumentSummary{ID: d.ID, Name: d.Name})
	}
	return out
}

// ToDocumentSummaries converts list entries back to the domain form
func ToDocumentSummaries(ds []DocumentSummary) []entities.DocumentSummary {
	out := make([]entities.DocumentSummary, 0, len(ds))
	for _, d := range ds {
		out = append(out, entities.DocumentSummary{ID: d.ID, Name: d.Name})
	}
	return out
}

// FromLink converts an entity to its wire form
func FromLink(l *entities.Link) Link {
	pair := l.ConceptIDs()
	return Link{
		ID:         l.ID(),
		ConceptIDs: []valueobjects.ConceptID{pair[0], pair[1]},
		CreatedAt:  l.CreatedAt(),
	}
}
