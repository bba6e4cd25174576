// Package fixtures provides builders for test entities.
package fixtures

import (
	"time"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

// AnnotationBuilder helps create test annotations with default values
type AnnotationBuilder struct {
	id         valueobjects.AnnotationID
	documentID valueobjects.DocumentID
	areas      valueobjects.HighlightAreas
	quote      string
	comment    string
	tag        string
	createdAt  time.Time
}

func NewAnnotationBuilder() *AnnotationBuilder {
	return &AnnotationBuilder{
		id:         valueobjects.NewAnnotationID(),
		documentID: "doc-1",
		areas: valueobjects.HighlightAreas{
			{PageIndex: 0, Top: 10, Left: 10, Width: 50, Height: 2},
		},
		quote:     "Test quote",
		comment:   "Test comment",
		createdAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *AnnotationBuilder) WithID(id string) *AnnotationBuilder {
	b.id = valueobjects.AnnotationID(id)
	return b
}

func (b *AnnotationBuilder) WithDocumentID(id string) *AnnotationBuilder {
	b.documentID = valueobjects.DocumentID(id)
	return b
}

func (b *AnnotationBuilder) WithQuote(quote string) *AnnotationBuilder {
	b.quote = quote
	return b
}

func (b *AnnotationBuilder) WithComment(comment string) *AnnotationBuilder {
	b.comment = comment
	return b
}

func (b *AnnotationBuilder) WithTag(tag string) *AnnotationBuilder {
	b.tag = tag
	return b
}

func (b *AnnotationBuilder) WithAreas(areas ...valueobjects.HighlightArea) *AnnotationBuilder {
	b.areas = areas
	return b
}

// Draft returns the builder's content as an unsaved draft
func (b *AnnotationBuilder) Draft() entities.AnnotationDraft {
	return entities.AnnotationDraft{
		DocumentID:     b.documentID,
		HighlightAreas: b.areas.Clone(),
		Quote:          b.quote,
		Comment:        b.comment,
		Tag:            b.tag,
	}
}

func (b *AnnotationBuilder) Build() (*entities.Annotation, error) {
	return entities.ReconstructAnnotation(b.id, b.documentID, b.areas, b.quote, b.comment, b.tag, b.createdAt, b.createdAt)
}

func (b *AnnotationBuilder) MustBuild() *entities.Annotation {
	a, err := b.Build()
	if err != nil {
		panic(err)
	}
	return a
}

// ConceptBuilder helps create test concepts with default values
type ConceptBuilder struct {
	id        valueobjects.ConceptID
	name      string
	comment   string
	refs      []valueobjects.AnnotationID
	linked    []valueobjects.ConceptID
	createdAt time.Time
}

func NewConceptBuilder() *ConceptBuilder {
	return &ConceptBuilder{
		id:        valueobjects.NewConceptID(),
		name:      "Test Concept",
		createdAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *ConceptBuilder) WithID(id string) *ConceptBuilder {
	b.id = valueobjects.ConceptID(id)
	return b
}

func (b *ConceptBuilder) WithName(name string) *ConceptBuilder {
	b.name = name
	return b
}

func (b *ConceptBuilder) WithComment(comment string) *ConceptBuilder {
	b.comment = comment
	return b
}

func (b *ConceptBuilder) WithRefs(ids ...string) *ConceptBuilder {
	for _, id := range ids {
		b.refs = append(b.refs, valueobjects.AnnotationID(id))
	}
	return b
}

func (b *ConceptBuilder) WithLinks(ids ...string) *ConceptBuilder {
	for _, id := range ids {
		b.linked = append(b.linked, valueobjects.ConceptID(id))
	}
	return b
}

func (b *ConceptBuilder) Build() (*entities.Concept, error) {
	return entities.ReconstructConcept(b.id, b.name, b.comment, b.refs, b.linked, b.createdAt, b.createdAt)
}

func (b *ConceptBuilder) MustBuild() *entities.Concept {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}

// DocumentBuilder helps create test documents with default values
type DocumentBuilder struct {
	id          valueobjects.DocumentID
	name        string
	contentType string
	path        string
}

func NewDocumentBuilder() *DocumentBuilder {
	return &DocumentBuilder{
		id:          "doc-1",
		name:        "paper",
		contentType: "application/pdf",
		path:        "paper.pdf",
	}
}

func (b *DocumentBuilder) WithID(id string) *DocumentBuilder {
	b.id = valueobjects.DocumentID(id)
	return b
}

func (b *DocumentBuilder) WithName(name string) *DocumentBuilder {
	b.name = name
	return b
}

func (b *DocumentBuilder) MustBuild() *entities.Document {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	d, err := entities.ReconstructDocument(b.id, b.name, b.contentType, b.path, nil, now, now)
	if err != nil {
		panic(err)
	}
	return d
}
