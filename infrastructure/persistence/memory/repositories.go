// Package memory provides in-memory repositories for local runs and tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

var (
	_ ports.DocumentRepository   = (*DocumentRepository)(nil)
	_ ports.AnnotationRepository = (*AnnotationRepository)(nil)
	_ ports.ConceptRepository    = (*ConceptRepository)(nil)
	_ ports.LinkRepository       = (*LinkRepository)(nil)
)

// Store is the shared table behind the four repositories
type Store struct {
	mu          sync.RWMutex
	documents   map[valueobjects.DocumentID]*entities.Document
	annotations map[valueobjects.AnnotationID]*entities.Annotation
	concepts    map[valueobjects.ConceptID]*entities.Concept
	links       map[valueobjects.LinkID]*entities.Link
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		documents:   make(map[valueobjects.DocumentID]*entities.Document),
		annotations: make(map[valueobjects.AnnotationID]*entities.Annotation),
		concepts:    make(map[valueobjects.ConceptID]*entities.Concept),
		links:       make(map[valueobjects.LinkID]*entities.Link),
	}
}

// DocumentRepository keeps documents in memory
type DocumentRepository struct{ s *Store }

// AnnotationRepository keeps annotations in memory
type AnnotationRepository struct{ s *Store }

// ConceptRepository keeps concepts in memory
type ConceptRepository struct{ s *Store }

// LinkRepository keeps links in memory
type LinkRepository struct{ s *Store }

// Documents returns the document repository
func (s *Store) Documents() *DocumentRepository { return &DocumentRepository{s} }

// Annotations returns the annotation repository
func (s *Store) Annotations() *AnnotationRepository { return &AnnotationRepository{s} }

// Concepts returns the concept repository
func (s *Store) Concepts() *ConceptRepository { return &ConceptRepository{s} }

// Links returns the link repository
func (s *Store) Links() *LinkRepository { return &LinkRepository{s} }

// Documents

func (r *DocumentRepository) Save(ctx context.Context, doc *entities.Document) error {
	c, err := copyDocument(doc)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.documents[doc.ID()] = c
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	doc, ok := r.s.documents[id]
	if !ok {
		return nil, pkgerrors.ErrDocumentNotFound.WithDetail("id", id.String())
	}
	return copyDocument(doc)
}

func (r *DocumentRepository) List(ctx context.Context) ([]*entities.Document, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Document, 0, len(r.s.documents))
	for _, doc := range r.s.documents {
		c, err := copyDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortByCreation(out, (*entities.Document).CreatedAt, func(d *entities.Document) string { return d.ID().String() })
	return out, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.documents[id]; !ok {
		return pkgerrors.ErrDocumentNotFound.WithDetail("id", id.String())
	}
	delete(r.s.documents, id)
	return nil
}

// Annotations

func (r *AnnotationRepository) Save(ctx context.Context, a *entities.Annotation) error {
	c, err := copyAnnotation(a)
	if err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.annotations[a.ID()] = c
	return nil
}

func (r *AnnotationRepository) GetByID(ctx context.Context, id valueobjects.AnnotationID) (*entities.Annotation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.annotations[id]
	if !ok {
		return nil, pkgerrors.ErrAnnotationNotFound.WithDetail("id", id.String())
	}
	return copyAnnotation(a)
}

func (r *AnnotationRepository) ListByDocument(ctx context.Context, documentID valueobjects.DocumentID) ([]*entities.Annotation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Annotation, 0)
	for _, a := range r.s.annotations {
		if a.DocumentID() != documentID {
			continue
		}
		c, err := copyAnnotation(a)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	sortByCreation(out, (*entities.Annotation).CreatedAt, func(a *entities.Annotation) string { return a.ID().String() })
	return out, nil
}

func (r *AnnotationRepository) Delete(ctx context.Context, id valueobjects.AnnotationID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.annotations[id]; !ok {
		return pkgerrors.ErrAnnotationNotFound.WithDetail("id", id.String())
	}
	delete(r.s.annotations, id)
	return nil
}

func (r *AnnotationRepository) DeleteByDocument(ctx context.Context, documentID valueobjects.DocumentID) ([]valueobjects.AnnotationID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var removed []valueobjects.AnnotationID
	for id, a := range r.s.annotations {
		if a.DocumentID() == documentID {
			removed = append(removed, id)
			delete(r.s.annotations, id)
		}
	}
	slices.Sort(removed)
	return removed, nil
}

// Concepts

func (r *ConceptRepository) Save(ctx context.Context, c *entities.Concept) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, other := range r.s.concepts {
		if id != c.ID() && other.NameKey() == c.NameKey() {
			return pkgerrors.ErrDuplicateConceptName.WithDetail("name", c.Name())
		}
	}
	r.s.concepts[c.ID()] = unlinked(c)
	return nil
}

func (r *ConceptRepository) GetByID(ctx context.Context, id valueobjects.ConceptID) (*entities.Concept, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.concepts[id]
	if !ok {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("id", id.String())
	}
	return c.Clone(), nil
}

func (r *ConceptRepository) FindByName(ctx context.Context, key string) (*entities.Concept, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.concepts {
		if c.NameKey() == key {
			return c.Clone(), nil
		}
	}
	return nil, nil
}

func (r *ConceptRepository) List(ctx context.Context) ([]*entities.Concept, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Concept, 0, len(r.s.concepts))
	for _, c := range r.s.concepts {
		out = append(out, c.Clone())
	}
	sortByCreation(out, (*entities.Concept).CreatedAt, func(c *entities.Concept) string { return c.ID().String() })
	return out, nil
}

func (r *ConceptRepository) Delete(ctx context.Context, id valueobjects.ConceptID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.concepts[id]; !ok {
		return pkgerrors.ErrConceptNotFound.WithDetail("id", id.String())
	}
	delete(r.s.concepts, id)
	return nil
}

// Links

func (r *LinkRepository) Save(ctx context.Context, l *entities.Link) error {
	pair := l.ConceptIDs()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.links {
		if existing.ID() != l.ID() && existing.Connects(pair[0], pair[1]) {
			return pkgerrors.ErrDuplicateLink
		}
	}
	r.s.links[l.ID()] = copyLink(l)
	return nil
}

func (r *LinkRepository) Find(ctx context.Context, a, b valueobjects.ConceptID) (*entities.Link, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.links {
		if l.Connects(a, b) {
			return copyLink(l), nil
		}
	}
	return nil, pkgerrors.ErrLinkNotFound
}

func (r *LinkRepository) List(ctx context.Context) ([]*entities.Link, error) {
	return r.filter(func(*entities.Link) bool { return true }), nil
}

func (r *LinkRepository) ListByConcept(ctx context.Context, id valueobjects.ConceptID) ([]*entities.Link, error) {
	return r.filter(func(l *entities.Link) bool { return l.Touches(id) }), nil
}

func (r *LinkRepository) Delete(ctx context.Context, l *entities.Link) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.links[l.ID()]; !ok {
		return pkgerrors.ErrLinkNotFound
	}
	delete(r.s.links, l.ID())
	return nil
}

func (r *LinkRepository) filter(keep func(*entities.Link) bool) []*entities.Link {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*entities.Link, 0)
	for _, l := range r.s.links {
		if keep(l) {
			out = append(out, copyLink(l))
		}
	}
	sortByCreation(out, (*entities.Link).CreatedAt, func(l *entities.Link) string { return l.ID().String() })
	return out
}

func copyDocument(d *entities.Document) (*entities.Document, error) {
	return entities.ReconstructDocument(d.ID(), d.Name(), d.ContentType(), d.Path(), d.Metadata(), d.CreatedAt(), d.UpdatedAt())
}

func copyAnnotation(a *entities.Annotation) (*entities.Annotation, error) {
	return entities.ReconstructAnnotation(a.ID(), a.DocumentID(), a.HighlightAreas(), a.Quote(), a.Comment(), a.Tag(), a.CreatedAt(), a.UpdatedAt())
}

func copyLink(l *entities.Link) *entities.Link {
	pair := l.ConceptIDs()
	c, _ := entities.ReconstructLink(l.ID(), pair[0], pair[1], l.CreatedAt())
	return c
}

func unlinked(c *entities.Concept) *entities.Concept {
	clone := c.Clone()
	clone.ReplaceLinks(nil)
	return clone
}

func sortByCreation[T any](items []T, createdAt func(T) time.Time, id func(T) string) {
	slices.SortFunc(items, func(a, b T) int {
		if c := createdAt(a).Compare(createdAt(b)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	})
}
