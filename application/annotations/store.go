// Package annotations holds the annotation collection of one open document and
// mediates its mutations against the remote API. Local state changes only after
// the server has confirmed the write.
package annotations

import (
	"context"
	"iter"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// Store is the annotation set of a single document session
type Store struct {
	api    ports.AnnotationAPI
	cfg    *config.DomainConfig
	logger *zap.Logger

	mu         sync.RWMutex
	documentID valueobjects.DocumentID
	items      []*entities.Annotation
	epoch      uint64
}

// NewStore creates an empty store
func NewStore(api ports.AnnotationAPI, cfg *config.DomainConfig, logger *zap.Logger) *Store {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		api:    api,
		cfg:    cfg,
		logger: logger,
		items:  []*entities.Annotation{},
	}
}

// Load replaces the collection with the annotations fetched for documentID.
// Completions of requests issued before the load are discarded.
func (s *Store) Load(documentID valueobjects.DocumentID, annotations []*entities.Annotation) {
	items := make([]*entities.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if a != nil && a.DocumentID() == documentID {
			items = append(items, a)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documentID = documentID
	s.items = items
	s.epoch++
}

// Create persists a new annotation and appends the server's canonical record.
// Invalid drafts and a store with no loaded document are rejected before any
// network call.
func (s *Store) Create(ctx context.Context, draft entities.AnnotationDraft) (*entities.Annotation, error) {
	s.mu.RLock()
	documentID, epoch := s.documentID, s.epoch
	s.mu.RUnlock()

	if documentID.IsZero() {
		return nil, pkgerrors.NewConflictError("annotation store has no document loaded")
	}
	if draft.DocumentID.IsZero() {
		draft.DocumentID = documentID
	}
	if draft.DocumentID != documentID {
		return nil, pkgerrors.NewValidationError("annotation belongs to a different document")
	}
	if err := draft.Validate(s.cfg); err != nil {
		return nil, err
	}

	created, err := s.api.CreateAnnotation(ctx, draft)
	if err != nil {
		s.logger.Warn("annotation create rejected",
			zap.String("document_id", draft.DocumentID.String()),
			zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch || created.DocumentID() != s.documentID {
		s.logger.Debug("discarding stale annotation create",
			zap.String("annotation_id", created.ID().String()))
		return nil, pkgerrors.NewStaleError("create annotation")
	}
	if idx := s.indexOf(created.ID()); idx >= 0 {
		s.items[idx] = created
	} else {
		s.items = append(s.items, created)
	}
	return created, nil
}

// Delete removes an annotation once the server has confirmed the deletion.
// On failure the record stays visible. Concepts referencing it are left untouched.
func (s *Store) Delete(ctx context.Context, id valueobjects.AnnotationID) error {
	s.mu.RLock()
	known := s.indexOf(id) >= 0
	epoch := s.epoch
	s.mu.RUnlock()

	if !known {
		return pkgerrors.ErrAnnotationNotFound.WithDetail("annotation_id", id.String())
	}

	if err := s.api.DeleteAnnotation(ctx, id); err != nil {
		s.logger.Warn("annotation delete rejected",
			zap.String("annotation_id", id.String()),
			zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return pkgerrors.NewStaleError("delete annotation")
	}
	if idx := s.indexOf(id); idx >= 0 {
		s.items = slices.Delete(s.items, idx, idx+1)
	}
	return nil
}

// UpdateComment replaces an annotation's comment and swaps in the canonical record
func (s *Store) UpdateComment(ctx context.Context, id valueobjects.AnnotationID, comment string) (*entities.Annotation, error) {
	s.mu.RLock()
	idx := s.indexOf(id)
	var current *entities.Annotation
	if idx >= 0 {
		current = s.items[idx]
	}
	epoch := s.epoch
	s.mu.RUnlock()

	if current == nil {
		return nil, pkgerrors.ErrAnnotationNotFound.WithDetail("annotation_id", id.String())
	}
	if _, err := current.WithComment(comment, s.cfg); err != nil {
		return nil, err
	}

	updated, err := s.api.UpdateAnnotation(ctx, id, comment)
	if err != nil {
		s.logger.Warn("annotation update rejected",
			zap.String("annotation_id", id.String()),
			zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx = s.indexOf(id)
	if s.epoch != epoch || idx < 0 {
		return nil, pkgerrors.NewStaleError("update annotation")
	}
	s.items[idx] = updated
	return updated, nil
}

// FindByID looks up an annotation of the current document
func (s *Store) FindByID(id valueobjects.AnnotationID) (*entities.Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		return s.items[idx], true
	}
	return nil, false
}

// Contains reports whether id belongs to the loaded document
func (s *Store) Contains(id valueobjects.AnnotationID) bool {
	_, ok := s.FindByID(id)
	return ok
}

// Search yields the annotations whose quote, comment or tag contains term,
// ignoring case. Every range over the result re-reads the current collection.
func (s *Store) Search(term string) iter.Seq[*entities.Annotation] {
	return func(yield func(*entities.Annotation) bool) {
		for _, a := range s.List() {
			if !a.Matches(term) {
				continue
			}
			if !yield(a) {
				return
			}
		}
	}
}

// List returns a snapshot of the collection in creation order
func (s *Store) List() []*entities.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Len returns the number of visible annotations
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// DocumentID returns the document the store is bound to
func (s *Store) DocumentID() valueobjects.DocumentID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documentID
}

func (s *Store) indexOf(id valueobjects.AnnotationID) int {
	return slices.IndexFunc(s.items, func(a *entities.Annotation) bool {
		return a.ID() == id
	})
}
