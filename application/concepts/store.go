// Package concepts holds the global concept graph. A single table keyed by id is
// the source of truth; the all, per-document and active views are projections
// of it, so one write updates all of them.
package concepts

import (
	"context"
	"net/http"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// AnnotationIndex answers membership of an annotation in one document
type AnnotationIndex interface {
	Contains(id valueobjects.AnnotationID) bool
}

// Store is the client-side concept table
type Store struct {
	api    ports.ConceptGraphAPI
	cfg    *config.DomainConfig
	logger *zap.Logger

	mu       sync.RWMutex
	table    map[valueobjects.ConceptID]*entities.Concept
	order    []valueobjects.ConceptID
	activeID valueobjects.ConceptID
	epoch    uint64
}

// NewStore creates an empty concept store
func NewStore(api ports.ConceptGraphAPI, cfg *config.DomainConfig, logger *zap.Logger) *Store {
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
		table:  make(map[valueobjects.ConceptID]*entities.Concept),
	}
}

// Create persists a new concept. A blank name is rejected before any network call.
func (s *Store) Create(ctx context.Context, name, comment string) (*entities.Concept, error) {
	conceptName, err := valueobjects.NewConceptNameWithConfig(name, s.cfg)
	if err != nil {
		return nil, err
	}
	if s.nameTaken(conceptName.Key(), "") {
		return nil, pkgerrors.ErrDuplicateConceptName.WithDetail("name", conceptName.String())
	}

	epoch := s.currentEpoch()
	created, err := s.api.CreateConcept(ctx, ports.ConceptDraft{
		Name:    conceptName.String(),
		Comment: comment,
	})
	if err != nil {
		s.logger.Warn("concept create rejected", zap.String("name", conceptName.String()), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return nil, pkgerrors.NewStaleError("create concept")
	}
	s.put(created)
	return created.Clone(), nil
}

// Update replaces the whole record on the server. The canonical response
// replaces the table row, so every view observes it.
func (s *Store) Update(ctx context.Context, concept *entities.Concept) (*entities.Concept, error) {
	if concept == nil {
		return nil, pkgerrors.NewValidationError("concept is required")
	}
	if _, ok := s.Get(concept.ID()); !ok {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("concept_id", concept.ID().String())
	}
	if s.nameTaken(concept.NameKey(), concept.ID()) {
		return nil, pkgerrors.ErrConceptNameTaken.WithDetail("name", concept.Name())
	}

	epoch := s.currentEpoch()
	updated, err := s.api.UpdateConcept(ctx, concept.Clone())
	if err != nil {
		s.logger.Warn("concept update rejected", zap.String("concept_id", concept.ID().String()), zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.table[updated.ID()]; !ok || s.epoch != epoch {
		return nil, pkgerrors.NewStaleError("update concept")
	}
	s.put(updated)
	return updated.Clone(), nil
}

// AddAnnotationRef references an annotation from a concept. Adding a ref that
// is already present is a no-op returning the current record.
func (s *Store) AddAnnotationRef(ctx context.Context, conceptID valueobjects.ConceptID, annotationID valueobjects.AnnotationID) (*entities.Concept, error) {
	current, ok := s.Get(conceptID)
	if !ok {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("concept_id", conceptID.String())
	}
	added, err := current.AddAnnotationRef(annotationID, s.cfg)
	if err != nil {
		return nil, err
	}
	if !added {
		return current, nil
	}
	return s.Update(ctx, current)
}

// RemoveAnnotationRef drops an annotation ref. Removing an absent ref is a no-op.
func (s *Store) RemoveAnnotationRef(ctx context.Context, conceptID valueobjects.ConceptID, annotationID valueobjects.AnnotationID) (*entities.Concept, error) {
	current, ok := s.Get(conceptID)
	if !ok {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("concept_id", conceptID.String())
	}
	if !current.RemoveAnnotationRef(annotationID) {
		return current, nil
	}
	return s.Update(ctx, current)
}

// AddLink creates an edge from conceptID to otherID through the link endpoint,
// then records otherID on the source concept. Self-links and existing links are
// silent no-ops. The reverse edge is only ever learned from the server.
func (s *Store) AddLink(ctx context.Context, conceptID, otherID valueobjects.ConceptID) (*entities.Concept, error) {
	current, ok := s.Get(conceptID)
	if !ok {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("concept_id", conceptID.String())
	}
	if otherID == conceptID || current.IsLinkedTo(otherID) {
		return current, nil
	}
	if _, ok := s.Get(otherID); !ok {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("concept_id", otherID.String())
	}
	if _, err := current.LinkTo(otherID, s.cfg); err != nil {
		return nil, err
	}

	epoch := s.currentEpoch()
	if err := s.api.CreateLink(ctx, conceptID, otherID); err != nil {
		// a conflict means the server already holds this pair
		if !rejectedWith(err, http.StatusConflict) {
			s.logger.Warn("link create rejected",
				zap.String("concept_id", conceptID.String()),
				zap.String("other_id", otherID.String()),
				zap.Error(err))
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.table[conceptID]
	if !ok || s.epoch != epoch {
		return nil, pkgerrors.NewStaleError("create link")
	}
	if _, err := row.LinkTo(otherID, s.cfg); err != nil {
		return nil, err
	}
	return row.Clone(), nil
}

// RemoveLink deletes the edge through the link endpoint and drops otherID from
// the source concept. Removing a link that is not recorded is a no-op.
func (s *Store) RemoveLink(ctx context.Context, conceptID, otherID valueobjects.ConceptID) (*entities.Concept, error) {
	current, ok := s.Get(conceptID)
	if !ok {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("concept_id", conceptID.String())
	}
	if !current.IsLinkedTo(otherID) {
		return current, nil
	}

	epoch := s.currentEpoch()
	if err := s.api.DeleteLink(ctx, conceptID, otherID); err != nil {
		if !rejectedWith(err, http.StatusNotFound) {
			s.logger.Warn("link delete rejected",
				zap.String("concept_id", conceptID.String()),
				zap.String("other_id", otherID.String()),
				zap.Error(err))
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.table[conceptID]
	if !ok || s.epoch != epoch {
		return nil, pkgerrors.NewStaleError("delete link")
	}
	row.Unlink(otherID)
	return row.Clone(), nil
}

// Delete removes a concept after server confirmation. The server drops every
// link touching it, so the id is also removed from the other rows.
func (s *Store) Delete(ctx context.Context, id valueobjects.ConceptID) error {
	if _, ok := s.Get(id); !ok {
		return pkgerrors.ErrConceptNotFound.WithDetail("concept_id", id.String())
	}

	if err := s.api.DeleteConcept(ctx, id); err != nil {
		s.logger.Warn("concept delete rejected", zap.String("concept_id", id.String()), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.table, id)
	s.order = slices.DeleteFunc(s.order, func(other valueobjects.ConceptID) bool { return other == id })
	for _, row := range s.table {
		row.Unlink(id)
	}
	if s.activeID == id {
		s.activeID = ""
	}
	return nil
}

// Refresh replaces the table with the server's concept list. In-flight
// mutations issued before the refresh are discarded when they complete.
func (s *Store) Refresh(ctx context.Context) error {
	all, err := s.api.ListConcepts(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = make(map[valueobjects.ConceptID]*entities.Concept, len(all))
	s.order = nil
	for _, c := range all {
		s.put(c)
	}
	if _, ok := s.table[s.activeID]; !ok {
		s.activeID = ""
	}
	s.epoch++
	return nil
}

// Merge upserts canonical records, e.g. the concepts of a loaded document
func (s *Store) Merge(concepts []*entities.Concept) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range concepts {
		if c != nil {
			s.put(c)
		}
	}
}

// Get returns a copy of a concept
func (s *Store) Get(id valueobjects.ConceptID) (*entities.Concept, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.table[id]
	if !ok {
		return nil, false
	}
	return row.Clone(), true
}

// ListAll returns copies of every concept in insertion order
func (s *Store) ListAll() []*entities.Concept {
	return s.list(func(*entities.Concept) bool { return true })
}

// ListForDocument returns the concepts with at least one ref in index
func (s *Store) ListForDocument(index AnnotationIndex) []*entities.Concept {
	if index == nil {
		return []*entities.Concept{}
	}
	return s.list(func(c *entities.Concept) bool {
		return c.ReferencesAny(index.Contains)
	})
}

// Len returns the number of concepts
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// SetActive marks a concept as the one being edited
func (s *Store) SetActive(id valueobjects.ConceptID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.table[id]; !ok {
		return pkgerrors.ErrConceptNotFound.WithDetail("concept_id", id.String())
	}
	s.activeID = id
	return nil
}

// ClearActive unsets the active concept
func (s *Store) ClearActive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeID = ""
}

// Active returns a copy of the active concept, read from the table
func (s *Store) Active() (*entities.Concept, bool) {
	s.mu.RLock()
	id := s.activeID
	s.mu.RUnlock()
	if id.IsZero() {
		return nil, false
	}
	return s.Get(id)
}

func (s *Store) list(keep func(*entities.Concept) bool) []*entities.Concept {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*entities.Concept, 0, len(s.order))
	for _, id := range s.order {
		if row := s.table[id]; keep(row) {
			out = append(out, row.Clone())
		}
	}
	return out
}

// put must be called with the write lock held
func (s *Store) put(c *entities.Concept) {
	if _, exists := s.table[c.ID()]; !exists {
		s.order = append(s.order, c.ID())
	}
	s.table[c.ID()] = c.Clone()
}

func (s *Store) nameTaken(key string, except valueobjects.ConceptID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, row := range s.table {
		if id != except && row.NameKey() == key {
			return true
		}
	}
	return false
}

func (s *Store) currentEpoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

func rejectedWith(err error, status int) bool {
	return pkgerrors.IsServerRejection(err) && pkgerrors.StatusOf(err) == status
}
