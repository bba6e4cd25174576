package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/pkg/utils"
)

// ConceptUpdate is the replacement state for an existing concept.
// Linked concepts are owned by the link table and are not part of it.
type ConceptUpdate struct {
	ID            valueobjects.ConceptID
	Name          string
	Comment       string
	AnnotationIDs []valueobjects.AnnotationID
}

// ConceptService manages concepts. Returned concepts carry their links.
type ConceptService struct {
	concepts    ports.ConceptRepository
	links       *LinkService
	publisher   ports.EventPublisher
	cfg         *config.DomainConfig
	instruments *Instruments
	logger      *zap.Logger
}

// NewConceptService creates a new concept service
func NewConceptService(
	concepts ports.ConceptRepository,
	links *LinkService,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	instruments *Instruments,
	logger *zap.Logger,
) *ConceptService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &ConceptService{
		concepts:    concepts,
		links:       links,
		publisher:   publisher,
		cfg:         cfg,
		instruments: instruments,
		logger:      logger,
	}
}

// List returns every concept, oldest first
func (s *ConceptService) List(ctx context.Context) ([]*entities.Concept, error) {
	all, err := s.concepts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list concepts: %w", err)
	}
	if err := s.links.attach(ctx, all...); err != nil {
		return nil, err
	}
	return all, nil
}

// Get returns one concept
func (s *ConceptService) Get(ctx context.Context, id valueobjects.ConceptID) (*entities.Concept, error) {
	c, err := s.concepts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.links.attach(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Create stores a new concept and links it to the draft's linked concepts
func (s *ConceptService) Create(ctx context.Context, draft ports.ConceptDraft) (*entities.Concept, error) {
	var created *entities.Concept
	err := s.instruments.run(ctx, "concept.create", func(ctx context.Context) error {
		concept, err := entities.NewConcept(draft.Name, draft.Comment, s.cfg)
		if err != nil {
			return err
		}
		if err := s.ensureNameFree(ctx, concept.NameKey(), "", pkgerrors.ErrDuplicateConceptName); err != nil {
			return err
		}
		if err := concept.ReplaceAnnotationRefs(draft.AnnotationIDs, s.cfg); err != nil {
			return err
		}
		for _, other := range draft.LinkedConceptIDs {
			if other == concept.ID() {
				continue
			}
			if _, err := s.concepts.GetByID(ctx, other); err != nil {
				return err
			}
		}

		if err := s.concepts.Save(ctx, concept); err != nil {
			if errors.Is(err, pkgerrors.ErrDuplicateConceptName) {
				return err
			}
			return fmt.Errorf("failed to save concept: %w", err)
		}
		publishEvents(ctx, s.publisher, s.logger, concept)

		for _, other := range draft.LinkedConceptIDs {
			if _, err := s.links.create(ctx, concept.ID(), other); err != nil && !pkgerrors.IsConflict(err) {
				s.logger.Warn("Failed to link new concept",
					zap.String("conceptID", concept.ID().String()),
					zap.String("otherID", other.String()),
					zap.Error(err),
				)
			}
		}

		created, err = s.Get(ctx, concept.ID())
		return err
	})
	return created, err
}

// Update replaces name, comment and annotation refs
func (s *ConceptService) Update(ctx context.Context, update ConceptUpdate) (*entities.Concept, error) {
	var updated *entities.Concept
	err := s.instruments.run(ctx, "concept.update", func(ctx context.Context) error {
		concept, err := s.concepts.GetByID(ctx, update.ID)
		if err != nil {
			return err
		}

		if err := concept.Rename(update.Name, s.cfg); err != nil {
			return err
		}
		if err := s.ensureNameFree(ctx, concept.NameKey(), concept.ID(), pkgerrors.ErrConceptNameTaken); err != nil {
			return err
		}
		if err := concept.SetComment(update.Comment, s.cfg); err != nil {
			return err
		}
		if err := concept.ReplaceAnnotationRefs(update.AnnotationIDs, s.cfg); err != nil {
			return err
		}

		if err := s.concepts.Save(ctx, concept); err != nil {
			if errors.Is(err, pkgerrors.ErrDuplicateConceptName) {
				return pkgerrors.ErrConceptNameTaken.WithDetail("name", concept.Name())
			}
			return fmt.Errorf("failed to save concept: %w", err)
		}
		concept.RecordUpdate()
		publishEvents(ctx, s.publisher, s.logger, concept)

		updated, err = s.Get(ctx, concept.ID())
		return err
	})
	return updated, err
}

// Delete removes a concept and every link touching it
func (s *ConceptService) Delete(ctx context.Context, id valueobjects.ConceptID) error {
	return s.instruments.run(ctx, "concept.delete", func(ctx context.Context) error {
		if _, err := s.concepts.GetByID(ctx, id); err != nil {
			return err
		}

		removed, err := s.links.deleteTouching(ctx, id)
		if err != nil {
			return err
		}
		if err := s.concepts.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete concept: %w", err)
		}

		s.logger.Info("Concept deleted",
			zap.String("conceptID", id.String()),
			zap.Int("linksRemoved", removed),
		)
		if s.publisher != nil {
			if err := s.publisher.Publish(ctx, events.NewConceptDeleted(id, utils.NowUTC())); err != nil {
				s.logger.Warn("Failed to publish domain events", zap.Error(err))
			}
		}
		return nil
	})
}

// stripAnnotationRefs removes ids from every concept that references them
func (s *ConceptService) stripAnnotationRefs(ctx context.Context, ids []valueobjects.AnnotationID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[valueobjects.AnnotationID]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	all, err := s.concepts.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list concepts: %w", err)
	}
	touched := 0
	for _, concept := range all {
		if concept.RemoveAnnotationRefs(drop) == 0 {
			continue
		}
		if err := s.concepts.Save(ctx, concept); err != nil {
			return touched, fmt.Errorf("failed to save concept: %w", err)
		}
		concept.RecordUpdate()
		publishEvents(ctx, s.publisher, s.logger, concept)
		touched++
	}
	return touched, nil
}

// referencing returns the concepts whose refs intersect ids
func (s *ConceptService) referencing(ctx context.Context, ids []valueobjects.AnnotationID) ([]*entities.Concept, error) {
	set := make(map[valueobjects.AnnotationID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*entities.Concept, 0)
	for _, c := range all {
		if c.ReferencesAny(func(id valueobjects.AnnotationID) bool { return set[id] }) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ConceptService) ensureNameFree(ctx context.Context, key string, self valueobjects.ConceptID, conflict *pkgerrors.DomainError) error {
	existing, err := s.concepts.FindByName(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to look up concept name: %w", err)
	}
	if existing != nil && existing.ID() != self {
		return conflict.WithDetail("name", existing.Name())
	}
	return nil
}
