package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// LinkService creates and removes links between concepts.
// At most one link exists per unordered pair.
type LinkService struct {
	concepts    ports.ConceptRepository
	links       ports.LinkRepository
	publisher   ports.EventPublisher
	instruments *Instruments
	logger      *zap.Logger
}

// NewLinkService creates a new link service
func NewLinkService(
	concepts ports.ConceptRepository,
	links ports.LinkRepository,
	publisher ports.EventPublisher,
	instruments *Instruments,
	logger *zap.Logger,
) *LinkService {
	return &LinkService{
		concepts:    concepts,
		links:       links,
		publisher:   publisher,
		instruments: instruments,
		logger:      logger,
	}
}

// Create links a and b
func (s *LinkService) Create(ctx context.Context, a, b valueobjects.ConceptID) (*entities.Link, error) {
	var link *entities.Link
	err := s.instruments.run(ctx, "link.create", func(ctx context.Context) error {
		var err error
		link, err = s.create(ctx, a, b)
		return err
	})
	return link, err
}

func (s *LinkService) create(ctx context.Context, a, b valueobjects.ConceptID) (*entities.Link, error) {
	if a.IsZero() || b.IsZero() {
		return nil, pkgerrors.NewValidationError("link requires two concept ids")
	}
	if a == b {
		return nil, pkgerrors.ErrSelfLink
	}
	for _, id := range []valueobjects.ConceptID{a, b} {
		if _, err := s.concepts.GetByID(ctx, id); err != nil {
			return nil, err
		}
	}

	existing, err := s.links.Find(ctx, a, b)
	switch {
	case err == nil && existing != nil:
		return nil, pkgerrors.ErrDuplicateLink.WithDetail("concept_ids", []string{a.String(), b.String()})
	case err != nil && !pkgerrors.IsNotFound(err):
		return nil, fmt.Errorf("failed to look up link: %w", err)
	}

	link, err := entities.NewLink(a, b)
	if err != nil {
		return nil, err
	}
	if err := s.links.Save(ctx, link); err != nil {
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	s.logger.Debug("Concepts linked",
		zap.String("linkID", link.ID().String()),
		zap.String("conceptA", a.String()),
		zap.String("conceptB", b.String()),
	)
	publishEvents(ctx, s.publisher, s.logger, link)

	return link, nil
}

// Delete removes the link joining a and b in either order
func (s *LinkService) Delete(ctx context.Context, a, b valueobjects.ConceptID) error {
	return s.instruments.run(ctx, "link.delete", func(ctx context.Context) error {
		link, err := s.links.Find(ctx, a, b)
		if err != nil {
			return err
		}
		if err := s.links.Delete(ctx, link); err != nil {
			return fmt.Errorf("failed to delete link: %w", err)
		}

		link.MarkDeleted()
		publishEvents(ctx, s.publisher, s.logger, link)
		return nil
	})
}

// deleteTouching removes every link of id and reports how many were removed
func (s *LinkService) deleteTouching(ctx context.Context, id valueobjects.ConceptID) (int, error) {
	links, err := s.links.ListByConcept(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("failed to list links: %w", err)
	}
	for _, link := range links {
		if err := s.links.Delete(ctx, link); err != nil && !pkgerrors.IsNotFound(err) {
			return 0, fmt.Errorf("failed to delete link: %w", err)
		}
		link.MarkDeleted()
		publishEvents(ctx, s.publisher, s.logger, link)
	}
	return len(links), nil
}

// attach fills each concept's linked set from the link table
func (s *LinkService) attach(ctx context.Context, concepts ...*entities.Concept) error {
	if len(concepts) == 0 {
		return nil
	}
	links, err := s.links.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list links: %w", err)
	}

	adjacency := make(map[valueobjects.ConceptID][]valueobjects.ConceptID)
	for _, link := range links {
		pair := link.ConceptIDs()
		adjacency[pair[0]] = append(adjacency[pair[0]], pair[1])
		adjacency[pair[1]] = append(adjacency[pair[1]], pair[0])
	}
	for _, c := range concepts {
		c.ReplaceLinks(adjacency[c.ID()])
	}
	return nil
}
