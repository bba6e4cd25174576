package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	"github.com/whikwon/nexusnote/domain/events"
	"github.com/whikwon/nexusnote/pkg/utils"
)

// AnnotationService manages annotations. Deleting one leaves concept refs alone.
type AnnotationService struct {
	documents   ports.DocumentRepository
	annotations ports.AnnotationRepository
	publisher   ports.EventPublisher
	cfg         *config.DomainConfig
	instruments *Instruments
	logger      *zap.Logger
}

// NewAnnotationService creates a new annotation service
func NewAnnotationService(
	documents ports.DocumentRepository,
	annotations ports.AnnotationRepository,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	instruments *Instruments,
	logger *zap.Logger,
) *AnnotationService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &AnnotationService{
		documents:   documents,
		annotations: annotations,
		publisher:   publisher,
		cfg:         cfg,
		instruments: instruments,
		logger:      logger,
	}
}

// Create persists a highlight on an existing document
func (s *AnnotationService) Create(ctx context.Context, draft entities.AnnotationDraft) (*entities.Annotation, error) {
	var created *entities.Annotation
	err := s.instruments.run(ctx, "annotation.create", func(ctx context.Context) error {
		if err := draft.Validate(s.cfg); err != nil {
			return err
		}
		if _, err := s.documents.GetByID(ctx, draft.DocumentID); err != nil {
			return err
		}

		annotation, err := entities.NewAnnotation(draft, s.cfg)
		if err != nil {
			return err
		}
		if err := s.annotations.Save(ctx, annotation); err != nil {
			return fmt.Errorf("failed to save annotation: %w", err)
		}

		s.logger.Debug("Annotation created",
			zap.String("annotationID", annotation.ID().String()),
			zap.String("documentID", draft.DocumentID.String()),
		)
		publishEvents(ctx, s.publisher, s.logger, annotation)
		created = annotation
		return nil
	})
	return created, err
}

// UpdateComment replaces the comment and returns the new record
func (s *AnnotationService) UpdateComment(ctx context.Context, id valueobjects.AnnotationID, comment string) (*entities.Annotation, error) {
	var updated *entities.Annotation
	err := s.instruments.run(ctx, "annotation.update", func(ctx context.Context) error {
		current, err := s.annotations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err := current.WithComment(comment, s.cfg)
		if err != nil {
			return err
		}
		if err := s.annotations.Save(ctx, next); err != nil {
			return fmt.Errorf("failed to save annotation: %w", err)
		}

		publishEvents(ctx, s.publisher, s.logger, next)
		updated = next
		return nil
	})
	return updated, err
}

// Delete removes one annotation
func (s *AnnotationService) Delete(ctx context.Context, id valueobjects.AnnotationID) error {
	return s.instruments.run(ctx, "annotation.delete", func(ctx context.Context) error {
		current, err := s.annotations.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.annotations.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete annotation: %w", err)
		}

		if s.publisher != nil {
			event := events.NewAnnotationDeleted(id, current.DocumentID(), utils.NowUTC())
			if err := s.publisher.Publish(ctx, event); err != nil {
				s.logger.Warn("Failed to publish domain events", zap.Error(err))
			}
		}
		return nil
	})
}
