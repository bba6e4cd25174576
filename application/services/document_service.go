package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/config"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// DocumentService stores uploads and serves document content and bundles
type DocumentService struct {
	documents   ports.DocumentRepository
	annotations ports.AnnotationRepository
	concepts    *ConceptService
	blobs       ports.BlobStore
	publisher   ports.EventPublisher
	cfg         *config.DomainConfig
	instruments *Instruments
	logger      *zap.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documents ports.DocumentRepository,
	annotations ports.AnnotationRepository,
	concepts *ConceptService,
	blobs ports.BlobStore,
	publisher ports.EventPublisher,
	cfg *config.DomainConfig,
	instruments *Instruments,
	logger *zap.Logger,
) *DocumentService {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &DocumentService{
		documents:   documents,
		annotations: annotations,
		concepts:    concepts,
		blobs:       blobs,
		publisher:   publisher,
		cfg:         cfg,
		instruments: instruments,
		logger:      logger,
	}
}

// List returns the id and name of every document
func (s *DocumentService) List(ctx context.Context) ([]entities.DocumentSummary, error) {
	docs, err := s.documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	out := make([]entities.DocumentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.Summary())
	}
	return out, nil
}

// Get returns one document record
func (s *DocumentService) Get(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	return s.documents.GetByID(ctx, id)
}

// Content returns the stored bytes and their content type
func (s *DocumentService) Content(ctx context.Context, id valueobjects.DocumentID) (ports.DocumentContent, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return ports.DocumentContent{}, err
	}
	data, err := s.blobs.Get(ctx, doc.Path())
	if err != nil {
		return ports.DocumentContent{}, err
	}
	return ports.DocumentContent{Data: data, ContentType: doc.ContentType()}, nil
}

// Bundle returns the document, its annotations and the concepts referencing them
func (s *DocumentService) Bundle(ctx context.Context, id valueobjects.DocumentID) (*ports.DocumentBundle, error) {
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	anns, err := s.annotations.ListByDocument(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list annotations: %w", err)
	}

	ids := make([]valueobjects.AnnotationID, 0, len(anns))
	for _, a := range anns {
		ids = append(ids, a.ID())
	}
	related, err := s.concepts.referencing(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &ports.DocumentBundle{Document: doc, Annotations: anns, Concepts: related}, nil
}

// Upload stores the file under a fresh key and registers the document.
// The name is the file name without its extension.
func (s *DocumentService) Upload(ctx context.Context, fileName, contentType string, r io.Reader) (*entities.Document, error) {
	var created *entities.Document
	err := s.instruments.run(ctx, "document.upload", func(ctx context.Context) error {
		if strings.TrimSpace(fileName) == "" {
			return pkgerrors.NewValidationError("file name is required")
		}
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = s.cfg.DefaultContentType
		}

		key := uuid.New().String() + strings.ToLower(filepath.Ext(fileName))
		size, err := s.blobs.Put(ctx, key, r)
		if err != nil {
			return err
		}

		doc, err := entities.NewDocument(fileName, contentType, key, size, s.cfg)
		if err == nil {
			err = s.documents.Save(ctx, doc)
		}
		if err != nil {
			if cleanupErr := s.blobs.Delete(ctx, key); cleanupErr != nil {
				s.logger.Warn("Failed to remove orphaned blob", zap.String("key", key), zap.Error(cleanupErr))
			}
			return err
		}

		s.logger.Info("Document uploaded",
			zap.String("documentID", doc.ID().String()),
			zap.String("name", doc.Name()),
			zap.Int64("bytes", size),
		)
		if s.instruments != nil {
			s.instruments.Metrics.RecordUploadSize(ctx, contentType, size)
		}
		publishEvents(ctx, s.publisher, s.logger, doc)
		created = doc
		return nil
	})
	return created, err
}

// Rename changes a document's display name
func (s *DocumentService) Rename(ctx context.Context, id valueobjects.DocumentID, name string) (*entities.Document, error) {
	var renamed *entities.Document
	err := s.instruments.run(ctx, "document.rename", func(ctx context.Context) error {
		doc, err := s.documents.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := doc.Rename(name, s.cfg); err != nil {
			return err
		}
		if err := s.documents.Save(ctx, doc); err != nil {
			return fmt.Errorf("failed to save document: %w", err)
		}
		publishEvents(ctx, s.publisher, s.logger, doc)
		renamed = doc
		return nil
	})
	return renamed, err
}

// Delete removes the document, its blob and its annotations,
// and strips those annotations from every concept
func (s *DocumentService) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	return s.instruments.run(ctx, "document.delete", func(ctx context.Context) error {
		doc, err := s.documents.GetByID(ctx, id)
		if err != nil {
			return err
		}

		removed, err := s.annotations.DeleteByDocument(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to delete annotations: %w", err)
		}
		touched, err := s.concepts.stripAnnotationRefs(ctx, removed)
		if err != nil {
			return err
		}
		if err := s.blobs.Delete(ctx, doc.Path()); err != nil {
			s.logger.Warn("Failed to delete document content", zap.String("path", doc.Path()), zap.Error(err))
		}
		if err := s.documents.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}

		s.logger.Info("Document deleted",
			zap.String("documentID", id.String()),
			zap.Int("annotationsRemoved", len(removed)),
			zap.Int("conceptsUpdated", touched),
		)
		doc.MarkDeleted(removed)
		publishEvents(ctx, s.publisher, s.logger, doc)
		return nil
	})
}

