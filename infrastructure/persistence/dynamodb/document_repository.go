package dynamodb

import (
	"context"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/pkg/utils"
)

// DocumentRepository persists documents
type DocumentRepository struct{ t *Table }

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

type documentItem struct {
	PK          string            `dynamodbav:"PK"`
	SK          string            `dynamodbav:"SK"`
	GSI1PK      string            `dynamodbav:"GSI1PK"`
	GSI1SK      string            `dynamodbav:"GSI1SK"`
	EntityType  string            `dynamodbav:"EntityType"`
	DocumentID  string            `dynamodbav:"DocumentID"`
	Name        string            `dynamodbav:"Name"`
	ContentType string            `dynamodbav:"ContentType"`
	Path        string            `dynamodbav:"Path"`
	Metadata    map[string]string `dynamodbav:"Metadata,omitempty"`
	CreatedAt   string            `dynamodbav:"CreatedAt"`
	UpdatedAt   string            `dynamodbav:"UpdatedAt"`
}

func toDocumentItem(d *entities.Document) documentItem {
	created := utils.FormatTimestamp(d.CreatedAt())
	return documentItem{
		PK:          prefixDocument + d.ID().String(),
		SK:          skMetadata,
		GSI1PK:      gsiDocuments,
		GSI1SK:      created + "#" + d.ID().String(),
		EntityType:  "DOCUMENT",
		DocumentID:  d.ID().String(),
		Name:        d.Name(),
		ContentType: d.ContentType(),
		Path:        d.Path(),
		Metadata:    d.Metadata(),
		CreatedAt:   created,
		UpdatedAt:   utils.FormatTimestamp(d.UpdatedAt()),
	}
}

func (item documentItem) toEntity() (*entities.Document, error) {
	created, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on document %s: %w", item.DocumentID, err)
	}
	updated, err := utils.ParseTimestamp(item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid UpdatedAt on document %s: %w", item.DocumentID, err)
	}
	return entities.ReconstructDocument(
		valueobjects.DocumentID(item.DocumentID),
		item.Name, item.ContentType, item.Path, item.Metadata,
		created, updated,
	)
}

// Save persists a document
func (r *DocumentRepository) Save(ctx context.Context, doc *entities.Document) error {
	if err := r.t.put(ctx, toDocumentItem(doc), nil); err != nil {
		r.t.logger.Error("Failed to save document", zap.Error(err), zap.String("documentID", doc.ID().String()))
		return pkgerrors.NewDatabaseError("save document", err)
	}
	return nil
}

// GetByID retrieves a document by its ID
func (r *DocumentRepository) GetByID(ctx context.Context, id valueobjects.DocumentID) (*entities.Document, error) {
	var item documentItem
	found, err := r.t.get(ctx, prefixDocument+id.String(), skMetadata, &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.ErrDocumentNotFound.WithDetail("id", id.String())
	}
	return item.toEntity()
}

// List returns every document, oldest first
func (r *DocumentRepository) List(ctx context.Context) ([]*entities.Document, error) {
	items, err := r.t.query(ctx, true, expression.Key("GSI1PK").Equal(expression.Value(gsiDocuments)))
	if err != nil {
		return nil, err
	}

	docs := make([]*entities.Document, 0, len(items))
	for _, raw := range items {
		var item documentItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.t.logger.Warn("Failed to parse document item", zap.Error(err))
			continue
		}
		doc, err := item.toEntity()
		if err != nil {
			r.t.logger.Warn("Skipping invalid document item", zap.Error(err))
			continue
		}
		docs = append(docs, doc)
	}
	slices.SortStableFunc(docs, func(a, b *entities.Document) int { return a.CreatedAt().Compare(b.CreatedAt()) })
	return docs, nil
}

// Delete removes a document record
func (r *DocumentRepository) Delete(ctx context.Context, id valueobjects.DocumentID) error {
	existed, err := r.t.remove(ctx, prefixDocument+id.String(), skMetadata)
	if err != nil {
		return err
	}
	if !existed {
		return pkgerrors.ErrDocumentNotFound.WithDetail("id", id.String())
	}
	return nil
}
