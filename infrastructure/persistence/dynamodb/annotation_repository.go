package dynamodb

import (
	"context"
	"fmt"
	"slices"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/pkg/utils"
)

// AnnotationRepository persists annotations inside their document's partition
type AnnotationRepository struct{ t *Table }

var _ ports.AnnotationRepository = (*AnnotationRepository)(nil)

type annotationItem struct {
	PK             string                       `dynamodbav:"PK"`
	SK             string                       `dynamodbav:"SK"`
	EntityType     string                       `dynamodbav:"EntityType"`
	AnnotationID   string                       `dynamodbav:"AnnotationID"`
	DocumentID     string                       `dynamodbav:"DocumentID"`
	HighlightAreas []valueobjects.HighlightArea `dynamodbav:"HighlightAreas"`
	Quote          string                       `dynamodbav:"Quote"`
	Comment        string                       `dynamodbav:"Comment"`
	Tag            string                       `dynamodbav:"Tag,omitempty"`
	CreatedAt      string                       `dynamodbav:"CreatedAt"`
	UpdatedAt      string                       `dynamodbav:"UpdatedAt"`
}

func toAnnotationItem(a *entities.Annotation) annotationItem {
	return annotationItem{
		PK:             prefixDocument + a.DocumentID().String(),
		SK:             prefixAnnotation + a.ID().String(),
		EntityType:     "ANNOTATION",
		AnnotationID:   a.ID().String(),
		DocumentID:     a.DocumentID().String(),
		HighlightAreas: a.HighlightAreas(),
		Quote:          a.Quote(),
		Comment:        a.Comment(),
		Tag:            a.Tag(),
		CreatedAt:      utils.FormatTimestamp(a.CreatedAt()),
		UpdatedAt:      utils.FormatTimestamp(a.UpdatedAt()),
	}
}

// annotationRefItem points from an annotation id to its document partition
type annotationRefItem struct {
	PK           string `dynamodbav:"PK"`
	SK           string `dynamodbav:"SK"`
	EntityType   string `dynamodbav:"EntityType"`
	AnnotationID string `dynamodbav:"AnnotationID"`
	DocumentID   string `dynamodbav:"DocumentID"`
}

func toAnnotationRefItem(id valueobjects.AnnotationID, documentID valueobjects.DocumentID) annotationRefItem {
	return annotationRefItem{
		PK:           prefixAnnotation + id.String(),
		SK:           skMetadata,
		EntityType:   "ANNOTATION_REF",
		AnnotationID: id.String(),
		DocumentID:   documentID.String(),
	}
}

func (item annotationItem) toEntity() (*entities.Annotation, error) {
	created, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on annotation %s: %w", item.AnnotationID, err)
	}
	updated, err := utils.ParseTimestamp(item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid UpdatedAt on annotation %s: %w", item.AnnotationID, err)
	}
	return entities.ReconstructAnnotation(
		valueobjects.AnnotationID(item.AnnotationID),
		valueobjects.DocumentID(item.DocumentID),
		item.HighlightAreas, item.Quote, item.Comment, item.Tag,
		created, updated,
	)
}

// Save writes the annotation and its ref item in one transaction
func (r *AnnotationRepository) Save(ctx context.Context, a *entities.Annotation) error {
	record, err := r.t.putWrite(toAnnotationItem(a), nil)
	if err != nil {
		return err
	}
	ref, err := r.t.putWrite(toAnnotationRefItem(a.ID(), a.DocumentID()), nil)
	if err != nil {
		return err
	}
	if err := r.t.transact(ctx, []types.TransactWriteItem{record, ref}); err != nil {
		r.t.logger.Error("Failed to save annotation", zap.Error(err), zap.String("annotationID", a.ID().String()))
		return pkgerrors.NewDatabaseError("save annotation", err)
	}
	return nil
}

// GetByID follows the ref item to the document partition. Both reads are
// strongly consistent.
func (r *AnnotationRepository) GetByID(ctx context.Context, id valueobjects.AnnotationID) (*entities.Annotation, error) {
	var ref annotationRefItem
	found, err := r.t.get(ctx, prefixAnnotation+id.String(), skMetadata, &ref)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.ErrAnnotationNotFound.WithDetail("id", id.String())
	}

	var item annotationItem
	found, err = r.t.get(ctx, prefixDocument+ref.DocumentID, prefixAnnotation+id.String(), &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.ErrAnnotationNotFound.WithDetail("id", id.String())
	}
	return item.toEntity()
}

// ListByDocument returns the document's annotations, oldest first
func (r *AnnotationRepository) ListByDocument(ctx context.Context, documentID valueobjects.DocumentID) ([]*entities.Annotation, error) {
	items, err := r.queryDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Annotation, 0, len(items))
	for _, item := range items {
		a, err := item.toEntity()
		if err != nil {
			r.t.logger.Warn("Skipping invalid annotation item", zap.Error(err))
			continue
		}
		out = append(out, a)
	}
	slices.SortStableFunc(out, func(a, b *entities.Annotation) int { return a.CreatedAt().Compare(b.CreatedAt()) })
	return out, nil
}

// Delete removes the annotation and its ref item
func (r *AnnotationRepository) Delete(ctx context.Context, id valueobjects.AnnotationID) error {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	record, err := r.t.deleteWrite(prefixDocument+a.DocumentID().String(), prefixAnnotation+id.String(), nil)
	if err != nil {
		return err
	}
	ref, err := r.t.deleteWrite(prefixAnnotation+id.String(), skMetadata, nil)
	if err != nil {
		return err
	}
	if err := r.t.transact(ctx, []types.TransactWriteItem{record, ref}); err != nil {
		return pkgerrors.NewDatabaseError("delete annotation", err)
	}
	return nil
}

// DeleteByDocument removes every annotation in the document's partition
func (r *AnnotationRepository) DeleteByDocument(ctx context.Context, documentID valueobjects.DocumentID) ([]valueobjects.AnnotationID, error) {
	items, err := r.queryDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	ids := make([]valueobjects.AnnotationID, 0, len(items))
	keys := make([]map[string]types.AttributeValue, 0, 2*len(items))
	for _, item := range items {
		ids = append(ids, valueobjects.AnnotationID(item.AnnotationID))
		keys = append(keys, key(item.PK, item.SK), key(prefixAnnotation+item.AnnotationID, skMetadata))
	}
	if err := r.t.deleteKeys(ctx, keys); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *AnnotationRepository) queryDocument(ctx context.Context, documentID valueobjects.DocumentID) ([]annotationItem, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(prefixDocument + documentID.String())).
		And(expression.Key("SK").BeginsWith(prefixAnnotation))
	raw, err := r.t.query(ctx, false, keyCond)
	if err != nil {
		return nil, err
	}

	items := make([]annotationItem, 0, len(raw))
	for _, av := range raw {
		var item annotationItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			r.t.logger.Warn("Failed to parse annotation item", zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	return items, nil
}
