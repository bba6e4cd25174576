package dynamodb

import (
	"context"
	"fmt"
	"slices"
	"strings"

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

// ConceptRepository persists concepts. Links live in their own items.
type ConceptRepository struct{ t *Table }

var _ ports.ConceptRepository = (*ConceptRepository)(nil)

type conceptItem struct {
	PK             string   `dynamodbav:"PK"`
	SK             string   `dynamodbav:"SK"`
	GSI1PK         string   `dynamodbav:"GSI1PK"`
	GSI1SK         string   `dynamodbav:"GSI1SK"`
	EntityType     string   `dynamodbav:"EntityType"`
	ConceptID      string   `dynamodbav:"ConceptID"`
	Name           string   `dynamodbav:"Name"`
	Comment        string   `dynamodbav:"Comment"`
	AnnotationRefs []string `dynamodbav:"AnnotationRefs"`
	CreatedAt      string   `dynamodbav:"CreatedAt"`
	UpdatedAt      string   `dynamodbav:"UpdatedAt"`
}

func toConceptItem(c *entities.Concept) conceptItem {
	refs := make([]string, 0, len(c.AnnotationRefs()))
	for _, id := range c.AnnotationRefs() {
		refs = append(refs, id.String())
	}
	return conceptItem{
		PK:             prefixConcept + c.ID().String(),
		SK:             skMetadata,
		GSI1PK:         gsiConcepts,
		GSI1SK:         prefixName + c.NameKey(),
		EntityType:     "CONCEPT",
		ConceptID:      c.ID().String(),
		Name:           c.Name(),
		Comment:        c.Comment(),
		AnnotationRefs: refs,
		CreatedAt:      utils.FormatTimestamp(c.CreatedAt()),
		UpdatedAt:      utils.FormatTimestamp(c.UpdatedAt()),
	}
}

// conceptNameItem claims a case-folded name for one concept
type conceptNameItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	EntityType string `dynamodbav:"EntityType"`
	ConceptID  string `dynamodbav:"ConceptID"`
}

func toConceptNameItem(c *entities.Concept) conceptNameItem {
	return conceptNameItem{
		PK:         prefixName + c.NameKey(),
		SK:         skMetadata,
		EntityType: "CONCEPT_NAME",
		ConceptID:  c.ID().String(),
	}
}

// ownedBy holds when the name item is absent or already belongs to id
func ownedBy(id valueobjects.ConceptID) expression.ConditionBuilder {
	return expression.Name("PK").AttributeNotExists().
		Or(expression.Name("ConceptID").Equal(expression.Value(id.String())))
}

func (item conceptItem) toEntity() (*entities.Concept, error) {
	created, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on concept %s: %w", item.ConceptID, err)
	}
	updated, err := utils.ParseTimestamp(item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid UpdatedAt on concept %s: %w", item.ConceptID, err)
	}
	refs := make([]valueobjects.AnnotationID, 0, len(item.AnnotationRefs))
	for _, ref := range item.AnnotationRefs {
		refs = append(refs, valueobjects.AnnotationID(ref))
	}
	return entities.ReconstructConcept(
		valueobjects.ConceptID(item.ConceptID),
		item.Name, item.Comment, refs, nil,
		created, updated,
	)
}

// Save writes the concept together with its name item. A rename releases the
// previous name in the same transaction. A name held by another concept fails
// with ErrDuplicateConceptName.
func (r *ConceptRepository) Save(ctx context.Context, c *entities.Concept) error {
	var previous conceptItem
	existed, err := r.t.get(ctx, prefixConcept+c.ID().String(), skMetadata, &previous)
	if err != nil {
		return err
	}

	claim := ownedBy(c.ID())
	record, err := r.t.putWrite(toConceptItem(c), nil)
	if err != nil {
		return err
	}
	name, err := r.t.putWrite(toConceptNameItem(c), &claim)
	if err != nil {
		return err
	}
	writes := []types.TransactWriteItem{record, name}

	if oldKey := strings.TrimPrefix(previous.GSI1SK, prefixName); existed && oldKey != c.NameKey() {
		release, err := r.t.deleteWrite(prefixName+oldKey, skMetadata, &claim)
		if err != nil {
			return err
		}
		writes = append(writes, release)
	}

	if err := r.t.transact(ctx, writes); err != nil {
		if isConditionFailure(err) {
			return pkgerrors.ErrDuplicateConceptName.WithDetail("name", c.Name())
		}
		r.t.logger.Error("Failed to save concept", zap.Error(err), zap.String("conceptID", c.ID().String()))
		return pkgerrors.NewDatabaseError("save concept", err)
	}
	return nil
}

// GetByID retrieves a concept by its ID
func (r *ConceptRepository) GetByID(ctx context.Context, id valueobjects.ConceptID) (*entities.Concept, error) {
	var item conceptItem
	found, err := r.t.get(ctx, prefixConcept+id.String(), skMetadata, &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.ErrConceptNotFound.WithDetail("id", id.String())
	}
	return item.toEntity()
}

// FindByName reads the name item and then its concept, both strongly consistent
func (r *ConceptRepository) FindByName(ctx context.Context, nameKey string) (*entities.Concept, error) {
	nameKey = strings.ToLower(strings.TrimSpace(nameKey))

	var claim conceptNameItem
	found, err := r.t.get(ctx, prefixName+nameKey, skMetadata, &claim)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	c, err := r.GetByID(ctx, valueobjects.ConceptID(claim.ConceptID))
	if pkgerrors.IsNotFound(err) {
		return nil, nil
	}
	return c, err
}

// List returns every concept, oldest first
func (r *ConceptRepository) List(ctx context.Context) ([]*entities.Concept, error) {
	items, err := r.t.query(ctx, true, expression.Key("GSI1PK").Equal(expression.Value(gsiConcepts)))
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Concept, 0, len(items))
	for _, raw := range items {
		var item conceptItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.t.logger.Warn("Failed to parse concept item", zap.Error(err))
			continue
		}
		c, err := item.toEntity()
		if err != nil {
			r.t.logger.Warn("Skipping invalid concept item", zap.Error(err))
			continue
		}
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b *entities.Concept) int { return a.CreatedAt().Compare(b.CreatedAt()) })
	return out, nil
}

// Delete removes the concept item and releases its name
func (r *ConceptRepository) Delete(ctx context.Context, id valueobjects.ConceptID) error {
	var item conceptItem
	found, err := r.t.get(ctx, prefixConcept+id.String(), skMetadata, &item)
	if err != nil {
		return err
	}
	if !found {
		return pkgerrors.ErrConceptNotFound.WithDetail("id", id.String())
	}

	exists := expression.Name("PK").AttributeExists()
	record, err := r.t.deleteWrite(item.PK, item.SK, &exists)
	if err != nil {
		return err
	}
	claim := ownedBy(id)
	name, err := r.t.deleteWrite(prefixName+strings.TrimPrefix(item.GSI1SK, prefixName), skMetadata, &claim)
	if err != nil {
		return err
	}

	if err := r.t.transact(ctx, []types.TransactWriteItem{record, name}); err != nil {
		if isConditionFailure(err) {
			return pkgerrors.ErrConceptNotFound.WithDetail("id", id.String())
		}
		return pkgerrors.NewDatabaseError("delete concept", err)
	}
	return nil
}
