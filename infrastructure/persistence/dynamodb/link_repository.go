package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
	"github.com/whikwon/nexusnote/pkg/utils"
)

// LinkRepository stores each link twice, once under each endpoint's partition.
// Both copies are written and removed in one transaction.
type LinkRepository struct{ t *Table }

var _ ports.LinkRepository = (*LinkRepository)(nil)

type linkItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK,omitempty"`
	GSI1SK     string `dynamodbav:"GSI1SK,omitempty"`
	EntityType string `dynamodbav:"EntityType"`
	LinkID     string `dynamodbav:"LinkID"`
	ConceptA   string `dynamodbav:"ConceptA"`
	ConceptB   string `dynamodbav:"ConceptB"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
}

// linkItems returns the canonical copy under a and the mirror under b
func linkItems(l *entities.Link) (linkItem, linkItem) {
	pair := l.ConceptIDs()
	a, b := pair[0].String(), pair[1].String()
	base := linkItem{
		EntityType: "LINK",
		LinkID:     l.ID().String(),
		ConceptA:   a,
		ConceptB:   b,
		CreatedAt:  utils.FormatTimestamp(l.CreatedAt()),
	}

	canonical := base
	canonical.PK, canonical.SK = prefixConcept+a, prefixLink+b
	canonical.GSI1PK, canonical.GSI1SK = gsiLinks, prefixLink+l.ID().String()

	mirror := base
	mirror.PK, mirror.SK = prefixConcept+b, prefixLink+a
	return canonical, mirror
}

func (item linkItem) toEntity() (*entities.Link, error) {
	created, err := utils.ParseTimestamp(item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid CreatedAt on link %s: %w", item.LinkID, err)
	}
	return entities.ReconstructLink(
		valueobjects.LinkID(item.LinkID),
		valueobjects.ConceptID(item.ConceptA),
		valueobjects.ConceptID(item.ConceptB),
		created,
	)
}

// Save writes both copies. An existing pair in either order fails with ErrDuplicateLink.
func (r *LinkRepository) Save(ctx context.Context, l *entities.Link) error {
	canonical, mirror := linkItems(l)
	notExists := expression.Name("PK").AttributeNotExists()
	expr, err := expression.NewBuilder().WithCondition(notExists).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	writes := make([]types.TransactWriteItem, 0, 2)
	for _, item := range []linkItem{canonical, mirror} {
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return fmt.Errorf("failed to marshal link: %w", err)
		}
		writes = append(writes, types.TransactWriteItem{
			Put: &types.Put{
				TableName:                aws.String(r.t.tableName),
				Item:                     av,
				ConditionExpression:      expr.Condition(),
				ExpressionAttributeNames: expr.Names(),
			},
		})
	}

	_, err = r.t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		if isConditionFailure(err) {
			return pkgerrors.ErrDuplicateLink
		}
		r.t.logger.Error("Failed to save link", zap.Error(err), zap.String("linkID", l.ID().String()))
		return pkgerrors.NewDatabaseError("save link", err)
	}
	return nil
}

// Find reads the copy stored under a
func (r *LinkRepository) Find(ctx context.Context, a, b valueobjects.ConceptID) (*entities.Link, error) {
	var item linkItem
	found, err := r.t.get(ctx, prefixConcept+a.String(), prefixLink+b.String(), &item)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, pkgerrors.ErrLinkNotFound
	}
	return item.toEntity()
}

// List returns every link through the canonical copies
func (r *LinkRepository) List(ctx context.Context) ([]*entities.Link, error) {
	items, err := r.t.query(ctx, true, expression.Key("GSI1PK").Equal(expression.Value(gsiLinks)))
	if err != nil {
		return nil, err
	}
	return r.parse(items), nil
}

// ListByConcept reads the concept's partition
func (r *LinkRepository) ListByConcept(ctx context.Context, id valueobjects.ConceptID) ([]*entities.Link, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(prefixConcept + id.String())).
		And(expression.Key("SK").BeginsWith(prefixLink))
	items, err := r.t.query(ctx, false, keyCond)
	if err != nil {
		return nil, err
	}
	return r.parse(items), nil
}

// Delete removes both copies
func (r *LinkRepository) Delete(ctx context.Context, l *entities.Link) error {
	canonical, mirror := linkItems(l)
	exists := expression.Name("PK").AttributeExists()
	expr, err := expression.NewBuilder().WithCondition(exists).Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	writes := make([]types.TransactWriteItem, 0, 2)
	for _, item := range []linkItem{canonical, mirror} {
		writes = append(writes, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName:                aws.String(r.t.tableName),
				Key:                      key(item.PK, item.SK),
				ConditionExpression:      expr.Condition(),
				ExpressionAttributeNames: expr.Names(),
			},
		})
	}

	_, err = r.t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		if isConditionFailure(err) {
			return pkgerrors.ErrLinkNotFound
		}
		return pkgerrors.NewDatabaseError("delete link", err)
	}
	return nil
}

func (r *LinkRepository) parse(raw []map[string]types.AttributeValue) []*entities.Link {
	out := make([]*entities.Link, 0, len(raw))
	for _, av := range raw {
		var item linkItem
		if err := attributevalue.UnmarshalMap(av, &item); err != nil {
			r.t.logger.Warn("Failed to parse link item", zap.Error(err))
			continue
		}
		l, err := item.toEntity()
		if err != nil {
			r.t.logger.Warn("Skipping invalid link item", zap.Error(err))
			continue
		}
		out = append(out, l)
	}
	return out
}
