// Package dynamodb stores documents, annotations, concepts and links in one table.
//
// Key layout:
//
//	Document        PK=DOCUMENT#<id>     SK=METADATA           GSI1PK=DOCUMENTS
//	Annotation      PK=DOCUMENT#<doc>    SK=ANNOTATION#<id>
//	Annotation ref  PK=ANNOTATION#<id>   SK=METADATA           DocumentID=<doc>
//	Concept         PK=CONCEPT#<id>      SK=METADATA           GSI1PK=CONCEPTS  GSI1SK=NAME#<key>
//	Concept name    PK=NAME#<key>        SK=METADATA           ConceptID=<id>
//	Link            PK=CONCEPT#<a>       SK=LINK#<b>           (mirrored; the canonical copy has GSI1PK=LINKS)
//
// Lookups by id and by name read the ref and name items with strongly
// consistent reads; GSI1 only serves the full listings. Name items are written
// in the same transaction as their concept under a condition, so two concepts
// can never hold the same name key.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

const (
	skMetadata = "METADATA"

	prefixDocument   = "DOCUMENT#"
	prefixAnnotation = "ANNOTATION#"
	prefixConcept    = "CONCEPT#"
	prefixLink       = "LINK#"
	prefixName       = "NAME#"

	gsiDocuments = "DOCUMENTS"
	gsiConcepts  = "CONCEPTS"
	gsiLinks     = "LINKS"

	// BatchWriteItem accepts at most 25 requests
	maxBatchWrite = 25
)

// API is the subset of the DynamoDB client used by the repositories
type API interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Table holds what every repository needs to reach the table
type Table struct {
	client    API
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewTable creates a table handle. indexName is the GSI1 index.
func NewTable(client API, tableName, indexName string, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Table{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// Documents returns the document repository
func (t *Table) Documents() *DocumentRepository { return &DocumentRepository{t} }

// Annotations returns the annotation repository
func (t *Table) Annotations() *AnnotationRepository { return &AnnotationRepository{t} }

// Concepts returns the concept repository
func (t *Table) Concepts() *ConceptRepository { return &ConceptRepository{t} }

// Links returns the link repository
func (t *Table) Links() *LinkRepository { return &LinkRepository{t} }

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// put writes item, optionally guarded by a condition
func (t *Table) put(ctx context.Context, item interface{}, condition *expression.ConditionBuilder) error {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.tableName),
		Item:      av,
	}
	if condition != nil {
		expr, err := expression.NewBuilder().WithCondition(*condition).Build()
		if err != nil {
			return fmt.Errorf("failed to build expression: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := t.client.PutItem(ctx, input); err != nil {
		return err
	}
	return nil
}

// get loads one item into out. It reports false when the item is absent.
func (t *Table) get(ctx context.Context, pk, sk string, out interface{}) (bool, error) {
	result, err := t.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.tableName),
		Key:            key(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return false, pkgerrors.NewDatabaseError("get item", err)
	}
	if len(result.Item) == 0 {
		return false, nil
	}
	if err := attributevalue.UnmarshalMap(result.Item, out); err != nil {
		return false, fmt.Errorf("failed to unmarshal item: %w", err)
	}
	return true, nil
}

// remove deletes one item and reports false when it did not exist
func (t *Table) remove(ctx context.Context, pk, sk string) (bool, error) {
	result, err := t.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(t.tableName),
		Key:          key(pk, sk),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, pkgerrors.NewDatabaseError("delete item", err)
	}
	return len(result.Attributes) > 0, nil
}

// query runs a key condition against the table or GSI1 and follows every page
func (t *Table) query(ctx context.Context, onIndex bool, keyCond expression.KeyConditionBuilder) ([]map[string]types.AttributeValue, error) {
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}
	if onIndex {
		input.IndexName = aws.String(t.indexName)
	}

	var items []map[string]types.AttributeValue
	for {
		result, err := t.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("query", err)
		}
		items = append(items, result.Items...)
		if len(result.LastEvaluatedKey) == 0 {
			return items, nil
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}
}

// deleteKeys removes items in batches, retrying unprocessed requests once
func (t *Table) deleteKeys(ctx context.Context, keys []map[string]types.AttributeValue) error {
	for start := 0; start < len(keys); start += maxBatchWrite {
		end := min(start+maxBatchWrite, len(keys))

		requests := make([]types.WriteRequest, 0, end-start)
		for _, k := range keys[start:end] {
			requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: k}})
		}

		pending := map[string][]types.WriteRequest{t.tableName: requests}
		for attempt := 0; attempt < 2 && len(pending[t.tableName]) > 0; attempt++ {
			result, err := t.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return pkgerrors.NewDatabaseError("batch delete", err)
			}
			pending = result.UnprocessedItems
		}
		if n := len(pending[t.tableName]); n > 0 {
			return pkgerrors.NewDatabaseError("batch delete", fmt.Errorf("%d items left unprocessed", n))
		}
	}
	return nil
}

// transact runs the writes as one transaction
func (t *Table) transact(ctx context.Context, writes []types.TransactWriteItem) error {
	_, err := t.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	return err
}

func (t *Table) putWrite(item interface{}, condition *expression.ConditionBuilder) (types.TransactWriteItem, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return types.TransactWriteItem{}, fmt.Errorf("failed to marshal item: %w", err)
	}
	put := &types.Put{TableName: aws.String(t.tableName), Item: av}
	if condition != nil {
		expr, err := expression.NewBuilder().WithCondition(*condition).Build()
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("failed to build expression: %w", err)
		}
		put.ConditionExpression = expr.Condition()
		put.ExpressionAttributeNames = expr.Names()
		put.ExpressionAttributeValues = expr.Values()
	}
	return types.TransactWriteItem{Put: put}, nil
}

func (t *Table) deleteWrite(pk, sk string, condition *expression.ConditionBuilder) (types.TransactWriteItem, error) {
	del := &types.Delete{TableName: aws.String(t.tableName), Key: key(pk, sk)}
	if condition != nil {
		expr, err := expression.NewBuilder().WithCondition(*condition).Build()
		if err != nil {
			return types.TransactWriteItem{}, fmt.Errorf("failed to build expression: %w", err)
		}
		del.ConditionExpression = expr.Condition()
		del.ExpressionAttributeNames = expr.Names()
		del.ExpressionAttributeValues = expr.Values()
	}
	return types.TransactWriteItem{Delete: del}, nil
}

func isConditionFailure(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for _, reason := range tce.CancellationReasons {
			if aws.ToString(reason.Code) == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	return false
}
