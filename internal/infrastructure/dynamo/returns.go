package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/growwelltax/intake-api/internal/domain"
)

// ReturnRepo manages staff-prepared return file metadata.
// PK: application_id, SK: return_type ("draft" | "final"). Put overwrites,
// so each slot holds at most one current file.
type ReturnRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewReturnRepo(client *dynamodb.Client, tableName string) *ReturnRepo {
	return &ReturnRepo{client: client, tableName: tableName}
}

func (r *ReturnRepo) Put(ctx context.Context, t *domain.TaxReturn) error {
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return fmt.Errorf("marshal return: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ReturnRepo) Get(ctx context.Context, applicationID, returnType string) (*domain.TaxReturn, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("application_id", applicationID, "return_type", returnType),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("return not found: %w", domain.ErrNotFound)
	}
	var t domain.TaxReturn
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByApplication returns the draft and/or final return metadata for an
// application (zero, one, or two items).
func (r *ReturnRepo) ListByApplication(ctx context.Context, applicationID string) ([]domain.TaxReturn, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		KeyConditionExpression: aws.String("application_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: applicationID},
		},
	})
	if err != nil {
		return nil, err
	}
	var returns []domain.TaxReturn
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &returns); err != nil {
		return nil, err
	}
	return returns, nil
}
