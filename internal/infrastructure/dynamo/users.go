package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/growwelltax/intake-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table and its
// identifier ledger. Every email/phone attached to a user owns exactly one
// row in the ledger table; rows are only ever written with an
// attribute_not_exists condition, which is what enforces at-most-one-user
// per identifier without a relational unique index.
type UserRepo struct {
	client           *dynamodb.Client
	tableName        string
	identifiersTable string
}

func NewUserRepo(client *dynamodb.Client, tableName, identifiersTable string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, identifiersTable: identifiersTable}
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIdentifier resolves an email or phone through the ledger, then reads
// the owning user. The ledger read is strongly consistent so a verify right
// after a concurrent create still observes the winner.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.identifiersTable),
		Key:            strKey("identifier", identifier),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("identifier not registered: %w", domain.ErrNotFound)
	}
	var ref domain.UserIdentifier
	if err := attributevalue.UnmarshalMap(out.Item, &ref); err != nil {
		return nil, err
	}
	return r.Get(ctx, ref.UserID)
}

// CreateWithIdentifiers writes the user row and one ledger row per identifier
// in a single transaction. Each ledger Put carries an attribute_not_exists
// condition, so if another request claimed any identifier first the whole
// transaction is cancelled and domain.ErrConflict is returned; the caller
// re-resolves instead of creating a duplicate user.
func (r *UserRepo) CreateWithIdentifiers(ctx context.Context, u *domain.User, identifiers []string) error {
	userItem, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	items := []types.TransactWriteItem{
		{
			Put: &types.Put{
				TableName:           aws.String(r.tableName),
				Item:                userItem,
				ConditionExpression: aws.String("attribute_not_exists(user_id)"),
			},
		},
	}
	for _, ident := range identifiers {
		ledgerItem, err := attributevalue.MarshalMap(&domain.UserIdentifier{
			Identifier: ident,
			UserID:     u.UserID,
		})
		if err != nil {
			return fmt.Errorf("marshal identifier: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:           aws.String(r.identifiersTable),
				Item:                ledgerItem,
				ConditionExpression: aws.String("attribute_not_exists(identifier)"),
			},
		})
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return fmt.Errorf("identifier already claimed: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

// ClaimIdentifier attaches an additional identifier to an existing user
// (email backfill on a phone-first account or vice versa). Returns
// domain.ErrConflict if another user already owns it.
func (r *UserRepo) ClaimIdentifier(ctx context.Context, identifier, userID string) error {
	item, err := attributevalue.MarshalMap(&domain.UserIdentifier{
		Identifier: identifier,
		UserID:     userID,
	})
	if err != nil {
		return fmt.Errorf("marshal identifier: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.identifiersTable),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(identifier)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("identifier already claimed: %w", domain.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	expr, names, values, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	return err
}
