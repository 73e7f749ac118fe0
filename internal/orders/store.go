package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
)

// ErrAlreadyExists indicates a create hit an existing order_id. Callers
// treat this as "already created" and proceed, not as a fatal error.
var ErrAlreadyExists = errors.New("order already exists")

// ErrNotFound indicates an update referenced an unknown order_id.
var ErrNotFound = errors.New("order not found")

// Store encapsulates operations on the orders table. It is the single
// source of truth for live order state.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
	newID     func() string
}

// NewStore creates a new orders Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
		newID:     uuid.NewString,
	}
}

// Create persists a new order. It assigns order_id if absent, forces
// status to PENDING and stamps created_at/updated_at. The write is guarded
// by attribute_not_exists(order_id); a duplicate key returns
// ErrAlreadyExists so idempotent retries of the storage step are safe.
func (s *Store) Create(ctx context.Context, order Order) (*Order, error) {
	if order.OrderID == "" {
		order.OrderID = s.newID()
	}
	now := s.nowFunc().UTC().Truncate(time.Second)
	order.Status = StatusPending
	order.CreatedAt = now
	order.UpdatedAt = now
	order.FulfilledAt = nil
	order.FailedAt = nil

	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	input := &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(order_id)"),
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		// detect conditional check failure
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, order.OrderID)
		}
		return nil, fmt.Errorf("put order: %w", err)
	}
	return &order, nil
}

// Get fetches an order by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Order, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var o Order
	if err := attributevalue.UnmarshalMap(out.Item, &o); err != nil {
		return nil, fmt.Errorf("unmarshal order: %w", err)
	}
	return &o, nil
}

// UpdateStatus performs a field-level update of status and updated_at,
// stamping the relevant terminal timestamp exactly once via if_not_exists.
// Status writes are deliberately last-write-wins: with at-least-once
// delivery a stale redelivery can race a fresh one, and the final recorded
// status is whichever update lands last. Returns ErrNotFound for an
// unknown order_id.
func (s *Store) UpdateStatus(ctx context.Context, orderID, newStatus string) error {
	now := s.nowFunc().UTC().Format(time.RFC3339)

	updateExpr := "SET #s = :new, updated_at = :ua"
	values := map[string]types.AttributeValue{
		":new": &types.AttributeValueMemberS{Value: newStatus},
		":ua":  &types.AttributeValueMemberS{Value: now},
	}
	switch newStatus {
	case StatusFulfilled:
		updateExpr += ", fulfilled_at = if_not_exists(fulfilled_at, :ts)"
		values[":ts"] = &types.AttributeValueMemberS{Value: now}
	case StatusFailed:
		updateExpr += ", failed_at = if_not_exists(failed_at, :ts)"
		values[":ts"] = &types.AttributeValueMemberS{Value: now}
	}

	input := &dyn.UpdateItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: orderID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  map[string]string{"#s": "status"},
		ExpressionAttributeValues: values,
		ConditionExpression:       awsString("attribute_exists(order_id)"),
	}

	if _, err := s.client.UpdateItem(ctx, input); err != nil {
		var sc smithy.APIError
		if errors.As(err, &sc) && sc.ErrorCode() == "ConditionalCheckFailedException" {
			return fmt.Errorf("%w: %s", ErrNotFound, orderID)
		}
		return fmt.Errorf("update item: %w", err)
	}
	return nil
}

func awsString(s string) *string { return &s }
