// Package failedorders persists the terminal record of orders that
// exhausted fulfillment retries. This table, not the live order status, is
// the record of truth for dead-lettered orders.
package failedorders

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
)

// Store encapsulates writes to the failed-orders table.
type Store struct {
	client    aws.DynamoDBAPI
	tableName string
	nowFunc   func() time.Time
}

// NewStore returns a configured Store.
func NewStore(client aws.DynamoDBAPI, tableName string) *Store {
	return &Store{
		client:    client,
		tableName: tableName,
		nowFunc:   time.Now,
	}
}

// Put writes rec, stamping DLQProcessedAt. The write is unconditional:
// duplicate dead-letter events for the same order_id overwrite rather than
// error, which keeps the router idempotent under redelivery races.
func (s *Store) Put(ctx context.Context, rec Record) error {
	rec.DLQProcessedAt = s.nowFunc().UTC().Format(time.RFC3339)
	if rec.FailedAt == "" {
		rec.FailedAt = rec.DLQProcessedAt
	}

	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal failed-order record: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put failed-order record: %w", err)
	}
	return nil
}

// Get fetches a record by order_id. Returns (nil, nil) if not found.
func (s *Store) Get(ctx context.Context, orderID string) (*Record, error) {
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
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}
