package orders

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory mock for PutItem/GetItem/UpdateItem that
// understands the exact expressions the orders store issues.
// NOTE: intentionally minimal, not production-grade.
type mockDynamo struct {
	mu    sync.Mutex
	table map[string]map[string]types.AttributeValue

	failPut    error
	failUpdate error
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{
		table: map[string]map[string]types.AttributeValue{},
	}
}

func (m *mockDynamo) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut != nil {
		return nil, m.failPut
	}
	keyAttr, ok := params.Item["order_id"].(*types.AttributeValueMemberS)
	if !ok {
		return nil, errors.New("missing order_id in put item")
	}
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(order_id)" {
		if _, exists := m.table[keyAttr.Value]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.table[keyAttr.Value] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := params.Key["order_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.table[key]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, params *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return nil, m.failUpdate
	}
	key := params.Key["order_id"].(*types.AttributeValueMemberS).Value
	item, exists := m.table[key]
	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_exists(order_id)" && !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	if !exists {
		item = map[string]types.AttributeValue{
			"order_id": &types.AttributeValueMemberS{Value: key},
		}
	}

	expr := ""
	if params.UpdateExpression != nil {
		expr = *params.UpdateExpression
	}
	if v, ok := params.ExpressionAttributeValues[":new"]; ok {
		item["status"] = v
	}
	if v, ok := params.ExpressionAttributeValues[":ua"]; ok {
		item["updated_at"] = v
	}
	if strings.Contains(expr, "fulfilled_at = if_not_exists(fulfilled_at") {
		if _, set := item["fulfilled_at"]; !set {
			item["fulfilled_at"] = params.ExpressionAttributeValues[":ts"]
		}
	}
	if strings.Contains(expr, "failed_at = if_not_exists(failed_at") {
		if _, set := item["failed_at"]; !set {
			item["failed_at"] = params.ExpressionAttributeValues[":ts"]
		}
	}
	m.table[key] = item
	return &dyn.UpdateItemOutput{Attributes: item}, nil
}
