package pipeline

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imrishuroy/go-order-fulfillment/internal/deadletter"
	"github.com/imrishuroy/go-order-fulfillment/internal/failedorders"
	"github.com/imrishuroy/go-order-fulfillment/internal/fulfillment"
	"github.com/imrishuroy/go-order-fulfillment/internal/orders"
	"github.com/imrishuroy/go-order-fulfillment/internal/queue"
)

// mockDynamo keeps items per table: table -> order_id -> item.
type mockDynamo struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func (m *mockDynamo) ensure(table string) {
	if _, ok := m.tables[table]; !ok {
		m.tables[table] = map[string]map[string]types.AttributeValue{}
	}
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *in.TableName
	m.ensure(table)
	key := in.Item["order_id"].(*types.AttributeValueMemberS).Value
	if in.ConditionExpression != nil && *in.ConditionExpression == "attribute_not_exists(order_id)" {
		if _, exists := m.tables[table][key]; exists {
			return nil, &types.ConditionalCheckFailedException{}
		}
	}
	m.tables[table][key] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *in.TableName
	m.ensure(table)
	key := in.Key["order_id"].(*types.AttributeValueMemberS).Value
	item, ok := m.tables[table][key]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) UpdateItem(ctx context.Context, in *dyn.UpdateItemInput, optFns ...func(*dyn.Options)) (*dyn.UpdateItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	table := *in.TableName
	m.ensure(table)
	key := in.Key["order_id"].(*types.AttributeValueMemberS).Value
	item, exists := m.tables[table][key]
	if !exists {
		return nil, &types.ConditionalCheckFailedException{}
	}
	expr := *in.UpdateExpression
	item["status"] = in.ExpressionAttributeValues[":new"]
	item["updated_at"] = in.ExpressionAttributeValues[":ua"]
	if strings.Contains(expr, "fulfilled_at = if_not_exists(fulfilled_at") {
		if _, set := item["fulfilled_at"]; !set {
			item["fulfilled_at"] = in.ExpressionAttributeValues[":ts"]
		}
	}
	if strings.Contains(expr, "failed_at = if_not_exists(failed_at") {
		if _, set := item["failed_at"]; !set {
			item["failed_at"] = in.ExpressionAttributeValues[":ts"]
		}
	}
	m.tables[table][key] = item
	return &dyn.UpdateItemOutput{}, nil
}

type fixedOutcome bool

func (o fixedOutcome) Succeed(p float64) bool { return bool(o) }

func validRecord() map[string]any {
	return map[string]any{
		"customer_id": "C1",
		"items": []any{
			map[string]any{"product_id": "P1", "quantity": float64(2), "price": 9.99},
		},
		"total_amount": 19.98,
	}
}

func TestValidateStep_EchoesOrder(t *testing.T) {
	rec := validRecord()
	out, err := ValidateStep(context.Background(), rec)
	if err != nil {
		t.Fatalf("ValidateStep error: %v", err)
	}
	if !out.Valid {
		t.Fatalf("expected valid, errors: %v", out.ValidationErrors)
	}
	if out.ValidationErrors == nil || len(out.ValidationErrors) != 0 {
		t.Fatalf("expected empty (non-nil) error list, got %v", out.ValidationErrors)
	}
	if out.Order["customer_id"] != "C1" {
		t.Fatalf("order not echoed: %v", out.Order)
	}
}

func TestValidateStep_InvalidOrderShortCircuits(t *testing.T) {
	// missing customer_id, empty items: the orchestrator rejects and the
	// order never reaches the store or the queue
	out, err := ValidateStep(context.Background(), map[string]any{
		"items":        []any{},
		"total_amount": float64(5),
	})
	if err != nil {
		t.Fatalf("ValidateStep error: %v", err)
	}
	if out.Valid {
		t.Fatal("expected invalid")
	}
	if len(out.ValidationErrors) < 2 {
		t.Fatalf("expected accumulated errors, got %v", out.ValidationErrors)
	}
}

func TestStoreAndEnqueue(t *testing.T) {
	mock := newMockDynamo()
	q := queue.NewMemoryQueue(3, time.Minute)
	store := orders.NewStore(mock, "orders")
	storer := NewStorer(store, q)
	ctx := context.Background()

	out, err := storer.StoreAndEnqueue(ctx, StoreInput{Order: validRecord()})
	if err != nil {
		t.Fatalf("StoreAndEnqueue error: %v", err)
	}
	if !out.Stored || out.OrderID == "" {
		t.Fatalf("unexpected output: %+v", out)
	}
	if out.Order.Status != orders.StatusPending {
		t.Fatalf("expected PENDING, got %s", out.Order.Status)
	}

	msg, err := q.Receive(ctx)
	if err != nil || msg == nil {
		t.Fatalf("expected enqueued message, got %v err=%v", msg, err)
	}
	if msg.Attributes["order_id"] != out.OrderID || msg.Attributes["customer_id"] != "C1" {
		t.Fatalf("routing attributes missing: %+v", msg.Attributes)
	}
}

func TestStoreAndEnqueue_DuplicateCreateProceeds(t *testing.T) {
	mock := newMockDynamo()
	q := queue.NewMemoryQueue(3, time.Minute)
	store := orders.NewStore(mock, "orders")
	storer := NewStorer(store, q)
	ctx := context.Background()

	rec := validRecord()
	rec["order_id"] = "o-dup"

	if _, err := storer.StoreAndEnqueue(ctx, StoreInput{Order: rec}); err != nil {
		t.Fatalf("first StoreAndEnqueue error: %v", err)
	}
	// a retried step invocation must treat duplicate-key as already created
	out, err := storer.StoreAndEnqueue(ctx, StoreInput{Order: rec})
	if err != nil {
		t.Fatalf("retried StoreAndEnqueue error: %v", err)
	}
	if !out.Stored || out.OrderID != "o-dup" {
		t.Fatalf("unexpected output on retry: %+v", out)
	}
}

// Full lifecycle: store -> queue -> worker retries -> dead-letter -> router.
func TestPipeline_ExhaustedRetriesReachDeadLetterExactlyOnce(t *testing.T) {
	const maxReceive = 3
	mock := newMockDynamo()
	ctx := context.Background()

	q := queue.NewMemoryQueue(maxReceive, time.Minute)
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	now := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return clock
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(d)
	}
	q.SetNow(now)

	orderStore := orders.NewStore(mock, "orders")
	storer := NewStorer(orderStore, q)
	worker := fulfillment.NewWorker(orderStore, fixedOutcome(false), 0.7, nil)

	out, err := storer.StoreAndEnqueue(ctx, StoreInput{Order: validRecord()})
	if err != nil {
		t.Fatalf("StoreAndEnqueue error: %v", err)
	}

	// every allowed delivery fails; visibility expiry drives redelivery
	for attempt := 0; attempt < maxReceive+1; attempt++ {
		if err := queue.Drain(ctx, q, worker.Process); err != nil {
			t.Fatalf("Drain error: %v", err)
		}
		advance(2 * time.Minute)
	}
	if q.Len() != 0 {
		t.Fatalf("message still live after retries exhausted, len=%d", q.Len())
	}

	failedStore := failedorders.NewStore(mock, "failed-orders")
	router := deadletter.NewRouter(failedStore, orderStore, nil)

	dlq := q.DeadLetters()
	dead, err := dlq.Receive(ctx)
	if err != nil || dead == nil {
		t.Fatalf("expected exactly one dead-letter delivery, got %v err=%v", dead, err)
	}
	router.HandleDeadLetter(ctx, *dead)
	if err := dlq.Acknowledge(ctx, dead); err != nil {
		t.Fatalf("Acknowledge error: %v", err)
	}
	if extra, _ := dlq.Receive(ctx); extra != nil {
		t.Fatalf("duplicate dead-letter delivery: %+v", extra)
	}

	rec, err := failedStore.Get(ctx, out.OrderID)
	if err != nil || rec == nil {
		t.Fatalf("expected failed-order record, got %v err=%v", rec, err)
	}
	if rec.RetryCount != maxReceive {
		t.Fatalf("expected retry_count=%d, got %d", maxReceive, rec.RetryCount)
	}

	live, err := orderStore.Get(ctx, out.OrderID)
	if err != nil || live == nil {
		t.Fatalf("live order missing: %v", err)
	}
	if live.Status != orders.StatusFailed {
		t.Fatalf("expected terminal FAILED, got %s", live.Status)
	}
}

// Full lifecycle, happy path: one delivery, order fulfilled, queue empty.
func TestPipeline_SuccessfulFulfillment(t *testing.T) {
	mock := newMockDynamo()
	ctx := context.Background()

	q := queue.NewMemoryQueue(3, time.Minute)
	orderStore := orders.NewStore(mock, "orders")
	storer := NewStorer(orderStore, q)
	worker := fulfillment.NewWorker(orderStore, fixedOutcome(true), 0.7, nil)

	out, err := storer.StoreAndEnqueue(ctx, StoreInput{Order: validRecord()})
	if err != nil {
		t.Fatalf("StoreAndEnqueue error: %v", err)
	}
	if err := queue.Drain(ctx, q, worker.Process); err != nil {
		t.Fatalf("Drain error: %v", err)
	}

	if q.Len() != 0 {
		t.Fatalf("expected message acknowledged, len=%d", q.Len())
	}
	if n := q.DeadLetters().Len(); n != 0 {
		t.Fatalf("unexpected dead letters: %d", n)
	}

	live, err := orderStore.Get(ctx, out.OrderID)
	if err != nil || live == nil {
		t.Fatalf("live order missing: %v", err)
	}
	if live.Status != orders.StatusFulfilled {
		t.Fatalf("expected FULFILLED, got %s", live.Status)
	}
	if live.FulfilledAt == nil {
		t.Fatal("expected fulfilled_at stamped")
	}
}
