// Package pipeline implements the step contracts the orchestrator drives:
// validate, then store-and-enqueue. Each step receives an input record and
// produces a named output or an error the orchestrator reacts to.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/imrishuroy/go-order-fulfillment/internal/orders"
	"github.com/imrishuroy/go-order-fulfillment/internal/queue"
	"github.com/imrishuroy/go-order-fulfillment/internal/validation"
)

// ValidateOutput is the validate step result. No HTTP status codes here:
// this is an internal step contract, not a REST response.
type ValidateOutput struct {
	Valid            bool           `json:"valid"`
	Order            map[string]any `json:"order"`
	ValidationErrors []string       `json:"validation_errors"`
}

// ValidateStep runs the order rule set and echoes the record. Validation
// failures are data, never errors: the orchestrator short-circuits invalid
// orders to a rejection outcome, so they never reach the store or queue.
func ValidateStep(ctx context.Context, order map[string]any) (ValidateOutput, error) {
	res := validation.Validate(order)
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	log.Printf("[validator] order_id=%v valid=%t errors=%d",
		order["order_id"], res.Valid, len(errs))
	return ValidateOutput{
		Valid:            res.Valid,
		Order:            order,
		ValidationErrors: errs,
	}, nil
}

// StoreInput wraps the validated order record.
type StoreInput struct {
	Order map[string]any `json:"order"`
}

// StoreOutput reports the canonical stored record.
type StoreOutput struct {
	Stored  bool          `json:"stored"`
	OrderID string        `json:"order_id"`
	Order   *orders.Order `json:"order"`
}

// Storer is the store-and-enqueue step: persist the order, then hand its
// projection to the fulfillment queue.
type Storer struct {
	store *orders.Store
	queue queue.Queue
}

// NewStorer returns a Storer.
func NewStorer(store *orders.Store, q queue.Queue) *Storer {
	return &Storer{store: store, queue: q}
}

// StoreAndEnqueue creates the order (PENDING) and enqueues its queue
// payload. A duplicate-key create means a retried invocation already
// persisted the order, so the step proceeds with the existing record.
// Persistence and enqueue failures propagate: the orchestrator marks the
// workflow failed.
func (s *Storer) StoreAndEnqueue(ctx context.Context, in StoreInput) (StoreOutput, error) {
	order, err := s.store.Create(ctx, orders.FromRecord(in.Order))
	if err != nil {
		if !errors.Is(err, orders.ErrAlreadyExists) {
			return StoreOutput{}, fmt.Errorf("create order: %w", err)
		}
		id, _ := in.Order["order_id"].(string)
		order, err = s.store.Get(ctx, id)
		if err != nil {
			return StoreOutput{}, fmt.Errorf("read existing order %s: %w", id, err)
		}
		if order == nil {
			return StoreOutput{}, fmt.Errorf("order %s conflicted on create but is unreadable", id)
		}
		log.Printf("[storage] order=%s already created, proceeding", order.OrderID)
	}

	body, err := json.Marshal(orders.ToQueuePayload(order))
	if err != nil {
		return StoreOutput{}, fmt.Errorf("marshal queue payload: %w", err)
	}
	msgID, err := s.queue.Enqueue(ctx, string(body), map[string]string{
		"order_id":    order.OrderID,
		"customer_id": order.CustomerID,
	})
	if err != nil {
		return StoreOutput{}, fmt.Errorf("enqueue order %s: %w", order.OrderID, err)
	}

	log.Printf("[storage] stored order=%s status=%s message=%s", order.OrderID, order.Status, msgID)
	return StoreOutput{Stored: true, OrderID: order.OrderID, Order: order}, nil
}
