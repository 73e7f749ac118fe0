// Package fulfillment consumes queue messages and drives each order
// through PENDING -> FULFILLING -> {FULFILLED | FAILED}. FULFILLED retires
// the message; FAILED is a provisional marker that redelivery may overwrite
// back to FULFILLING until retries are exhausted.
package fulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/imrishuroy/go-order-fulfillment/internal/metrics"
	"github.com/imrishuroy/go-order-fulfillment/internal/orders"
	"github.com/imrishuroy/go-order-fulfillment/internal/queue"
)

// SimulatedFailure is the designed-in fulfillment failure mode. It is
// returned as a Retry disposition so the queue redelivers the message.
type SimulatedFailure struct {
	OrderID string
}

func (e *SimulatedFailure) Error() string {
	return fmt.Sprintf("order fulfillment failed for order %s", e.OrderID)
}

// Worker processes one queue message at a time. Every delivery is treated
// as at-least-once: reprocessing an order after a prior attempt only
// overwrites status, it never accumulates side effects.
type Worker struct {
	store       *orders.Store
	outcomes    OutcomeSource
	successRate float64
	metrics     *metrics.Emitter
}

// NewWorker returns a Worker. successRate is the probability of a
// successful attempt (0.7 in this system); metrics may be nil.
func NewWorker(store *orders.Store, outcomes OutcomeSource, successRate float64, emitter *metrics.Emitter) *Worker {
	return &Worker{
		store:       store,
		outcomes:    outcomes,
		successRate: successRate,
		metrics:     emitter,
	}
}

// Process attempts fulfillment of the order referenced by msg and reports
// the message disposition. Infrastructure failures on the critical status
// update and simulated business failures both map to Retry: distinguishing
// them buys nothing here, the redelivery behavior is the same.
func (w *Worker) Process(ctx context.Context, msg queue.Message) queue.Result {
	var payload orders.QueuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		// undecodable bodies ride the retry path into the DLQ so they stay
		// visible instead of being dropped
		return queue.Retryable(fmt.Errorf("invalid message body: %w", err))
	}
	if payload.OrderID == "" {
		log.Printf("[worker] message=%s has no order_id, dropping", msg.MessageID)
		return queue.Acked()
	}

	log.Printf("[worker] processing order=%s attempt=%d", payload.OrderID, msg.ReceiveCount)

	if err := w.store.UpdateStatus(ctx, payload.OrderID, orders.StatusFulfilling); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			log.Printf("[worker] order=%s unknown on FULFILLING update: %v", payload.OrderID, err)
		} else {
			return queue.Retryable(fmt.Errorf("update status to FULFILLING: %w", err))
		}
	}

	if w.outcomes.Succeed(w.successRate) {
		if err := w.store.UpdateStatus(ctx, payload.OrderID, orders.StatusFulfilled); err != nil {
			if !errors.Is(err, orders.ErrNotFound) {
				return queue.Retryable(fmt.Errorf("update status to FULFILLED: %w", err))
			}
			log.Printf("[worker] order=%s unknown on FULFILLED update: %v", payload.OrderID, err)
		}
		w.metrics.Count(ctx, metrics.MetricOrderFulfilled)
		log.Printf("[worker] fulfilled order=%s", payload.OrderID)
		return queue.Acked()
	}

	// provisional marker only; the failed-orders table is written by the
	// dead-letter router once retries are exhausted
	if err := w.store.UpdateStatus(ctx, payload.OrderID, orders.StatusFailed); err != nil {
		log.Printf("[worker] best-effort FAILED update for order=%s: %v", payload.OrderID, err)
	}
	w.metrics.Count(ctx, metrics.MetricOrderFulfillmentFailed)
	log.Printf("[worker] fulfillment failed order=%s attempt=%d", payload.OrderID, msg.ReceiveCount)
	return queue.Retryable(&SimulatedFailure{OrderID: payload.OrderID})
}
