// Package deadletter routes messages that exhausted their redeliveries
// into the failed-orders table, guaranteeing terminal visibility: no order
// is ever silently lost.
package deadletter

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-order-fulfillment/internal/failedorders"
	"github.com/imrishuroy/go-order-fulfillment/internal/metrics"
	"github.com/imrishuroy/go-order-fulfillment/internal/orders"
	"github.com/imrishuroy/go-order-fulfillment/internal/queue"
)

// Router consumes the dead-letter stream. It is triggered only by the
// dead-letter destination, never the live queue.
type Router struct {
	failed  *failedorders.Store
	orders  *orders.Store
	metrics *metrics.Emitter
}

// NewRouter returns a Router. metrics may be nil.
func NewRouter(failed *failedorders.Store, orderStore *orders.Store, emitter *metrics.Emitter) *Router {
	return &Router{
		failed:  failed,
		orders:  orderStore,
		metrics: emitter,
	}
}

// HandleDeadLetter records one dead-lettered message. It never reports an
// error to its trigger: a processing failure here is logged and the message
// is still considered handled, trading a small chance of a missing
// failed-orders entry for the guarantee that dead-lettering cannot cascade
// into an infinite redelivery loop.
func (r *Router) HandleDeadLetter(ctx context.Context, msg queue.Message) {
	var payload orders.QueuePayload
	if err := json.Unmarshal([]byte(msg.Body), &payload); err != nil {
		log.Printf("[dlq] message=%s body undecodable: %v", msg.MessageID, err)
	}
	orderID := payload.OrderID
	if orderID == "" {
		orderID = "unknown"
	}

	log.Printf("[dlq] processing order=%s message=%s retry_count=%d",
		orderID, msg.MessageID, msg.ReceiveCount)

	rec := failedorders.Record{
		OrderID:       orderID,
		OriginalOrder: payload,
		FailureReason: failedorders.FailureReasonMaxRetries,
		RetryCount:    msg.ReceiveCount,
		MessageID:     msg.MessageID,
		Source:        failedorders.SourceDLQProcessor,
	}
	if err := r.failed.Put(ctx, rec); err != nil {
		log.Printf("[dlq] store failed-order record order=%s: %v", orderID, err)
	} else {
		r.metrics.Count(ctx, metrics.MetricOrderDeadLettered)
		log.Printf("[dlq] failed-order record stored order=%s", orderID)
	}

	// Reconcile the live record to FAILED. The worker's last FAILED write
	// may have been overwritten back to FULFILLING by a racing redelivery;
	// only this path knows retries are exhausted. Best effort: the
	// failed-orders table is the record of truth regardless.
	if payload.OrderID != "" {
		if err := r.orders.UpdateStatus(ctx, payload.OrderID, orders.StatusFailed); err != nil {
			log.Printf("[dlq] best-effort FAILED reconcile order=%s: %v", payload.OrderID, err)
		}
	}
}

// HandleSQSEvent adapts DLQ Lambda deliveries. It always returns nil so the
// dead-letter messages themselves are never redelivered.
func (r *Router) HandleSQSEvent(ctx context.Context, ev events.SQSEvent) error {
	log.Printf("[dlq] received %d dead-letter messages", len(ev.Records))
	for _, rec := range ev.Records {
		r.HandleDeadLetter(ctx, queue.FromSQSRecord(rec))
	}
	return nil
}
