package fulfillment

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imrishuroy/go-order-fulfillment/internal/queue"
)

// HandleSQSEvent adapts a Lambda SQS batch to the worker. The first Retry
// disposition aborts the batch with an error so the runtime leaves the
// messages for redelivery; once max_receive_count is exceeded SQS moves
// them to the dead-letter queue.
func (w *Worker) HandleSQSEvent(ctx context.Context, ev events.SQSEvent) error {
	log.Printf("[worker] received %d SQS messages", len(ev.Records))
	for _, rec := range ev.Records {
		res := w.Process(ctx, queue.FromSQSRecord(rec))
		if res.Disposition == queue.Retry {
			return res.Err
		}
	}
	return nil
}
