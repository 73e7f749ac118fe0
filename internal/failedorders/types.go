package failedorders

import "github.com/imrishuroy/go-order-fulfillment/internal/orders"

// FailureReasonMaxRetries is recorded when a message exhausted its
// redeliveries.
const FailureReasonMaxRetries = "Order processing failed after maximum retries"

// SourceDLQProcessor tags records written by the dead-letter router.
const SourceDLQProcessor = "dlq_processor"

// Record is the terminal, append-only failed-order entry. Owned solely by
// the dead-letter router; never mutated after creation. Keyed by order_id,
// last write wins if duplicate dead-letter events occur for the same order.
type Record struct {
	OrderID        string              `dynamodbav:"order_id"` // PK
	OriginalOrder  orders.QueuePayload `dynamodbav:"original_order"`
	FailureReason  string              `dynamodbav:"failure_reason"`
	FailedAt       string              `dynamodbav:"failed_at"`
	RetryCount     int                 `dynamodbav:"retry_count"` // receive_count at dead-letter time
	MessageID      string              `dynamodbav:"message_id,omitempty"`
	DLQProcessedAt string              `dynamodbav:"dlq_processed_at"`
	Source         string              `dynamodbav:"source"`
}
