// Package queue provides the at-least-once delivery channel between the
// order store and the fulfillment worker: an SQS transport for deployment
// and an in-memory implementation with the same redelivery contract for
// local runs and tests.
package queue

import "context"

// Message is a single delivery from the queue.
type Message struct {
	MessageID     string
	Body          string
	Attributes    map[string]string
	ReceiveCount  int    // 1 on first delivery, incremented on every redelivery
	ReceiptHandle string // transport token required to acknowledge this delivery
}

// Disposition tells the queue what to do with a delivered message.
type Disposition int

const (
	// Ack removes the message from the queue permanently.
	Ack Disposition = iota
	// Retry leaves the message unacknowledged: it is redelivered with
	// receive_count incremented until max_receive_count is exceeded, at
	// which point the queue itself moves it to the dead-letter destination.
	Retry
)

// Result pairs a disposition with the failure that produced it, so
// redelivery is driven by a typed value instead of error unwinding.
type Result struct {
	Disposition Disposition
	Err         error
}

// Acked reports a successfully handled message.
func Acked() Result { return Result{Disposition: Ack} }

// Retryable reports a failed attempt that the queue should redeliver.
func Retryable(err error) Result { return Result{Disposition: Retry, Err: err} }

// Queue is the delivery channel contract.
type Queue interface {
	// Enqueue submits a message body plus string attributes and returns the
	// queue-assigned message id.
	Enqueue(ctx context.Context, body string, attrs map[string]string) (string, error)
	// Receive delivers at most one message. Returns (nil, nil) when the
	// queue has nothing visible.
	Receive(ctx context.Context) (*Message, error)
	// Acknowledge removes a delivered message permanently.
	Acknowledge(ctx context.Context, msg *Message) error
}

// Handler processes one delivery and reports its disposition.
type Handler func(ctx context.Context, msg Message) Result
