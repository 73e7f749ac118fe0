package queue

import (
	"context"
	"log"
	"time"
)

// Drain receives and dispatches messages until the queue reports empty.
// Retry dispositions leave the message unacknowledged for redelivery.
func Drain(ctx context.Context, q Queue, h Handler) error {
	for {
		msg, err := q.Receive(ctx)
		if err != nil {
			return err
		}
		if msg == nil {
			return nil
		}
		dispatch(ctx, q, h, msg)
	}
}

// Poll runs a receive loop until ctx is cancelled, sleeping idleWait when
// the queue is empty. Used by the local worker mode; in deployment the
// Lambda event source mapping does the polling.
func Poll(ctx context.Context, q Queue, h Handler, idleWait time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		msg, err := q.Receive(ctx)
		if err != nil {
			return err
		}
		if msg == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(idleWait):
			}
			continue
		}
		dispatch(ctx, q, h, msg)
	}
}

func dispatch(ctx context.Context, q Queue, h Handler, msg *Message) {
	res := h(ctx, *msg)
	if res.Disposition == Retry {
		log.Printf("[queue] message=%s attempt=%d left for redelivery: %v",
			msg.MessageID, msg.ReceiveCount, res.Err)
		return
	}
	if err := q.Acknowledge(ctx, msg); err != nil {
		// at-least-once: a lost ack only means one more delivery
		log.Printf("[queue] acknowledge message=%s failed: %v", msg.MessageID, err)
	}
}
