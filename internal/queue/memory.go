package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memEntry struct {
	id             string
	body           string
	attrs          map[string]string
	receiveCount   int
	invisibleUntil time.Time
	receiptHandle  string
	// set on dead-lettered entries: receive_count stays frozen at the value
	// that exceeded the threshold instead of counting DLQ deliveries
	frozen bool
}

// MemoryQueue implements the Queue contract in memory: single message per
// Receive, visibility-window redelivery with an incrementing receive count,
// and a dead-letter move owned by the queue once max_receive_count is
// exceeded. Safe for concurrent use.
type MemoryQueue struct {
	mu              sync.Mutex
	entries         []*memEntry
	maxReceiveCount int
	visibility      time.Duration
	deadLetters     *MemoryQueue
	nowFunc         func() time.Time
}

// NewMemoryQueue returns a queue whose messages are redelivered after
// visibility elapses, up to maxReceiveCount deliveries; the delivery that
// would exceed the limit is turned into a dead-letter move instead. The
// dead-letter destination is itself a MemoryQueue with unbounded
// redelivery, reachable via DeadLetters.
func NewMemoryQueue(maxReceiveCount int, visibility time.Duration) *MemoryQueue {
	return &MemoryQueue{
		maxReceiveCount: maxReceiveCount,
		visibility:      visibility,
		deadLetters: &MemoryQueue{
			visibility: visibility,
			nowFunc:    time.Now,
		},
		nowFunc: time.Now,
	}
}

// DeadLetters is the dead-letter destination fed by this queue.
func (q *MemoryQueue) DeadLetters() *MemoryQueue { return q.deadLetters }

// SetNow injects a clock for tests; it also rewires the dead-letter queue.
func (q *MemoryQueue) SetNow(now func() time.Time) {
	q.nowFunc = now
	if q.deadLetters != nil {
		q.deadLetters.nowFunc = now
	}
}

// Enqueue appends a message and returns its id.
func (q *MemoryQueue) Enqueue(ctx context.Context, body string, attrs map[string]string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := &memEntry{
		id:    uuid.NewString(),
		body:  body,
		attrs: copyAttrs(attrs),
	}
	q.entries = append(q.entries, e)
	return e.id, nil
}

// Receive delivers the first visible message, if any. Entries whose
// redelivery would exceed max_receive_count are moved to the dead-letter
// destination instead of being delivered again.
func (q *MemoryQueue) Receive(ctx context.Context) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := q.nowFunc()

	for i := 0; i < len(q.entries); {
		e := q.entries[i]
		if now.Before(e.invisibleUntil) {
			i++
			continue
		}
		if q.maxReceiveCount > 0 && e.receiveCount >= q.maxReceiveCount {
			// retries exhausted; this transition belongs to the queue, never
			// to the consumer
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			e.frozen = true
			e.invisibleUntil = time.Time{}
			e.receiptHandle = ""
			q.deadLetters.push(e)
			continue
		}
		if !e.frozen {
			e.receiveCount++
		}
		e.invisibleUntil = now.Add(q.visibility)
		e.receiptHandle = uuid.NewString()
		return &Message{
			MessageID:     e.id,
			Body:          e.body,
			Attributes:    copyAttrs(e.attrs),
			ReceiveCount:  e.receiveCount,
			ReceiptHandle: e.receiptHandle,
		}, nil
	}
	return nil, nil
}

// Acknowledge removes the entry behind msg's receipt handle. Acknowledging
// an already-removed or expired delivery is a no-op.
func (q *MemoryQueue) Acknowledge(ctx context.Context, msg *Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, e := range q.entries {
		if e.id == msg.MessageID && e.receiptHandle == msg.ReceiptHandle {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// Len reports the number of live entries.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.entries)
}

func (q *MemoryQueue) push(e *memEntry) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.entries = append(q.entries, e)
}

func copyAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}
