package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
)

// SQSQueue implements Queue on top of SQS. Visibility-window redelivery,
// max_receive_count and the dead-letter move are owned by the queue's
// redrive policy, not by this process.
type SQSQueue struct {
	client    aws.SQSAPI
	publisher *aws.Publisher
	queueURL  string
	waitTime  int32
}

// NewSQSQueue returns a queue bound to queueURL.
func NewSQSQueue(client aws.SQSAPI, queueURL string) *SQSQueue {
	return &SQSQueue{
		client:    client,
		publisher: aws.NewPublisher(client, queueURL),
		queueURL:  queueURL,
		waitTime:  5,
	}
}

// Enqueue sends body with string message attributes.
func (q *SQSQueue) Enqueue(ctx context.Context, body string, attrs map[string]string) (string, error) {
	return q.publisher.SendOrderMessage(ctx, body, attrs)
}

// Receive polls for a single message, requesting the approximate receive
// count so callers see the delivery attempt number.
func (q *SQSQueue) Receive(ctx context.Context) (*Message, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &q.queueURL,
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     q.waitTime,
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
			sqstypes.MessageSystemAttributeNameApproximateReceiveCount,
		},
		MessageAttributeNames: []string{"All"},
	})
	if err != nil {
		return nil, fmt.Errorf("receive message: %w", err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	m := out.Messages[0]
	msg := &Message{
		ReceiveCount: 1,
		Attributes:   map[string]string{},
	}
	if m.MessageId != nil {
		msg.MessageID = *m.MessageId
	}
	if m.Body != nil {
		msg.Body = *m.Body
	}
	if m.ReceiptHandle != nil {
		msg.ReceiptHandle = *m.ReceiptHandle
	}
	if rc, ok := m.Attributes[string(sqstypes.MessageSystemAttributeNameApproximateReceiveCount)]; ok {
		if n, err := strconv.Atoi(rc); err == nil && n > 0 {
			msg.ReceiveCount = n
		}
	}
	for k, v := range m.MessageAttributes {
		if v.StringValue != nil {
			msg.Attributes[k] = *v.StringValue
		}
	}
	return msg, nil
}

// Acknowledge deletes the delivery behind msg's receipt handle.
func (q *SQSQueue) Acknowledge(ctx context.Context, msg *Message) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &q.queueURL,
		ReceiptHandle: &msg.ReceiptHandle,
	})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	return nil
}
