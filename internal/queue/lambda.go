package queue

import (
	"strconv"

	"github.com/aws/aws-lambda-go/events"
)

// FromSQSRecord converts a Lambda-delivered SQS record to the queue message
// shape, deriving the receive count from ApproximateReceiveCount.
func FromSQSRecord(rec events.SQSMessage) Message {
	msg := Message{
		MessageID:     rec.MessageId,
		Body:          rec.Body,
		ReceiptHandle: rec.ReceiptHandle,
		ReceiveCount:  1,
		Attributes:    map[string]string{},
	}
	if rc, ok := rec.Attributes["ApproximateReceiveCount"]; ok {
		if n, err := strconv.Atoi(rc); err == nil && n > 0 {
			msg.ReceiveCount = n
		}
	}
	for k, v := range rec.MessageAttributes {
		if v.StringValue != nil {
			msg.Attributes[k] = *v.StringValue
		}
	}
	return msg
}
