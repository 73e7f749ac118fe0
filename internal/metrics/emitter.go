// Package metrics emits best-effort operational counters to CloudWatch.
package metrics

import (
	"context"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
)

// Counter names emitted by the pipeline.
const (
	MetricOrderFulfilled         = "OrderFulfilled"
	MetricOrderFulfillmentFailed = "OrderFulfillmentFailed"
	MetricOrderDeadLettered      = "OrderDeadLettered"
)

// Emitter publishes counters under a namespace. A nil Emitter or nil client
// makes every call a no-op, so components can take metrics optionally.
type Emitter struct {
	client    aws.CloudWatchAPI
	namespace string
	nowFunc   func() time.Time
}

// NewEmitter returns an Emitter bound to namespace.
func NewEmitter(client aws.CloudWatchAPI, namespace string) *Emitter {
	return &Emitter{
		client:    client,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

// Count adds 1 to the named counter. Emission failures are logged and
// swallowed: metrics must never alter pipeline outcomes.
func (e *Emitter) Count(ctx context.Context, name string) {
	if e == nil || e.client == nil {
		return
	}
	now := e.nowFunc()
	one := 1.0
	_, err := e.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &e.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &one,
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  &now,
			},
		},
	})
	if err != nil {
		log.Printf("[metrics] put metric %s failed: %v", name, err)
	}
}
