package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
	"github.com/imrishuroy/go-order-fulfillment/internal/config"
	"github.com/imrishuroy/go-order-fulfillment/internal/fulfillment"
	"github.com/imrishuroy/go-order-fulfillment/internal/metrics"
	"github.com/imrishuroy/go-order-fulfillment/internal/orders"
	"github.com/imrishuroy/go-order-fulfillment/internal/queue"
)

func main() {
	ctx := context.Background()
	runLocal := config.RunLocal()

	clients, err := aws.NewAWSClients(ctx)
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	ordersTable, err := config.Require(config.EnvOrdersTable)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	worker := fulfillment.NewWorker(
		orders.NewStore(clients.DynamoDB, ordersTable),
		fulfillment.RandomSource{},
		config.SuccessRate(),
		metrics.NewEmitter(clients.CloudWatch, config.Optional(config.EnvMetricsNamespace, "OrderFulfillment")),
	)

	if runLocal {
		// simulate a single SQS event, or poll the real queue through the
		// queue contract when no body is supplied
		if body := os.Getenv("LOCAL_SQS_BODY"); body != "" {
			ev := events.SQSEvent{
				Records: []events.SQSMessage{{Body: body}},
			}
			if err := worker.HandleSQSEvent(ctx, ev); err != nil {
				log.Fatalf("local handler error: %v", err)
			}
			return
		}
		queueURL, err := config.Require(config.EnvQueueURL)
		if err != nil {
			log.Fatalf("configuration error: %v", err)
		}
		q := queue.NewSQSQueue(clients.SQS, queueURL)
		if err := queue.Poll(ctx, q, worker.Process, 2*time.Second); err != nil {
			log.Fatalf("local poll error: %v", err)
		}
		return
	}

	lambda.Start(worker.HandleSQSEvent)
}
