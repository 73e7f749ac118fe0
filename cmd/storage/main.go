package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
	"github.com/imrishuroy/go-order-fulfillment/internal/config"
	"github.com/imrishuroy/go-order-fulfillment/internal/orders"
	"github.com/imrishuroy/go-order-fulfillment/internal/pipeline"
	"github.com/imrishuroy/go-order-fulfillment/internal/queue"
)

func main() {
	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	ordersTable, err := config.Require(config.EnvOrdersTable)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	queueURL, err := config.Require(config.EnvQueueURL)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	storer := pipeline.NewStorer(
		orders.NewStore(clients.DynamoDB, ordersTable),
		queue.NewSQSQueue(clients.SQS, queueURL),
	)

	lambda.Start(storer.StoreAndEnqueue)
}
