package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
	"github.com/imrishuroy/go-order-fulfillment/internal/config"
	"github.com/imrishuroy/go-order-fulfillment/internal/deadletter"
	"github.com/imrishuroy/go-order-fulfillment/internal/failedorders"
	"github.com/imrishuroy/go-order-fulfillment/internal/metrics"
	"github.com/imrishuroy/go-order-fulfillment/internal/orders"
)

func main() {
	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	failedTable, err := config.Require(config.EnvFailedOrdersTable)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	ordersTable, err := config.Require(config.EnvOrdersTable)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	router := deadletter.NewRouter(
		failedorders.NewStore(clients.DynamoDB, failedTable),
		orders.NewStore(clients.DynamoDB, ordersTable),
		metrics.NewEmitter(clients.CloudWatch, config.Optional(config.EnvMetricsNamespace, "OrderFulfillment")),
	)

	lambda.Start(router.HandleSQSEvent)
}
