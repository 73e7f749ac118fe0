package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
	"github.com/imrishuroy/go-order-fulfillment/internal/config"
	"github.com/imrishuroy/go-order-fulfillment/internal/handlers"
)

func main() {
	runLocal := config.RunLocal()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		log.Fatalf("failed to init aws clients: %v", err)
	}

	stateMachineARN, err := config.Require(config.EnvStateMachineARN)
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	r := handlers.SetupRouter(handlers.HandlerConfig{
		SFNClient:       clients.StepFunctions,
		StateMachineARN: stateMachineARN,
	})

	// if RUN_LOCAL=true, run a local HTTP server for development.
	if runLocal {
		addr := ":8080"
		log.Printf("running local server on %s", addr)
		if err := r.Run(addr); err != nil {
			log.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
