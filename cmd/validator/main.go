package main

import (
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/imrishuroy/go-order-fulfillment/internal/pipeline"
)

func main() {
	lambda.Start(pipeline.ValidateStep)
}
