package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/imrishuroy/go-order-fulfillment/internal/aws"
	"github.com/imrishuroy/go-order-fulfillment/internal/validation"
)

// HandlerConfig groups dependencies for the API routes.
type HandlerConfig struct {
	SFNClient       aws.SFNAPI
	StateMachineARN string
}

// SetupRouter builds the gin engine: health check, order submission, and a
// JSON 404 for unknown routes.
func SetupRouter(cfg HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"message":   "order fulfillment API is running",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	RegisterOrderRoutes(r, cfg)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
	})

	return r
}

// RegisterOrderRoutes registers POST /order. Submission only hands the
// record to the orchestrator; the caller sees accept/reject here and polls
// final order status through a separate channel.
func RegisterOrderRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()

	r.POST("/order", func(c *gin.Context) {
		ctx := c.Request.Context()

		var req validation.SubmitOrderRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		input, err := json.Marshal(gin.H{"order": req.Record()})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process order"})
			return
		}

		name := "order-" + uuid.NewString()
		out, err := cfg.SFNClient.StartExecution(ctx, &sfn.StartExecutionInput{
			StateMachineArn: &cfg.StateMachineARN,
			Name:            &name,
			Input:           stringPtr(string(input)),
		})
		if err != nil {
			log.Printf("[api] start execution failed customer=%s: %v", req.CustomerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process order"})
			return
		}

		executionARN := ""
		if out.ExecutionArn != nil {
			executionARN = *out.ExecutionArn
		}
		log.Printf("[api] workflow started customer=%s execution=%s", req.CustomerID, executionARN)

		c.JSON(http.StatusAccepted, gin.H{
			"message":       "Order received and processing started",
			"execution_arn": executionARN,
			"customer_id":   req.CustomerID,
		})
	})
}

func stringPtr(s string) *string { return &s }
