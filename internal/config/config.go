// Package config reads component configuration from the environment.
// Routing targets (table names, queue URLs, the state machine ARN) are
// required at invocation start; a missing one aborts before anything is
// partially written.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env var names shared by the Lambda entrypoints.
const (
	EnvOrdersTable       = "ORDERS_TABLE_NAME"
	EnvFailedOrdersTable = "FAILED_ORDERS_TABLE_NAME"
	EnvQueueURL          = "ORDERS_QUEUE_URL"
	EnvStateMachineARN   = "STATE_MACHINE_ARN"
	EnvMetricsNamespace  = "METRICS_NAMESPACE"
	EnvSuccessRate       = "FULFILLMENT_SUCCESS_RATE"
	EnvRunLocal          = "RUN_LOCAL"
)

// MissingVarError reports a required environment variable that was not set.
type MissingVarError struct {
	Var string
}

func (e *MissingVarError) Error() string {
	return fmt.Sprintf("required environment variable %s not set", e.Var)
}

// Require returns the value of name or a MissingVarError if unset/empty.
func Require(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", &MissingVarError{Var: name}
	}
	return v, nil
}

// Optional returns the value of name, or fallback if unset.
func Optional(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

// SuccessRate returns the configured fulfillment success probability,
// defaulting to 0.7. Values outside (0, 1] fall back to the default.
func SuccessRate() float64 {
	raw := os.Getenv(EnvSuccessRate)
	if raw == "" {
		return 0.7
	}
	p, err := strconv.ParseFloat(raw, 64)
	if err != nil || p <= 0 || p > 1 {
		return 0.7
	}
	return p
}

// RunLocal reports whether the process should run in local development mode.
// In local mode a .env file is loaded first if present.
func RunLocal() bool {
	if os.Getenv(EnvRunLocal) != "true" {
		return false
	}
	// best effort: ignore a missing .env, developers may export vars directly
	_ = godotenv.Load(".env")
	return true
}
