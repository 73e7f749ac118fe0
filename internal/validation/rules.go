package validation

import "fmt"

// Result is the verdict of the order validator. Valid is true iff Errors
// is empty.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate applies the order validation rules exhaustively and collects
// every violation instead of short-circuiting on the first one. It is pure:
// no I/O, no side effects, identical output for identical input. The record
// is loosely typed so malformed or missing fields are reported as errors,
// never as failures of the validator itself.
func Validate(order map[string]any) Result {
	var errs []string

	if s, ok := order["customer_id"].(string); !ok || s == "" {
		errs = append(errs, "Missing required field: customer_id")
	}

	items, ok := order["items"].([]any)
	if !ok || len(items) == 0 {
		errs = append(errs, "Items must be a non-empty array")
	} else {
		for i, raw := range items {
			item, _ := raw.(map[string]any)
			if s, ok := item["product_id"].(string); !ok || s == "" {
				errs = append(errs, fmt.Sprintf("Item %d: missing product_id", i))
			}
			if q, ok := asNumber(item["quantity"]); !ok || q <= 0 {
				errs = append(errs, fmt.Sprintf("Item %d: quantity must be positive number", i))
			}
			if p, ok := asNumber(item["price"]); !ok || p < 0 {
				errs = append(errs, fmt.Sprintf("Item %d: price must be non-negative number", i))
			}
		}
	}

	if amt, ok := asNumber(order["total_amount"]); !ok || amt <= 0 {
		errs = append(errs, "total_amount must be positive number")
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// asNumber accepts the numeric shapes a decoded JSON record can carry.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
