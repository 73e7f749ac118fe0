package orders

import "time"

// Order statuses. Transitions are monotonic along
// PENDING -> FULFILLING -> {FULFILLED | FAILED}; FAILED written by the
// worker is provisional until retries are exhausted.
const (
	StatusPending    = "PENDING"
	StatusFulfilling = "FULFILLING"
	StatusFulfilled  = "FULFILLED"
	StatusFailed     = "FAILED"
)

// LineItem is a single order line.
type LineItem struct {
	ProductID string  `dynamodbav:"product_id" json:"product_id"`
	Quantity  int     `dynamodbav:"quantity" json:"quantity"`
	Price     float64 `dynamodbav:"price" json:"price"`
}

// Order represents the item stored in the orders DynamoDB table.
type Order struct {
	OrderID         string         `dynamodbav:"order_id" json:"order_id"` // PK
	CustomerID      string         `dynamodbav:"customer_id" json:"customer_id"`
	Items           []LineItem     `dynamodbav:"items" json:"items"`
	TotalAmount     float64        `dynamodbav:"total_amount" json:"total_amount"`
	ShippingAddress map[string]any `dynamodbav:"shipping_address,omitempty" json:"shipping_address,omitempty"`
	Status          string         `dynamodbav:"status" json:"status"`
	CreatedAt       time.Time      `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `dynamodbav:"updated_at" json:"updated_at"`
	FulfilledAt     *time.Time     `dynamodbav:"fulfilled_at,omitempty" json:"fulfilled_at,omitempty"`
	FailedAt        *time.Time     `dynamodbav:"failed_at,omitempty" json:"failed_at,omitempty"`
}

// QueuePayload is the projection of an Order carried on the fulfillment
// queue. The live table keeps the full record; the queue only needs enough
// to process and to build a failed-order record.
type QueuePayload struct {
	OrderID     string  `json:"order_id"`
	CustomerID  string  `json:"customer_id"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
}

// ToQueuePayload projects o onto the queue message shape.
func ToQueuePayload(o *Order) QueuePayload {
	return QueuePayload{
		OrderID:     o.OrderID,
		CustomerID:  o.CustomerID,
		TotalAmount: o.TotalAmount,
		Status:      o.Status,
		CreatedAt:   o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// FromRecord builds an Order from a loosely-typed submission record. The
// record is assumed to have passed validation; fields with unexpected types
// are dropped rather than failing the conversion.
func FromRecord(rec map[string]any) Order {
	var o Order
	if s, ok := rec["order_id"].(string); ok {
		o.OrderID = s
	}
	if s, ok := rec["customer_id"].(string); ok {
		o.CustomerID = s
	}
	if n, ok := toFloat(rec["total_amount"]); ok {
		o.TotalAmount = n
	}
	if addr, ok := rec["shipping_address"].(map[string]any); ok {
		o.ShippingAddress = addr
	}
	items, _ := rec["items"].([]any)
	for _, raw := range items {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		var it LineItem
		if s, ok := m["product_id"].(string); ok {
			it.ProductID = s
		}
		if n, ok := toFloat(m["quantity"]); ok {
			it.Quantity = int(n)
		}
		if n, ok := toFloat(m["price"]); ok {
			it.Price = n
		}
		o.Items = append(o.Items, it)
	}
	return o
}

func toFloat(v any) (float64, bool) {
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
