package validation

// SubmitOrderRequest is the payload for POST /order. The front door only
// guards the handoff; the full rule set runs in the validator step.
type SubmitOrderRequest struct {
	OrderID         string         `json:"order_id,omitempty"`
	CustomerID      string         `json:"customer_id" validate:"required"` // business id for customer
	Items           []any          `json:"items,omitempty"`
	TotalAmount     float64        `json:"total_amount,omitempty"`
	ShippingAddress map[string]any `json:"shipping_address,omitempty"`
}

// Record returns the request as the loosely-typed order record passed into
// the workflow.
func (r SubmitOrderRequest) Record() map[string]any {
	rec := map[string]any{
		"customer_id":  r.CustomerID,
		"items":        r.Items,
		"total_amount": r.TotalAmount,
	}
	if r.OrderID != "" {
		rec["order_id"] = r.OrderID
	}
	if r.ShippingAddress != nil {
		rec["shipping_address"] = r.ShippingAddress
	}
	return rec
}
