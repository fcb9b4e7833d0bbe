package domain

import "time"

// Order status constants. StatusAwaitingPayment only exists while the
// gateway charge is in flight; it is never persisted.
const (
	StatusAwaitingPayment = "awaiting_payment"
	StatusPending         = "pending"
	StatusPaid            = "paid"
	StatusProcessing      = "processing"
	StatusShipped         = "shipped"
	StatusDelivered       = "delivered"
	StatusCanceled        = "canceled"
)

// Order is the durable record of a completed checkout. Items are snapshots
// frozen at checkout time; only the status field changes afterwards.
type Order struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customer_id"`
	CustomerEmail   string     `json:"customer_email"`
	Status          string     `json:"status"`
	Items           []LineItem `json:"items"`
	TotalCents      int64      `json:"total_cents"`
	DeliveryAddress string     `json:"delivery_address"`
	ContactPhone    string     `json:"contact_phone"`
	PaymentMethod   string     `json:"payment_method"`
	TransactionRef  string     `json:"transaction_ref,omitempty"`
	PaymentURL      string     `json:"payment_url,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// LineItem is an immutable snapshot of one purchased product: name and unit
// price are copied at checkout time and never track later catalog changes.
type LineItem struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	Quantity       int    `json:"quantity"`
	SubtotalCents  int64  `json:"subtotal_cents"`
}

// NewLineItem snapshots a product at its current price. The subtotal is
// computed once, in integer cents.
func NewLineItem(id, orderID string, p *Product, quantity int) LineItem {
	return LineItem{
		ID:             id,
		OrderID:        orderID,
		ProductID:      p.ID,
		ProductName:    p.Name,
		UnitPriceCents: p.PriceCents,
		Quantity:       quantity,
		SubtotalCents:  p.PriceCents * int64(quantity),
	}
}

// TotalCents sums the item subtotals.
func TotalCents(items []LineItem) int64 {
	var total int64
	for _, it := range items {
		total += it.SubtotalCents
	}
	return total
}

// StorableStatuses returns every status an order may be persisted with.
func StorableStatuses() []string {
	return []string{
		StatusPending,
		StatusPaid,
		StatusProcessing,
		StatusShipped,
		StatusDelivered,
		StatusCanceled,
	}
}

// IsValidStatus checks whether a status string may be stored.
func IsValidStatus(status string) bool {
	for _, s := range StorableStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether the status admits no further transitions.
func IsTerminalStatus(status string) bool {
	return status == StatusCanceled || status == StatusDelivered
}

// AllowedTransitions defines the legal status graph: pending resolves to
// paid or canceled via reconciliation, fulfilment progresses one step at a
// time, and any non-terminal status may be canceled.
func AllowedTransitions() map[string][]string {
	return map[string][]string{
		StatusPending:    {StatusPaid, StatusCanceled},
		StatusPaid:       {StatusProcessing, StatusCanceled},
		StatusProcessing: {StatusShipped, StatusCanceled},
		StatusShipped:    {StatusDelivered, StatusCanceled},
		StatusDelivered:  {},
		StatusCanceled:   {},
	}
}

// CanTransitionTo checks whether the order may move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
