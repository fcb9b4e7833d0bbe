package domain

import "time"

// Product is a catalog entry. The checkout flow reads it for current price
// and stock; the only write the core performs is the conditional stock
// decrement when an order commits.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Stock      int       `json:"stock"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
