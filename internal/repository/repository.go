// Package repository defines the persistence ports consumed by the
// services. Postgres and Redis adapters live in subpackages.
package repository

import (
	"context"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

// OrderFilter defines filter criteria for listing orders.
type OrderFilter struct {
	CustomerID *string
	Status     *string
	Limit      int
	Offset     int
}

// OrderStore persists orders and their line-item snapshots.
type OrderStore interface {
	// Create inserts the order with its items and decrements stock for
	// every line, all in one transaction. The conditional decrement is the
	// authoritative stock guard: when any product has insufficient stock
	// the whole transaction rolls back and an insufficient-stock error is
	// returned.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order with its items.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// GetByTransactionRef retrieves the order holding the given payment
	// transaction reference.
	GetByTransactionRef(ctx context.Context, ref string) (*domain.Order, error)

	// List returns orders matching the filter plus the total count.
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, int, error)

	// UpdateStatusIfCurrent sets the order status to next only if the
	// stored status still equals expected (compare-and-swap). Returns
	// ErrConflict when the row exists but the status moved, ErrNotFound
	// when no such order exists.
	UpdateStatusIfCurrent(ctx context.Context, id, next, expected string) error
}

// CatalogStore reads products. Stock writes happen only through
// OrderStore.Create.
type CatalogStore interface {
	// GetByID retrieves a single product.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByIDs retrieves several products in one query, keyed by ID.
	// Missing IDs are simply absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error)
}

// CartStore holds transient customer carts.
type CartStore interface {
	// Get loads the customer's cart, returning an empty cart when none
	// exists yet.
	Get(ctx context.Context, customerID string) (*domain.Cart, error)

	// Save persists the cart.
	Save(ctx context.Context, cart *domain.Cart) error

	// Clear removes the customer's cart.
	Clear(ctx context.Context, customerID string) error
}
