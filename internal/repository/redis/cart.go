// Package redis holds the Redis-backed cart store. Carts are transient
// working state, so they live in Redis with a TTL rather than Postgres.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

const keyPrefix = "cart:"

// CartRepository implements repository.CartStore using Redis.
type CartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a Redis-backed cart store. Saved carts
// expire after ttl of inactivity.
func NewCartRepository(client *redis.Client, ttl time.Duration) *CartRepository {
	return &CartRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a customer's cart. A customer without a stored cart
// gets a fresh empty one, never an error.
func (r *CartRepository) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	key := keyPrefix + customerID

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.NewCart(customerID), nil
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}

	var cart domain.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}

	return &cart, nil
}

// Save persists the cart with the configured TTL.
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	key := keyPrefix + cart.CustomerID

	cart.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}

	return nil
}

// Clear removes the customer's cart. Clearing an absent cart is a no-op.
func (r *CartRepository) Clear(ctx context.Context, customerID string) error {
	key := keyPrefix + customerID

	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}

	return nil
}
