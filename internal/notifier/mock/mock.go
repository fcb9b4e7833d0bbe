// Package mock provides a notification channel that logs and always
// succeeds. It is intended for development and testing purposes.
package mock

import (
	"context"
	"log/slog"
	"time"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

// Channel logs notifications instead of delivering them. It simulates a
// 10ms delay to mimic real sending latency.
type Channel struct {
	name   string
	logger *slog.Logger
}

// New creates a mock channel masquerading as the given channel name.
func New(name string, logger *slog.Logger) *Channel {
	return &Channel{
		name:   name,
		logger: logger,
	}
}

// Name returns the name of this channel.
func (c *Channel) Name() string {
	return "mock-" + c.name
}

// SendOrderConfirmation logs the order confirmation.
func (c *Channel) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	time.Sleep(10 * time.Millisecond)

	c.logger.InfoContext(ctx, "mock channel: order confirmation sent",
		slog.String("channel", c.name),
		slog.String("order_id", order.ID),
		slog.String("customer_id", order.CustomerID),
		slog.String("payment_method", order.PaymentMethod),
		slog.Int64("total_cents", order.TotalCents),
	)
	return nil
}

// SendPaymentApproved logs the payment approval notice.
func (c *Channel) SendPaymentApproved(ctx context.Context, order *domain.Order) error {
	time.Sleep(10 * time.Millisecond)

	c.logger.InfoContext(ctx, "mock channel: payment approved notice sent",
		slog.String("channel", c.name),
		slog.String("order_id", order.ID),
		slog.String("customer_id", order.CustomerID),
	)
	return nil
}
