// Package notifier defines the customer notification port. Concrete
// channels (email, WhatsApp, mock) live in subpackages. Delivery is
// best-effort: a failed notification never fails the operation that
// triggered it.
package notifier

import (
	"context"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

// Channel sends order lifecycle notifications to the customer.
type Channel interface {
	// Name identifies the channel in logs (e.g., "email", "whatsapp").
	Name() string

	// SendOrderConfirmation notifies the customer that the order was
	// placed. For delayed payment methods the message carries the
	// payment URL the customer must act on.
	SendOrderConfirmation(ctx context.Context, order *domain.Order) error

	// SendPaymentApproved notifies the customer that payment cleared.
	SendPaymentApproved(ctx context.Context, order *domain.Order) error
}
