package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/event"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway"
	"github.com/FernandoCarrilho/Ve-Joias/internal/notifier"
	"github.com/FernandoCarrilho/Ve-Joias/internal/repository"
)

// defaultChargeTimeout bounds the synchronous call to the payment
// provider. A charge that exceeds it is treated as a payment failure,
// never as a reason to keep the customer waiting.
const defaultChargeTimeout = 15 * time.Second

// CheckoutService orchestrates the checkout flow: cart to charged,
// persisted order.
type CheckoutService struct {
	carts         repository.CartStore
	catalog       repository.CatalogStore
	orders        repository.OrderStore
	gateway       gateway.PaymentGateway
	producer      *event.Producer
	channels      []notifier.Channel
	logger        *slog.Logger
	chargeTimeout time.Duration
}

// NewCheckoutService creates a checkout service. A non-positive
// chargeTimeout falls back to the default.
func NewCheckoutService(
	carts repository.CartStore,
	catalog repository.CatalogStore,
	orders repository.OrderStore,
	gw gateway.PaymentGateway,
	producer *event.Producer,
	channels []notifier.Channel,
	logger *slog.Logger,
	chargeTimeout time.Duration,
) *CheckoutService {
	if chargeTimeout <= 0 {
		chargeTimeout = defaultChargeTimeout
	}
	return &CheckoutService{
		carts:         carts,
		catalog:       catalog,
		orders:        orders,
		gateway:       gw,
		producer:      producer,
		channels:      channels,
		logger:        logger,
		chargeTimeout: chargeTimeout,
	}
}

// CheckoutInput holds the parameters for placing an order.
type CheckoutInput struct {
	CustomerEmail   string `json:"customer_email" validate:"required,email"`
	DeliveryAddress string `json:"delivery_address" validate:"required"`
	ContactPhone    string `json:"contact_phone" validate:"required,e164"`
	PaymentMethod   string `json:"payment_method" validate:"required,oneof=pix boleto credit_card"`
	CardToken       string `json:"card_token,omitempty"`
}

// Checkout turns the customer's cart into an order. The flow charges
// the payment provider first and only then persists; the conditional
// stock decrement inside the order transaction is the authoritative
// oversell guard, the earlier read is just a fast reject.
func (s *CheckoutService) Checkout(ctx context.Context, customerID string, input *CheckoutInput) (*domain.Order, error) {
	if customerID == "" {
		return nil, apperrors.InvalidInput("customer id is required")
	}
	if input == nil {
		return nil, apperrors.InvalidInput("checkout input is required")
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown payment method %q", input.PaymentMethod))
	}
	if input.PaymentMethod == domain.MethodCreditCard && input.CardToken == "" {
		return nil, apperrors.InvalidInput("card_token is required for credit card payments")
	}

	cart, err := s.carts.Get(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get cart for checkout: %w", err)
	}
	if cart.IsEmpty() {
		return nil, apperrors.CartEmpty()
	}

	order, err := s.buildOrder(ctx, customerID, cart, input)
	if err != nil {
		return nil, err
	}

	if err := s.charge(ctx, order, input.CardToken); err != nil {
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientStock) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "order persistence failed after charge",
			slog.String("order_id", order.ID),
			slog.String("transaction_ref", order.TransactionRef),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.PersistenceFailure(err)
	}

	// Cart clear is best-effort: a leftover cart is an annoyance, a lost
	// order would be a defect.
	if err := s.carts.Clear(ctx, customerID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after checkout",
			slog.String("customer_id", customerID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.notifyOrderConfirmation(ctx, order)

	if err := s.producer.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if order.Status == domain.StatusPaid {
		s.notifyPaymentApproved(ctx, order)
		if err := s.producer.PublishPaymentApproved(ctx, order); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.payment_approved event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", order.ID),
		slog.String("customer_id", customerID),
		slog.String("status", order.Status),
		slog.String("payment_method", order.PaymentMethod),
		slog.Int64("total_cents", order.TotalCents),
	)

	return order, nil
}

// buildOrder snapshots the cart into immutable line items at current
// catalog prices and pre-checks stock for a fast reject.
func (s *CheckoutService) buildOrder(ctx context.Context, customerID string, cart *domain.Cart, input *CheckoutInput) (*domain.Order, error) {
	ids := make([]string, len(cart.Items))
	for i, item := range cart.Items {
		ids[i] = item.ProductID
	}

	products, err := s.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get products for checkout: %w", err)
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:              uuid.New().String(),
		CustomerID:      customerID,
		CustomerEmail:   input.CustomerEmail,
		Status:          domain.StatusAwaitingPayment,
		DeliveryAddress: input.DeliveryAddress,
		ContactPhone:    input.ContactPhone,
		PaymentMethod:   input.PaymentMethod,
		Items:           make([]domain.LineItem, 0, len(cart.Items)),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	for _, item := range cart.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, apperrors.NotFound("product", item.ProductID)
		}
		if product.Stock < item.Quantity {
			return nil, apperrors.InsufficientStock(product.Name, item.Quantity, product.Stock)
		}
		order.Items = append(order.Items, domain.NewLineItem(uuid.New().String(), order.ID, product, item.Quantity))
	}
	order.TotalCents = domain.TotalCents(order.Items)

	return order, nil
}

// charge calls the payment provider under a timeout. Any failure,
// including the timeout, reads as a payment failure: the charge may or
// may not have landed, and reconciliation will settle it, but we never
// persist an order for a charge we could not confirm.
func (s *CheckoutService) charge(ctx context.Context, order *domain.Order, cardToken string) error {
	chargeCtx, cancel := context.WithTimeout(ctx, s.chargeTimeout)
	defer cancel()

	result, err := s.gateway.Charge(chargeCtx, &gateway.ChargeInput{
		OrderID:       order.ID,
		AmountCents:   order.TotalCents,
		Method:        order.PaymentMethod,
		CustomerEmail: order.CustomerEmail,
		Description:   "Ve Joias pedido " + order.ID,
		CardToken:     cardToken,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "payment charge failed",
			slog.String("order_id", order.ID),
			slog.String("payment_method", order.PaymentMethod),
			slog.String("error", err.Error()),
		)
		return apperrors.PaymentFailed(err)
	}

	if result.Status == domain.ProviderRejected || result.Status == domain.ProviderRefunded {
		s.logger.InfoContext(ctx, "payment charge rejected by provider",
			slog.String("order_id", order.ID),
			slog.String("provider_status", result.Status),
		)
		return apperrors.PaymentFailed(fmt.Errorf("provider returned status %q", result.Status))
	}

	status, err := domain.OrderStatusFromProvider(result.Status)
	if err != nil {
		return apperrors.PaymentFailed(err)
	}

	order.Status = status
	order.TransactionRef = result.TransactionRef
	order.PaymentURL = result.PaymentURL
	order.UpdatedAt = time.Now().UTC()

	return nil
}

// notifyOrderConfirmation fans the confirmation out to every channel.
// Failures are logged per channel and never bubble up.
func (s *CheckoutService) notifyOrderConfirmation(ctx context.Context, order *domain.Order) {
	for _, ch := range s.channels {
		if err := ch.SendOrderConfirmation(ctx, order); err != nil {
			s.logger.WarnContext(ctx, "order confirmation notification failed",
				slog.String("order_id", order.ID),
				slog.String("channel", ch.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (s *CheckoutService) notifyPaymentApproved(ctx context.Context, order *domain.Order) {
	for _, ch := range s.channels {
		if err := ch.SendPaymentApproved(ctx, order); err != nil {
			s.logger.WarnContext(ctx, "payment approved notification failed",
				slog.String("order_id", order.ID),
				slog.String("channel", ch.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}
