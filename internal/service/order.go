package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/pagination"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/event"
	"github.com/FernandoCarrilho/Ve-Joias/internal/repository"
)

// OrderService implements order queries and manual fulfillment status
// updates.
type OrderService struct {
	orders   repository.OrderStore
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates an order service.
func NewOrderService(orders repository.OrderStore, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		producer: producer,
		logger:   logger,
	}
}

// Get retrieves an order owned by the customer. Another customer's
// order reads as not found, never as forbidden.
func (s *OrderService) Get(ctx context.Context, customerID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.CustomerID != customerID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

// List returns the customer's orders, newest first, optionally filtered
// by status.
func (s *OrderService) List(ctx context.Context, customerID string, status string, params pagination.Params) (*pagination.Result[domain.Order], error) {
	filter := repository.OrderFilter{
		CustomerID: &customerID,
		Limit:      params.PerPage,
		Offset:     params.Offset,
	}
	if status != "" {
		if !domain.IsValidStatus(status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", status))
		}
		filter.Status = &status
	}

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	result := pagination.NewResult(orders, total, params)
	return &result, nil
}

// UpdateStatus applies a fulfillment transition (paid to processing,
// processing to shipped, and so on). The state machine gates it and the
// compare-and-swap write keeps concurrent updates from skipping steps.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, next string) (*domain.Order, error) {
	if !domain.IsValidStatus(next) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status %q", next))
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order for status update: %w", err)
	}

	if order.Status == next {
		return order, nil
	}

	if !order.CanTransitionTo(next) {
		return nil, apperrors.InvalidTransition(order.Status, next)
	}

	if err := s.orders.UpdateStatusIfCurrent(ctx, orderID, next, order.Status); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, apperrors.Conflict("order status changed concurrently, retry")
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	from := order.Status
	order.Status = next

	if err := s.producer.PublishOrderStatusChanged(ctx, order, from, next); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order status updated",
		slog.String("order_id", orderID),
		slog.String("from_status", from),
		slog.String("to_status", next),
	)

	return order, nil
}
