package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/event"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway"
	"github.com/FernandoCarrilho/Ve-Joias/internal/notifier"
	"github.com/FernandoCarrilho/Ve-Joias/internal/repository"
)

// ReconcilerService settles order statuses against the payment
// provider. Webhooks trigger it; the provider's answer, not the webhook
// payload, is what gets applied.
type ReconcilerService struct {
	orders   repository.OrderStore
	gateway  gateway.PaymentGateway
	producer *event.Producer
	channels []notifier.Channel
	logger   *slog.Logger
}

// NewReconcilerService creates a reconciler.
func NewReconcilerService(
	orders repository.OrderStore,
	gw gateway.PaymentGateway,
	producer *event.Producer,
	channels []notifier.Channel,
	logger *slog.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		orders:   orders,
		gateway:  gw,
		producer: producer,
		channels: channels,
		logger:   logger,
	}
}

// Reconcile verifies the payment with the provider and moves the
// matching order accordingly. Unknown references, already-settled
// orders, illegal transitions and concurrent updates are all quiet
// no-ops: webhooks retry and arrive out of order, so only a failure to
// reach our own dependencies is worth surfacing.
func (s *ReconcilerService) Reconcile(ctx context.Context, transactionRef string) error {
	if transactionRef == "" {
		return apperrors.InvalidInput("transaction reference is required")
	}

	verified, err := s.gateway.VerifyStatus(ctx, transactionRef)
	if err != nil {
		return fmt.Errorf("verify payment %s: %w", transactionRef, err)
	}

	order, err := s.orders.GetByTransactionRef(ctx, transactionRef)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Webhook for a payment we never recorded, e.g. a checkout
			// that charged but failed to persist. Nothing to update.
			s.logger.WarnContext(ctx, "webhook for unknown transaction",
				slog.String("transaction_ref", transactionRef),
				slog.String("provider_status", verified.Status),
			)
			return nil
		}
		return fmt.Errorf("get order by transaction ref: %w", err)
	}

	target, err := domain.OrderStatusFromProvider(verified.Status)
	if err != nil {
		return fmt.Errorf("map provider status: %w", err)
	}

	if order.Status == target {
		return nil
	}

	if !order.CanTransitionTo(target) {
		// E.g. a late refund on a delivered order. The state machine
		// wins; the order stays put.
		s.logger.WarnContext(ctx, "reconciliation skipped: illegal transition",
			slog.String("order_id", order.ID),
			slog.String("from_status", order.Status),
			slog.String("to_status", target),
			slog.String("provider_status", verified.Status),
		)
		return nil
	}

	if err := s.orders.UpdateStatusIfCurrent(ctx, order.ID, target, order.Status); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// Another reconciliation won the race. Its view is as fresh
			// as ours; let it stand.
			s.logger.InfoContext(ctx, "reconciliation lost concurrent update",
				slog.String("order_id", order.ID),
				slog.String("to_status", target),
			)
			return nil
		}
		return fmt.Errorf("update order status: %w", err)
	}

	s.logger.InfoContext(ctx, "order status reconciled",
		slog.String("order_id", order.ID),
		slog.String("from_status", order.Status),
		slog.String("to_status", target),
		slog.String("transaction_ref", transactionRef),
	)

	from := order.Status
	order.Status = target

	if err := s.producer.PublishOrderStatusChanged(ctx, order, from, target); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	if target == domain.StatusPaid {
		for _, ch := range s.channels {
			if err := ch.SendPaymentApproved(ctx, order); err != nil {
				s.logger.WarnContext(ctx, "payment approved notification failed",
					slog.String("order_id", order.ID),
					slog.String("channel", ch.Name()),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := s.producer.PublishPaymentApproved(ctx, order); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish order.payment_approved event",
				slog.String("order_id", order.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}
