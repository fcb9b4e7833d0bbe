// Package event publishes order lifecycle events to Kafka for
// downstream consumers (analytics, fulfillment).
package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/FernandoCarrilho/Ve-Joias/pkg/kafka"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

// Kafka topic constants for order domain events.
const (
	TopicOrderCreated       = "vejoias.order.created"
	TopicOrderStatusChanged = "vejoias.order.status_changed"
	TopicPaymentApproved    = "vejoias.order.payment_approved"
)

// Aggregate type constant.
const AggregateTypeOrder = "order"

// Source identifier for events originating from this service.
const SourceOrderService = "vejoias-orders"

// OrderCreatedData is the payload for an order.created event.
type OrderCreatedData struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customer_id"`
	Status        string            `json:"status"`
	Items         []domain.LineItem `json:"items"`
	TotalCents    int64             `json:"total_cents"`
	PaymentMethod string            `json:"payment_method"`
}

// OrderStatusChangedData is the payload for an order.status_changed event.
type OrderStatusChangedData struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
}

// PaymentApprovedData is the payload for an order.payment_approved event.
type PaymentApprovedData struct {
	ID             string `json:"id"`
	CustomerID     string `json:"customer_id"`
	TotalCents     int64  `json:"total_cents"`
	TransactionRef string `json:"transaction_ref"`
}

// Producer publishes order domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	data := OrderCreatedData{
		ID:            order.ID,
		CustomerID:    order.CustomerID,
		Status:        order.Status,
		Items:         order.Items,
		TotalCents:    order.TotalCents,
		PaymentMethod: order.PaymentMethod,
	}

	event, err := pkgkafka.NewEvent(TopicOrderCreated, order.ID, AggregateTypeOrder, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create order.created event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderCreated, event); err != nil {
		return fmt.Errorf("publish order.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.created event",
		slog.String("order_id", order.ID),
		slog.String("customer_id", order.CustomerID),
	)

	return nil
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, order *domain.Order, from, to string) error {
	data := OrderStatusChangedData{
		ID:         order.ID,
		CustomerID: order.CustomerID,
		FromStatus: from,
		ToStatus:   to,
	}

	event, err := pkgkafka.NewEvent(TopicOrderStatusChanged, order.ID, AggregateTypeOrder, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create order.status_changed event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicOrderStatusChanged, event); err != nil {
		return fmt.Errorf("publish order.status_changed event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.status_changed event",
		slog.String("order_id", order.ID),
		slog.String("from_status", from),
		slog.String("to_status", to),
	)

	return nil
}

// PublishPaymentApproved publishes an order.payment_approved event.
func (p *Producer) PublishPaymentApproved(ctx context.Context, order *domain.Order) error {
	data := PaymentApprovedData{
		ID:             order.ID,
		CustomerID:     order.CustomerID,
		TotalCents:     order.TotalCents,
		TransactionRef: order.TransactionRef,
	}

	event, err := pkgkafka.NewEvent(TopicPaymentApproved, order.ID, AggregateTypeOrder, SourceOrderService, data)
	if err != nil {
		return fmt.Errorf("create order.payment_approved event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicPaymentApproved, event); err != nil {
		return fmt.Errorf("publish order.payment_approved event: %w", err)
	}

	p.logger.DebugContext(ctx, "published order.payment_approved event",
		slog.String("order_id", order.ID),
		slog.String("transaction_ref", order.TransactionRef),
	)

	return nil
}
