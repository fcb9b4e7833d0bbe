// Package postgres implements the order and catalog stores over pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/repository"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/database"
	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
)

// OrderRepository implements repository.OrderStore using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order store.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const decrementStockQuery = `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2`

// Create inserts the order and its items and decrements stock for every
// line, all within one transaction. The conditional UPDATE is the
// authoritative stock guard: a concurrent checkout that drained stock makes
// the decrement match zero rows, rolling back the whole order.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	ctx, end := database.TraceQuery(ctx, "CreateOrder", "INSERT INTO orders")
	var err error
	defer func() { end(err) }()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	orderQuery := `
		INSERT INTO orders (id, customer_id, customer_email, status, total_cents, delivery_address, contact_phone, payment_method, transaction_ref, payment_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.CustomerID,
		o.CustomerEmail,
		o.Status,
		o.TotalCents,
		o.DeliveryAddress,
		o.ContactPhone,
		o.PaymentMethod,
		nullable(o.TransactionRef),
		nullable(o.PaymentURL),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, product_name, unit_price_cents, quantity, subtotal_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for _, item := range o.Items {
		_, err = tx.Exec(ctx, itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.ProductName,
			item.UnitPriceCents,
			item.Quantity,
			item.SubtotalCents,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		ct, execErr := tx.Exec(ctx, decrementStockQuery, item.ProductID, item.Quantity)
		if execErr != nil {
			err = fmt.Errorf("decrement stock for %s: %w", item.ProductID, execErr)
			return err
		}
		if ct.RowsAffected() == 0 {
			err = apperrors.InsufficientStock(item.ProductName, item.Quantity, 0)
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

const orderColumns = `o.id, o.customer_id, o.customer_email, o.status, o.total_cents, o.delivery_address, o.contact_phone, o.payment_method, o.transaction_ref, o.payment_url, o.created_at, o.updated_at`

const orderWithItemsQuery = `
		SELECT ` + orderColumns + `,
			COALESCE(
				JSONB_AGG(
					JSONB_BUILD_OBJECT(
						'id', oi.id,
						'order_id', oi.order_id,
						'product_id', oi.product_id,
						'product_name', oi.product_name,
						'unit_price_cents', oi.unit_price_cents,
						'quantity', oi.quantity,
						'subtotal_cents', oi.subtotal_cents
					) ORDER BY oi.id
				) FILTER (WHERE oi.id IS NOT NULL),
				'[]'::jsonb
			) AS items
		FROM orders o
		LEFT JOIN order_items oi ON o.id = oi.order_id
		WHERE %s
		GROUP BY o.id`

// GetByID retrieves an order with its items in a single query using
// JSONB_AGG to avoid a second round trip.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	o, err := r.getOneBy(ctx, "GetOrder", "o.id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, err
	}
	return o, nil
}

// GetByTransactionRef retrieves the order holding the payment transaction
// reference set at checkout time.
func (r *OrderRepository) GetByTransactionRef(ctx context.Context, ref string) (*domain.Order, error) {
	o, err := r.getOneBy(ctx, "GetOrderByTransactionRef", "o.transaction_ref = $1", ref)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order with transaction_ref", ref)
		}
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) getOneBy(ctx context.Context, operation, condition string, arg any) (o *domain.Order, err error) {
	query := fmt.Sprintf(orderWithItemsQuery, condition)

	ctx, end := database.TraceQuery(ctx, operation, "SELECT FROM orders")
	defer func() { end(err) }()

	var (
		ord       domain.Order
		txRef     *string
		payURL    *string
		itemsJSON []byte
	)

	err = r.pool.QueryRow(ctx, query, arg).Scan(
		&ord.ID,
		&ord.CustomerID,
		&ord.CustomerEmail,
		&ord.Status,
		&ord.TotalCents,
		&ord.DeliveryAddress,
		&ord.ContactPhone,
		&ord.PaymentMethod,
		&txRef,
		&payURL,
		&ord.CreatedAt,
		&ord.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		return nil, err
	}

	if txRef != nil {
		ord.TransactionRef = *txRef
	}
	if payURL != nil {
		ord.PaymentURL = *payURL
	}

	ord.Items = []domain.LineItem{}
	if len(itemsJSON) > 0 && string(itemsJSON) != "null" && string(itemsJSON) != "[]" {
		if err = json.Unmarshal(itemsJSON, &ord.Items); err != nil {
			return nil, fmt.Errorf("unmarshal order items: %w", err)
		}
	}

	return &ord, nil
}

// List returns orders matching the filter with the total count, computed
// with count(*) OVER() in a single query. Items are batch-loaded afterwards.
func (r *OrderRepository) List(ctx context.Context, filter repository.OrderFilter) (orders []domain.Order, total int, err error) {
	ctx, end := database.TraceQuery(ctx, "ListOrders", "SELECT FROM orders")
	defer func() { end(err) }()

	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argIndex))
		args = append(args, *filter.CustomerID)
		argIndex++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, customer_id, customer_email, status, total_cents, delivery_address, contact_phone, payment_method, transaction_ref, payment_url, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
	)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		var (
			o      domain.Order
			txRef  *string
			payURL *string
		)
		if err = rows.Scan(
			&o.ID,
			&o.CustomerID,
			&o.CustomerEmail,
			&o.Status,
			&o.TotalCents,
			&o.DeliveryAddress,
			&o.ContactPhone,
			&o.PaymentMethod,
			&txRef,
			&payURL,
			&o.CreatedAt,
			&o.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		if txRef != nil {
			o.TransactionRef = *txRef
		}
		if payURL != nil {
			o.PaymentURL = *payURL
		}
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	if len(orders) > 0 {
		if err = r.attachItems(ctx, orders); err != nil {
			return nil, 0, err
		}
	}

	return orders, total, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []domain.Order) error {
	orderIDs := make([]string, len(orders))
	for i := range orders {
		orderIDs[i] = orders[i].ID
	}

	itemsQuery := `
		SELECT id, order_id, product_id, product_name, unit_price_cents, quantity, subtotal_cents
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`

	rows, err := r.pool.Query(ctx, itemsQuery, orderIDs)
	if err != nil {
		return fmt.Errorf("batch load order items: %w", err)
	}
	defer rows.Close()

	itemsByOrderID := make(map[string][]domain.LineItem, len(orders))
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.UnitPriceCents,
			&item.Quantity,
			&item.SubtotalCents,
		); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		itemsByOrderID[item.OrderID] = append(itemsByOrderID[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate order item rows: %w", err)
	}

	for i := range orders {
		if items, ok := itemsByOrderID[orders[i].ID]; ok {
			orders[i].Items = items
		} else {
			orders[i].Items = []domain.LineItem{}
		}
	}

	return nil
}

// UpdateStatusIfCurrent performs the compare-and-swap status write: the row
// is updated only when the stored status still equals expected. This is what
// keeps concurrent webhook reconciliations from both applying the same
// transition.
func (r *OrderRepository) UpdateStatusIfCurrent(ctx context.Context, id, next, expected string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`

	ctx, end := database.TraceQuery(ctx, "UpdateOrderStatus", query)
	var err error
	defer func() { end(err) }()

	ct, err := r.pool.Exec(ctx, query, next, time.Now().UTC(), id, expected)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		var exists bool
		if err = r.pool.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM orders WHERE id = $1)", id).Scan(&exists); err != nil {
			return fmt.Errorf("check order existence: %w", err)
		}
		if !exists {
			err = apperrors.NotFound("order", id)
			return err
		}
		err = apperrors.Conflict(fmt.Sprintf("order %s status changed concurrently, expected %s", id, expected))
		return err
	}

	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
