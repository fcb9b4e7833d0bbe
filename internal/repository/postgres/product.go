package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/database"
	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
)

// ProductRepository implements repository.CatalogStore using PostgreSQL.
// It is read-only: stock decrements happen inside OrderRepository.Create.
type ProductRepository struct {
	pool database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed catalog store.
func NewProductRepository(pool database.DBTX) *ProductRepository {
	return &ProductRepository{pool: pool}
}

const productColumns = `id, name, price_cents, stock, created_at, updated_at`

// GetByID retrieves a single product.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	ctx, end := database.TraceQuery(ctx, "GetProduct", query)
	defer func() { end(err) }()

	var prod domain.Product
	err = r.pool.QueryRow(ctx, query, id).Scan(
		&prod.ID,
		&prod.Name,
		&prod.PriceCents,
		&prod.Stock,
		&prod.CreatedAt,
		&prod.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	return &prod, nil
}

// GetByIDs retrieves several products in one query. IDs absent from the
// catalog are simply missing from the result map.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) (products map[string]*domain.Product, err error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ANY($1)`

	ctx, end := database.TraceQuery(ctx, "GetProducts", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products = make(map[string]*domain.Product, len(ids))
	for rows.Next() {
		var p domain.Product
		if err = rows.Scan(
			&p.ID,
			&p.Name,
			&p.PriceCents,
			&p.Stock,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products[p.ID] = &p
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}
