package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/database"
	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
)

func newTestProductRepo(t *testing.T) (*ProductRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	return NewProductRepository(mock), mock
}

func TestProductRepository_GetByID(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("prod-001").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "price_cents", "stock", "created_at", "updated_at",
		}).AddRow("prod-001", "Gold Ring", int64(10000), 5, now, now))

	p, err := repo.GetByID(context.Background(), "prod-001")
	require.NoError(t, err)
	assert.Equal(t, "Gold Ring", p.Name)
	assert.Equal(t, int64(10000), p.PriceCents)
	assert.Equal(t, 5, p.Stock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_GetByIDs(t *testing.T) {
	repo, mock := newTestProductRepo(t)

	now := time.Now()
	ids := []string{"prod-001", "prod-002", "prod-missing"}

	mock.ExpectQuery("SELECT (.+) FROM products").
		WithArgs(ids).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "name", "price_cents", "stock", "created_at", "updated_at",
		}).
			AddRow("prod-001", "Gold Ring", int64(10000), 5, now, now).
			AddRow("prod-002", "Silver Necklace", int64(20000), 3, now, now))

	products, err := repo.GetByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, products, 2)
	assert.Contains(t, products, "prod-001")
	assert.Contains(t, products, "prod-002")
	assert.NotContains(t, products, "prod-missing")
	assert.NoError(t, mock.ExpectationsWereMet())
}
