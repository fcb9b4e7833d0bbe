package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/health"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/httputil"
	pkgkafka "github.com/FernandoCarrilho/Ve-Joias/pkg/kafka"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/event"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway"
	"github.com/FernandoCarrilho/Ve-Joias/internal/notifier"
	"github.com/FernandoCarrilho/Ve-Joias/internal/repository"
	"github.com/FernandoCarrilho/Ve-Joias/internal/service"
)

// --- Mock stores and gateway ---

type mockOrderStore struct {
	mock.Mock
}

func (m *mockOrderStore) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderStore) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderStore) GetByTransactionRef(ctx context.Context, ref string) (*domain.Order, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderStore) List(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Order), args.Int(1), args.Error(2)
}

func (m *mockOrderStore) UpdateStatusIfCurrent(ctx context.Context, id, next, expected string) error {
	args := m.Called(ctx, id, next, expected)
	return args.Error(0)
}

type mockCatalogStore struct {
	mock.Mock
}

func (m *mockCatalogStore) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockCatalogStore) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Product, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Product), args.Error(1)
}

type mockCartStore struct {
	mock.Mock
}

func (m *mockCartStore) Get(ctx context.Context, customerID string) (*domain.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Cart), args.Error(1)
}

func (m *mockCartStore) Save(ctx context.Context, cart *domain.Cart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *mockCartStore) Clear(ctx context.Context, customerID string) error {
	args := m.Called(ctx, customerID)
	return args.Error(0)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Name() string { return "mock" }

func (m *mockGateway) Charge(ctx context.Context, input *gateway.ChargeInput) (*gateway.ChargeResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.ChargeResult), args.Error(1)
}

func (m *mockGateway) VerifyStatus(ctx context.Context, transactionRef string) (*gateway.VerifyResult, error) {
	args := m.Called(ctx, transactionRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.VerifyResult), args.Error(1)
}

// --- Test helpers ---

type testMocks struct {
	orders  *mockOrderStore
	catalog *mockCatalogStore
	carts   *mockCartStore
	gateway *mockGateway
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testEventProducer() *event.Producer {
	logger := testLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

// setupServer builds the production router over mock stores.
func setupServer(t *testing.T) (http.Handler, *testMocks) {
	t.Helper()
	logger := testLogger()
	producer := testEventProducer()
	m := &testMocks{
		orders:  &mockOrderStore{},
		catalog: &mockCatalogStore{},
		carts:   &mockCartStore{},
		gateway: &mockGateway{},
	}

	var channels []notifier.Channel
	checkoutSvc := service.NewCheckoutService(m.carts, m.catalog, m.orders, m.gateway, producer, channels, logger, time.Second)
	cartSvc := service.NewCartService(m.carts, m.catalog, logger)
	orderSvc := service.NewOrderService(m.orders, producer, logger)
	reconcilerSvc := service.NewReconcilerService(m.orders, m.gateway, producer, channels, logger)

	router := NewRouter(checkoutSvc, cartSvc, orderSvc, reconcilerSvc, health.NewHandler(logger), logger)
	return router, m
}

func doRequest(t *testing.T, router http.Handler, method, path, customerID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if customerID != "" {
		req.Header.Set("X-Customer-ID", customerID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func checkoutBody() map[string]any {
	return map[string]any{
		"customer_email":   "maria@example.com",
		"delivery_address": "Rua das Flores 10, Sao Paulo",
		"contact_phone":    "+5511999999999",
		"payment_method":   "credit_card",
		"card_token":       "card-tok-1",
	}
}

func cartWithOneItem() *domain.Cart {
	c := domain.NewCart("cust-001")
	c.AddItem("prod-1", 2)
	return c
}

func goldRingCatalog() map[string]*domain.Product {
	return map[string]*domain.Product{
		"prod-1": {ID: "prod-1", Name: "Gold Ring", PriceCents: 10000, Stock: 5},
	}
}

// --- Checkout endpoint ---

func TestCheckoutEndpoint_Success(t *testing.T) {
	router, m := setupServer(t)

	m.carts.On("Get", mock.Anything, "cust-001").Return(cartWithOneItem(), nil)
	m.catalog.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return(goldRingCatalog(), nil)
	m.gateway.On("Charge", mock.Anything, mock.Anything).
		Return(&gateway.ChargeResult{TransactionRef: "TX-1", Status: domain.ProviderApproved}, nil)
	m.orders.On("Create", mock.Anything, mock.Anything).Return(nil)
	m.carts.On("Clear", mock.Anything, "cust-001").Return(nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout", "cust-001", checkoutBody())

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "paid", data["status"])
	assert.Equal(t, "TX-1", data["transaction_ref"])
}

func TestCheckoutEndpoint_MissingCustomerHeader(t *testing.T) {
	router, _ := setupServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout", "", checkoutBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutEndpoint_ValidationFailure(t *testing.T) {
	router, _ := setupServer(t)

	body := checkoutBody()
	body["customer_email"] = "not-an-email"

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout", "cust-001", body)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_FAILED", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "customer_email")
}

func TestCheckoutEndpoint_EmptyCart(t *testing.T) {
	router, m := setupServer(t)

	m.carts.On("Get", mock.Anything, "cust-001").Return(domain.NewCart("cust-001"), nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout", "cust-001", checkoutBody())

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "CART_EMPTY", resp.Error.Code)
}

func TestCheckoutEndpoint_PaymentFailed(t *testing.T) {
	router, m := setupServer(t)

	m.carts.On("Get", mock.Anything, "cust-001").Return(cartWithOneItem(), nil)
	m.catalog.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return(goldRingCatalog(), nil)
	m.gateway.On("Charge", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("connection reset"))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout", "cust-001", checkoutBody())

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "PAYMENT_FAILED", resp.Error.Code)
	// Provider error details stay out of the customer-facing message.
	assert.NotContains(t, resp.Error.Message, "connection reset")
}

func TestCheckoutEndpoint_InsufficientStock(t *testing.T) {
	router, m := setupServer(t)

	products := goldRingCatalog()
	products["prod-1"].Stock = 1

	m.carts.On("Get", mock.Anything, "cust-001").Return(cartWithOneItem(), nil)
	m.catalog.On("GetByIDs", mock.Anything, []string{"prod-1"}).Return(products, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout", "cust-001", checkoutBody())

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INSUFFICIENT_STOCK", resp.Error.Code)
}

// --- Cart endpoints ---

func TestCartAddItemEndpoint(t *testing.T) {
	router, m := setupServer(t)

	productID := "550e8400-e29b-41d4-a716-446655440001"
	product := &domain.Product{ID: productID, Name: "Gold Ring", PriceCents: 10000, Stock: 5}

	m.carts.On("Get", mock.Anything, "cust-001").Return(domain.NewCart("cust-001"), nil)
	m.catalog.On("GetByID", mock.Anything, productID).Return(product, nil)
	m.catalog.On("GetByIDs", mock.Anything, []string{productID}).
		Return(map[string]*domain.Product{productID: product}, nil)
	m.carts.On("Save", mock.Anything, mock.Anything).Return(nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/cart/items", "cust-001", map[string]any{
		"product_id": productID,
		"quantity":   2,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, float64(20000), data["total_cents"])
}

func TestCartAddItemEndpoint_InvalidQuantity(t *testing.T) {
	router, _ := setupServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/cart/items", "cust-001", map[string]any{
		"product_id": "550e8400-e29b-41d4-a716-446655440001",
		"quantity":   0,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartGetEndpoint_Empty(t *testing.T) {
	router, m := setupServer(t)

	m.carts.On("Get", mock.Anything, "cust-001").Return(domain.NewCart("cust-001"), nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/cart", "cust-001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

// --- Order endpoints ---

func TestOrderGetEndpoint(t *testing.T) {
	router, m := setupServer(t)

	m.orders.On("GetByID", mock.Anything, "order-001").Return(&domain.Order{
		ID:         "order-001",
		CustomerID: "cust-001",
		Status:     domain.StatusPaid,
	}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/orders/order-001", "cust-001", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "order-001", data["id"])
}

func TestOrderGetEndpoint_NotOwned(t *testing.T) {
	router, m := setupServer(t)

	m.orders.On("GetByID", mock.Anything, "order-001").Return(&domain.Order{
		ID:         "order-001",
		CustomerID: "cust-other",
	}, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/orders/order-001", "cust-001", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOrderUpdateStatusEndpoint_IllegalTransition(t *testing.T) {
	router, m := setupServer(t)

	m.orders.On("GetByID", mock.Anything, "order-001").Return(&domain.Order{
		ID:         "order-001",
		CustomerID: "cust-001",
		Status:     domain.StatusPaid,
	}, nil)

	rec := doRequest(t, router, http.MethodPatch, "/api/v1/orders/order-001/status", "cust-001", map[string]any{
		"status": "delivered",
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Equal(t, "INVALID_TRANSITION", resp.Error.Code)
}

// --- Webhook endpoint ---

func TestWebhookEndpoint_PaymentReconciled(t *testing.T) {
	router, m := setupServer(t)

	m.gateway.On("VerifyStatus", mock.Anything, "TX-1").
		Return(&gateway.VerifyResult{TransactionRef: "TX-1", Status: domain.ProviderApproved}, nil)
	m.orders.On("GetByTransactionRef", mock.Anything, "TX-1").Return(&domain.Order{
		ID:             "order-001",
		CustomerID:     "cust-001",
		Status:         domain.StatusPending,
		TransactionRef: "TX-1",
	}, nil)
	m.orders.On("UpdateStatusIfCurrent", mock.Anything, "order-001", domain.StatusPaid, domain.StatusPending).Return(nil)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payments/webhook", "", map[string]any{
		"type": "payment",
		"data": map[string]any{"id": "TX-1"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	m.orders.AssertCalled(t, "UpdateStatusIfCurrent", mock.Anything, "order-001", domain.StatusPaid, domain.StatusPending)
}

func TestWebhookEndpoint_TopicAlias(t *testing.T) {
	router, m := setupServer(t)

	m.gateway.On("VerifyStatus", mock.Anything, "TX-2").
		Return(&gateway.VerifyResult{TransactionRef: "TX-2", Status: domain.ProviderApproved}, nil)
	m.orders.On("GetByTransactionRef", mock.Anything, "TX-2").
		Return(nil, apperrors.NotFound("order", "TX-2"))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payments/webhook", "", map[string]any{
		"topic": "payment",
		"data":  map[string]any{"id": "TX-2"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookEndpoint_ReconcileFailureStillAcknowledged(t *testing.T) {
	router, m := setupServer(t)

	m.gateway.On("VerifyStatus", mock.Anything, "TX-3").
		Return(nil, fmt.Errorf("provider unavailable"))

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payments/webhook", "", map[string]any{
		"type": "payment",
		"data": map[string]any{"id": "TX-3"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestWebhookEndpoint_UnsupportedType(t *testing.T) {
	router, _ := setupServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payments/webhook", "", map[string]any{
		"type": "plan",
		"data": map[string]any{"id": "TX-1"},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEndpoint_MissingDataID(t *testing.T) {
	router, _ := setupServer(t)

	rec := doRequest(t, router, http.MethodPost, "/api/v1/payments/webhook", "", map[string]any{
		"type": "payment",
		"data": map[string]any{},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- Health endpoints ---

func TestHealthLive(t *testing.T) {
	router, _ := setupServer(t)

	rec := doRequest(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
