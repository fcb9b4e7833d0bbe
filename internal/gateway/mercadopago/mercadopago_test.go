package mercadopago

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/httpclient"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *Gateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	client := httpclient.NewCircuitBreakerClient(
		httpclient.New(cfg),
		httpclient.DefaultCircuitBreakerConfig("mercadopago-test"),
		logger,
	)
	return New(client, srv.URL, "test-token", logger)
}

func TestCharge_CreditCardApproved(t *testing.T) {
	var gotReq paymentRequest
	var gotRaw map[string]any
	var gotIdempotencyKey string

	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payments", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		gotIdempotencyKey = r.Header.Get("X-Idempotency-Key")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotReq))
		require.NoError(t, json.Unmarshal(body, &gotRaw))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 12345, "status": "approved", "transaction_amount": 150.00}`))
	})

	result, err := g.Charge(context.Background(), &gateway.ChargeInput{
		OrderID:       "order-001",
		AmountCents:   15000,
		Method:        domain.MethodCreditCard,
		CustomerEmail: "maria@example.com",
		Description:   "Ve Joias order order-001",
		CardToken:     "card-tok-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "12345", result.TransactionRef)
	assert.Equal(t, domain.ProviderApproved, result.Status)
	assert.Empty(t, result.PaymentURL)

	assert.Equal(t, "order-001", gotIdempotencyKey)
	assert.Equal(t, "order-001", gotReq.ExternalReference)
	assert.InDelta(t, 150.00, gotReq.TransactionAmount, 0.001)
	assert.Equal(t, "card-tok-1", gotReq.Token)
	assert.Equal(t, 1, gotReq.Installments)
	assert.Equal(t, "maria@example.com", gotReq.Payer.Email)

	// Card payments carry no method ID, the provider infers it from the
	// token. An empty payment_method_id would be rejected outright.
	assert.NotContains(t, gotRaw, "payment_method_id")
}

func TestCharge_PixPendingWithTicketURL(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req paymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "pix", req.PaymentMethodID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 777,
			"status": "pending",
			"point_of_interaction": {"transaction_data": {"ticket_url": "https://mp.example.com/pix/777"}}
		}`))
	})

	result, err := g.Charge(context.Background(), &gateway.ChargeInput{
		OrderID:       "order-002",
		AmountCents:   5000,
		Method:        domain.MethodPix,
		CustomerEmail: "maria@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderPending, result.Status)
	assert.Equal(t, "https://mp.example.com/pix/777", result.PaymentURL)
}

func TestCharge_BoletoExternalResourceURL(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		var req paymentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "bolbradesco", req.PaymentMethodID)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 888,
			"status": "pending",
			"transaction_details": {"external_resource_url": "https://mp.example.com/boleto/888.pdf"}
		}`))
	})

	result, err := g.Charge(context.Background(), &gateway.ChargeInput{
		OrderID:       "order-003",
		AmountCents:   9900,
		Method:        domain.MethodBoleto,
		CustomerEmail: "maria@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ProviderPending, result.Status)
	assert.Equal(t, "https://mp.example.com/boleto/888.pdf", result.PaymentURL)
}

func TestCharge_RejectedStatusNormalized(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 999, "status": "rejected", "status_detail": "cc_rejected_insufficient_amount"}`))
	})

	result, err := g.Charge(context.Background(), &gateway.ChargeInput{
		OrderID:     "order-004",
		AmountCents: 100,
		Method:      domain.MethodCreditCard,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderRejected, result.Status)
}

func TestCharge_ProviderErrorResponse(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message": "invalid payment_method_id"}`))
	})

	_, err := g.Charge(context.Background(), &gateway.ChargeInput{
		OrderID:     "order-005",
		AmountCents: 100,
		Method:      domain.MethodCreditCard,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mercadopago status 400")
}

func TestVerifyStatus(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payments/12345", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 12345, "status": "approved", "transaction_amount": 150.00}`))
	})

	result, err := g.VerifyStatus(context.Background(), "12345")
	require.NoError(t, err)
	assert.Equal(t, "12345", result.TransactionRef)
	assert.Equal(t, domain.ProviderApproved, result.Status)
	assert.Equal(t, int64(15000), result.AmountCents)
}

func TestVerifyStatus_RoundsFractionalAmounts(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 12346, "status": "refunded", "transaction_amount": -10.01}`))
	})

	result, err := g.VerifyStatus(context.Background(), "12346")
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderRefunded, result.Status)
	assert.Equal(t, int64(-1001), result.AmountCents)
}

func TestVerifyStatus_NotFound(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message": "Payment not found"}`))
	})

	_, err := g.VerifyStatus(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestNormalizeStatus_Unknown(t *testing.T) {
	_, err := normalizeStatus("in_mediation")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mercadopago status")
}
