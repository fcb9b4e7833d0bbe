package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/httpclient"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

func newTestChannel(t *testing.T, handler http.HandlerFunc) *Channel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return New(httpclient.New(cfg), Config{
		BaseURL:  srv.URL,
		APIKey:   "test-key",
		Instance: "vejoias",
	})
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:           "order-001",
		ContactPhone: "+5511999999999",
		TotalCents:   15990,
		PaymentURL:   "https://mp.example.com/pix/777",
	}
}

func TestSendOrderConfirmation(t *testing.T) {
	var got sendTextRequest
	var gotAPIKey, gotPath string

	c := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("apikey")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.SendOrderConfirmation(context.Background(), sampleOrder()))

	assert.Equal(t, "test-key", gotAPIKey)
	assert.Equal(t, "/message/sendText/vejoias", gotPath)
	assert.Equal(t, "+5511999999999", got.Number)
	assert.Contains(t, got.Text, "order-001")
	assert.Contains(t, got.Text, "R$ 159,90")
	assert.Contains(t, got.Text, "https://mp.example.com/pix/777")
}

func TestSendPaymentApproved(t *testing.T) {
	var got sendTextRequest

	c := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.SendPaymentApproved(context.Background(), sampleOrder()))
	assert.Contains(t, got.Text, "aprovado")
	assert.NotContains(t, got.Text, "mp.example.com")
}

func TestSendText_GatewayError(t *testing.T) {
	c := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid apikey"}`))
	})

	err := c.SendOrderConfirmation(context.Background(), sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whatsapp gateway status 401")
}

func TestSendText_MissingPhone(t *testing.T) {
	c := newTestChannel(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach the gateway")
	})

	order := sampleOrder()
	order.ContactPhone = ""

	err := c.SendOrderConfirmation(context.Background(), order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no contact phone")
}
