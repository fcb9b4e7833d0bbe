// Package mercadopago integrates the Mercado Pago payments API as a
// gateway.PaymentGateway.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"

	apperrors "github.com/FernandoCarrilho/Ve-Joias/pkg/errors"
	"github.com/FernandoCarrilho/Ve-Joias/pkg/httpclient"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway"
)

// Gateway talks to the Mercado Pago REST API. All calls go through the
// circuit-breaker client so a degraded provider fails fast.
type Gateway struct {
	client      *httpclient.CircuitBreakerClient
	baseURL     string
	accessToken string
	logger      *slog.Logger
}

// New creates a Mercado Pago gateway.
func New(client *httpclient.CircuitBreakerClient, baseURL, accessToken string, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:      client,
		baseURL:     baseURL,
		accessToken: accessToken,
		logger:      logger,
	}
}

// Name returns the provider name.
func (g *Gateway) Name() string {
	return "mercadopago"
}

type paymentRequest struct {
	TransactionAmount float64      `json:"transaction_amount"`
	Description       string       `json:"description"`
	PaymentMethodID   string       `json:"payment_method_id,omitempty"`
	Token             string       `json:"token,omitempty"`
	Installments      int          `json:"installments,omitempty"`
	Payer             paymentPayer `json:"payer"`
	ExternalReference string       `json:"external_reference"`
}

type paymentPayer struct {
	Email string `json:"email"`
}

type paymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	StatusDetail       string      `json:"status_detail"`
	TransactionAmount  float64     `json:"transaction_amount"`
	PointOfInteraction struct {
		TransactionData struct {
			TicketURL string `json:"ticket_url"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
	TransactionDetails struct {
		ExternalResourceURL string `json:"external_resource_url"`
	} `json:"transaction_details"`
}

// methodID maps our payment methods onto Mercado Pago method IDs. Card
// payments identify the method through the card token instead.
func methodID(method string) string {
	switch method {
	case domain.MethodPix:
		return "pix"
	case domain.MethodBoleto:
		return "bolbradesco"
	default:
		return ""
	}
}

// Charge creates a payment. The order ID rides along as both the
// idempotency key and the external reference, so retried checkouts
// never double-charge.
func (g *Gateway) Charge(ctx context.Context, input *gateway.ChargeInput) (*gateway.ChargeResult, error) {
	payload := paymentRequest{
		TransactionAmount: float64(input.AmountCents) / 100,
		Description:       input.Description,
		PaymentMethodID:   methodID(input.Method),
		Token:             input.CardToken,
		Payer:             paymentPayer{Email: input.CustomerEmail},
		ExternalReference: input.OrderID,
	}
	if input.Method == domain.MethodCreditCard {
		payload.Installments = 1
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/payments", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)
	req.Header.Set("X-Idempotency-Key", input.OrderID)

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago charge: %w", err)
	}
	defer resp.Body.Close()

	payment, err := g.decodePayment(resp)
	if err != nil {
		return nil, err
	}

	status, err := normalizeStatus(payment.Status)
	if err != nil {
		return nil, err
	}

	result := &gateway.ChargeResult{
		TransactionRef: payment.ID.String(),
		Status:         status,
	}
	switch input.Method {
	case domain.MethodPix:
		result.PaymentURL = payment.PointOfInteraction.TransactionData.TicketURL
	case domain.MethodBoleto:
		result.PaymentURL = payment.TransactionDetails.ExternalResourceURL
	}

	return result, nil
}

// VerifyStatus fetches the payment's current state from the provider.
func (g *Gateway) VerifyStatus(ctx context.Context, transactionRef string) (*gateway.VerifyResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payments/"+transactionRef, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mercadopago verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("payment", transactionRef)
	}

	payment, err := g.decodePayment(resp)
	if err != nil {
		return nil, err
	}

	status, err := normalizeStatus(payment.Status)
	if err != nil {
		return nil, err
	}

	return &gateway.VerifyResult{
		TransactionRef: payment.ID.String(),
		Status:         status,
		AmountCents:    int64(math.Round(payment.TransactionAmount * 100)),
	}, nil
}

func (g *Gateway) decodePayment(resp *http.Response) (*paymentResponse, error) {
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		g.logger.Warn("mercadopago error response",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return nil, fmt.Errorf("mercadopago status %d: %s", resp.StatusCode, string(body))
	}

	var payment paymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}
	return &payment, nil
}

// normalizeStatus collapses Mercado Pago's status vocabulary into the
// four canonical provider statuses.
func normalizeStatus(raw string) (string, error) {
	switch raw {
	case "approved":
		return domain.ProviderApproved, nil
	case "pending", "in_process", "authorized":
		return domain.ProviderPending, nil
	case "rejected", "cancelled":
		return domain.ProviderRejected, nil
	case "refunded", "charged_back":
		return domain.ProviderRefunded, nil
	default:
		return "", fmt.Errorf("unknown mercadopago status %q", raw)
	}
}
