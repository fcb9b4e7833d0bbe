// Package whatsapp sends order notifications through an Evolution API
// compatible WhatsApp gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/FernandoCarrilho/Ve-Joias/pkg/httpclient"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

// Config holds WhatsApp gateway settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Instance string
}

// Channel sends text messages through the WhatsApp gateway.
type Channel struct {
	client *httpclient.Client
	cfg    Config
}

// New creates the WhatsApp channel.
func New(client *httpclient.Client, cfg Config) *Channel {
	return &Channel{client: client, cfg: cfg}
}

// Name identifies the channel.
func (c *Channel) Name() string {
	return "whatsapp"
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendOrderConfirmation messages the customer's phone with the order
// summary and, for delayed methods, the payment link.
func (c *Channel) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	text := fmt.Sprintf("Recebemos seu pedido %s no valor de %s.", order.ID, formatBRL(order.TotalCents))
	if order.PaymentURL != "" {
		text += " Finalize o pagamento em: " + order.PaymentURL
	}
	return c.sendText(ctx, order.ContactPhone, text)
}

// SendPaymentApproved messages the customer that payment cleared.
func (c *Channel) SendPaymentApproved(ctx context.Context, order *domain.Order) error {
	text := fmt.Sprintf("Pagamento do pedido %s aprovado! Estamos preparando seu envio.", order.ID)
	return c.sendText(ctx, order.ContactPhone, text)
}

func (c *Channel) sendText(ctx context.Context, number, text string) error {
	if number == "" {
		return fmt.Errorf("order has no contact phone")
	}

	body, err := json.Marshal(sendTextRequest{Number: number, Text: text})
	if err != nil {
		return fmt.Errorf("marshal whatsapp message: %w", err)
	}

	url := fmt.Sprintf("%s/message/sendText/%s", c.cfg.BaseURL, c.cfg.Instance)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create whatsapp request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.APIKey)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("whatsapp send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("whatsapp gateway status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func formatBRL(cents int64) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}
