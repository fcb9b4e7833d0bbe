// Package email sends order notifications over SMTP.
package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
)

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Channel sends plain-text order emails through an SMTP relay.
type Channel struct {
	cfg  Config
	send sendFunc
}

// New creates the email channel.
func New(cfg Config) *Channel {
	return &Channel{cfg: cfg, send: smtp.SendMail}
}

// Name identifies the channel.
func (c *Channel) Name() string {
	return "email"
}

// SendOrderConfirmation emails the order summary. Delayed payment
// methods include the payment URL so the customer can settle.
func (c *Channel) SendOrderConfirmation(ctx context.Context, order *domain.Order) error {
	subject := fmt.Sprintf("Pedido %s recebido", order.ID)

	var body strings.Builder
	fmt.Fprintf(&body, "Recebemos seu pedido %s.\r\n\r\n", order.ID)
	for _, item := range order.Items {
		fmt.Fprintf(&body, "- %dx %s: %s\r\n", item.Quantity, item.ProductName, formatBRL(item.SubtotalCents))
	}
	fmt.Fprintf(&body, "\r\nTotal: %s\r\n", formatBRL(order.TotalCents))
	if order.PaymentURL != "" {
		fmt.Fprintf(&body, "\r\nFinalize o pagamento em: %s\r\n", order.PaymentURL)
	}

	return c.deliver(ctx, order.CustomerEmail, subject, body.String())
}

// SendPaymentApproved emails the payment confirmation.
func (c *Channel) SendPaymentApproved(ctx context.Context, order *domain.Order) error {
	subject := fmt.Sprintf("Pagamento do pedido %s aprovado", order.ID)
	body := fmt.Sprintf(
		"O pagamento de %s do pedido %s foi aprovado. Estamos preparando seu envio.\r\n",
		formatBRL(order.TotalCents), order.ID,
	)
	return c.deliver(ctx, order.CustomerEmail, subject, body)
}

func (c *Channel) deliver(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		c.cfg.From, to, subject, body,
	)

	addr := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	if err := c.send(addr, auth, c.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func formatBRL(cents int64) string {
	reais := cents / 100
	rest := cents % 100
	if rest < 0 {
		rest = -rest
	}
	return fmt.Sprintf("R$ %d,%02d", reais, rest)
}
