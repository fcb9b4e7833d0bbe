// Package gateway defines the payment provider port. Concrete
// integrations live in subpackages.
package gateway

import (
	"context"
)

// ChargeInput holds the parameters for charging a payment.
type ChargeInput struct {
	// OrderID doubles as the idempotency key sent to the provider.
	OrderID       string
	AmountCents   int64
	Method        string
	CustomerEmail string
	Description   string
	// CardToken is set only for credit card charges.
	CardToken string
}

// ChargeResult holds the provider's answer to a charge attempt. Status
// is always one of the canonical domain.Provider* values: adapters
// translate whatever the wire protocol says before anything else sees it.
type ChargeResult struct {
	// TransactionRef is the provider's payment identifier, stored on the
	// order and used for later status verification.
	TransactionRef string
	Status         string
	// PaymentURL points the customer at the pix QR code or boleto slip
	// for delayed methods. Empty for card payments.
	PaymentURL string
}

// VerifyResult holds the provider's current view of a payment.
type VerifyResult struct {
	TransactionRef string
	Status         string
	AmountCents    int64
}

// PaymentGateway defines the interface for payment provider integrations.
type PaymentGateway interface {
	// Name returns the provider name (e.g., "mock", "mercadopago").
	Name() string

	// Charge processes a payment charge through the provider.
	Charge(ctx context.Context, input *ChargeInput) (*ChargeResult, error)

	// VerifyStatus fetches the authoritative status of a previously
	// created payment.
	VerifyStatus(ctx context.Context, transactionRef string) (*VerifyResult, error)
}
