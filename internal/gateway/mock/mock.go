// Package mock provides a payment gateway that always approves. It is
// intended for development and testing purposes.
package mock

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/FernandoCarrilho/Ve-Joias/internal/domain"
	"github.com/FernandoCarrilho/Ve-Joias/internal/gateway"
)

// Gateway approves card charges instantly and leaves delayed methods
// pending, mirroring how the real provider behaves.
type Gateway struct{}

// New creates a mock payment gateway.
func New() *Gateway {
	return &Gateway{}
}

// Name returns the provider name.
func (g *Gateway) Name() string {
	return "mock"
}

// Charge simulates a charge.
func (g *Gateway) Charge(_ context.Context, input *gateway.ChargeInput) (*gateway.ChargeResult, error) {
	// Simulate a small processing delay.
	time.Sleep(50 * time.Millisecond)

	result := &gateway.ChargeResult{
		TransactionRef: "mock_pay_" + uuid.New().String(),
		Status:         domain.ProviderApproved,
	}
	if domain.IsDelayedMethod(input.Method) {
		result.Status = domain.ProviderPending
		result.PaymentURL = "https://payments.example.com/" + result.TransactionRef
	}

	return result, nil
}

// VerifyStatus reports every known payment as approved.
func (g *Gateway) VerifyStatus(_ context.Context, transactionRef string) (*gateway.VerifyResult, error) {
	time.Sleep(50 * time.Millisecond)

	return &gateway.VerifyResult{
		TransactionRef: transactionRef,
		Status:         domain.ProviderApproved,
	}, nil
}
