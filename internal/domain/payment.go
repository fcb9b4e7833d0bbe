package domain

import "fmt"

// Payment method constants. Credit card settles instantly; pix and boleto
// are delayed-settlement methods that start pending with a payment URL the
// customer must act on.
const (
	MethodPix        = "pix"
	MethodBoleto     = "boleto"
	MethodCreditCard = "credit_card"
)

// ValidPaymentMethods returns all accepted payment methods.
func ValidPaymentMethods() []string {
	return []string{MethodPix, MethodBoleto, MethodCreditCard}
}

// IsValidPaymentMethod checks if a payment method string is accepted.
func IsValidPaymentMethod(method string) bool {
	for _, m := range ValidPaymentMethods() {
		if m == method {
			return true
		}
	}
	return false
}

// IsDelayedMethod reports whether the method settles out-of-band.
func IsDelayedMethod(method string) bool {
	return method == MethodPix || method == MethodBoleto
}

// Canonical provider status vocabulary, normalized from the payment
// provider's raw statuses by the gateway adapter.
const (
	ProviderApproved = "approved"
	ProviderPending  = "pending"
	ProviderRejected = "rejected"
	ProviderRefunded = "refunded"
)

// OrderStatusFromProvider maps the canonical provider vocabulary onto the
// order state machine. Both checkout's immediate mapping and webhook
// reconciliation use this one table.
func OrderStatusFromProvider(providerStatus string) (string, error) {
	switch providerStatus {
	case ProviderApproved:
		return StatusPaid, nil
	case ProviderPending:
		return StatusPending, nil
	case ProviderRejected, ProviderRefunded:
		return StatusCanceled, nil
	default:
		return "", fmt.Errorf("unknown provider status %q", providerStatus)
	}
}
