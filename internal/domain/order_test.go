package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"pending to paid", StatusPending, StatusPaid, true},
		{"pending to canceled", StatusPending, StatusCanceled, true},
		{"pending to shipped skips paid", StatusPending, StatusShipped, false},
		{"paid to processing", StatusPaid, StatusProcessing, true},
		{"paid to canceled", StatusPaid, StatusCanceled, true},
		{"paid to delivered skips steps", StatusPaid, StatusDelivered, false},
		{"processing to shipped", StatusProcessing, StatusShipped, true},
		{"shipped to delivered", StatusShipped, StatusDelivered, true},
		{"shipped to canceled", StatusShipped, StatusCanceled, true},
		{"delivered is terminal", StatusDelivered, StatusCanceled, false},
		{"delivered cannot regress", StatusDelivered, StatusPending, false},
		{"canceled is terminal", StatusCanceled, StatusPaid, false},
		{"no backwards paid to pending", StatusPaid, StatusPending, false},
		{"awaiting_payment is not a stored state", StatusAwaitingPayment, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := &Order{Status: tt.from}
			assert.Equal(t, tt.allowed, o.CanTransitionTo(tt.to))
		})
	}
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCanceled))
	assert.True(t, IsTerminalStatus(StatusDelivered))
	assert.False(t, IsTerminalStatus(StatusPending))
	assert.False(t, IsTerminalStatus(StatusShipped))
}

func TestIsValidStatus(t *testing.T) {
	for _, s := range StorableStatuses() {
		assert.True(t, IsValidStatus(s))
	}
	assert.False(t, IsValidStatus(StatusAwaitingPayment))
	assert.False(t, IsValidStatus("refunded"))
}

func TestNewLineItemSnapshotsPrice(t *testing.T) {
	p := &Product{ID: "prod-1", Name: "Gold Ring", PriceCents: 10000, Stock: 5}

	item := NewLineItem("item-1", "order-1", p, 3)

	assert.Equal(t, "Gold Ring", item.ProductName)
	assert.Equal(t, int64(10000), item.UnitPriceCents)
	assert.Equal(t, int64(30000), item.SubtotalCents)

	// Later catalog changes must not affect the snapshot.
	p.PriceCents = 99999
	p.Name = "Renamed"
	assert.Equal(t, "Gold Ring", item.ProductName)
	assert.Equal(t, int64(10000), item.UnitPriceCents)
}

func TestTotalCents(t *testing.T) {
	items := []LineItem{
		{SubtotalCents: 10000},
		{SubtotalCents: 40000},
	}
	assert.Equal(t, int64(50000), TotalCents(items))
	assert.Zero(t, TotalCents(nil))
}
