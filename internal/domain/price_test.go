package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestItemTotal(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int32
		unitPrice string
		expected  string
	}{
		{name: "two units of 10.00", quantity: 2, unitPrice: "10.00", expected: "20.00"},
		{name: "single unit", quantity: 1, unitPrice: "25.50", expected: "25.50"},
		{name: "rounds half up", quantity: 3, unitPrice: "0.335", expected: "1.01"},
		{name: "zero quantity", quantity: 0, unitPrice: "10.00", expected: "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unitPrice := decimal.RequireFromString(tt.unitPrice)
			actual := ItemTotal(tt.quantity, unitPrice)
			assert.Equal(t, tt.expected, actual.StringFixed(2))
		})
	}
}

func TestPricePipeline(t *testing.T) {
	items := []CartItem{
		{
			ID:        uuid.New(),
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("10.00"),
		},
	}

	subtotal := CartSubtotal(items)
	tax := Tax(subtotal)
	total := Total(subtotal, tax)

	assert.Equal(t, "20.00", subtotal.StringFixed(2))
	assert.Equal(t, "3.80", tax.StringFixed(2))
	assert.Equal(t, "23.80", total.StringFixed(2))
}

func TestTaxRoundsPerStep(t *testing.T) {
	// Tax on 10.03 is 1.9057, which must round to 1.91 before entering the
	// total instead of staying at full precision.
	subtotal := decimal.RequireFromString("10.03")
	tax := Tax(subtotal)
	total := Total(subtotal, tax)

	assert.Equal(t, "1.91", tax.StringFixed(2))
	assert.Equal(t, "11.94", total.StringFixed(2))
}

func TestCartSubtotalSumsLineTotals(t *testing.T) {
	items := []CartItem{
		{ID: uuid.New(), Quantity: 3, UnitPrice: decimal.RequireFromString("0.335")},
		{ID: uuid.New(), Quantity: 3, UnitPrice: decimal.RequireFromString("0.335")},
	}

	// Each line rounds to 1.01 first, so the subtotal is 2.02 and not the
	// 2.01 a raw 6*0.335 would give.
	assert.Equal(t, "2.02", CartSubtotal(items).StringFixed(2))
}
