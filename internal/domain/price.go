package domain

import (
	"github.com/shopspring/decimal"
)

// TaxRate applies to the whole cart subtotal.
var TaxRate = decimal.NewFromFloat(0.19)

// ItemTotal is quantity * unitPrice rounded half-up to 2 decimal places at the
// point of storage.
func ItemTotal(quantity int32, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt32(quantity)).Round(2)
}

// CartSubtotal sums the already-rounded line totals.
func CartSubtotal(items []CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(ItemTotal(item.Quantity, item.UnitPrice))
	}
	return subtotal.Round(2)
}

// Tax is computed from the rounded subtotal, not summed from per-item tax.
func Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

// Total is subtotal + tax, each stage independently quantized. The ordering
// matters: subtotal first, tax from the rounded subtotal, then total.
func Total(subtotal, tax decimal.Decimal) decimal.Decimal {
	return subtotal.Add(tax).Round(2)
}
