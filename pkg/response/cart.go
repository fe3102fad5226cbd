package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Cart struct {
	ID              uuid.UUID       `json:"id"`
	Items           []CartItem      `json:"items"`
	TotalItems      int32           `json:"total_items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	SubtotalDisplay string          `json:"subtotal_display"`
	Tax             decimal.Decimal `json:"tax"`
	TaxDisplay      string          `json:"tax_display"`
	Total           decimal.Decimal `json:"total"`
	TotalDisplay    string          `json:"total_display"`
	Version         int32           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	ModifiedAt      time.Time       `json:"modified_at"`
}

type CartItem struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.NullUUID   `json:"product_id"`
	Name             string          `json:"name"`
	Quantity         int32           `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	UnitPriceDisplay string          `json:"unit_price_display"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	SubtotalDisplay  string          `json:"subtotal_display"`
}

type CartEvent struct {
	ID        uuid.UUID     `json:"id"`
	CartID    uuid.UUID     `json:"cart_id"`
	ProductID uuid.NullUUID `json:"product_id"`
	EventType string        `json:"event_type"`
	Quantity  int32         `json:"quantity"`
	CreatedAt time.Time     `json:"created_at"`
}

// DisplayPrice renders a monetary amount as a currency string alongside the
// exact decimal value carried in the same payload.
func DisplayPrice(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
