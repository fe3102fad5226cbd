package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
)

// Product is the catalog view the cart engine works against. The catalog
// subsystem owns it; carts only ever hold a non-owning reference.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int32           `json:"stock"`
	Status    ProductStatus   `json:"status"`
	Available bool            `json:"available"`
}
