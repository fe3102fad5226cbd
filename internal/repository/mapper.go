package repository

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/andikarp/keranjang/internal/domain"
)

func NumericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{
		Exp:              d.Exponent(),
		InfinityModifier: pgtype.Finite,
		Int:              d.Coefficient(),
		NaN:              false,
		Valid:            true,
	}
}

func DecimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func (c Cart) Domain(items []CartItem) domain.Cart {
	domainItems := make([]domain.CartItem, len(items))
	for i, item := range items {
		domainItems[i] = item.Domain()
	}
	return domain.Cart{
		ID:          c.ID,
		UserID:      nullUUID(c.UserID),
		SessionKey:  c.SessionKey.String,
		Completed:   c.Completed,
		CompletedAt: c.CompletedAt.Time,
		TotalItems:  c.TotalItems,
		Subtotal:    DecimalFromNumeric(c.Subtotal),
		Tax:         DecimalFromNumeric(c.Tax),
		Total:       DecimalFromNumeric(c.Total),
		Version:     c.Version,
		CreatedAt:   c.CreatedAt.Time,
		ModifiedAt:  c.ModifiedAt.Time,
		Items:       domainItems,
	}
}

func (i CartItem) Domain() domain.CartItem {
	return domain.CartItem{
		ID:         i.ID,
		CartID:     i.CartID,
		ProductID:  nullUUID(i.ProductID),
		Name:       i.Name,
		Quantity:   i.Quantity,
		UnitPrice:  DecimalFromNumeric(i.UnitPrice),
		Version:    i.Version,
		CreatedAt:  i.CreatedAt.Time,
		ModifiedAt: i.ModifiedAt.Time,
	}
}

func (e CartEvent) Domain() domain.CartEvent {
	return domain.CartEvent{
		ID:        e.ID,
		CartID:    e.CartID,
		ProductID: nullUUID(e.ProductID),
		EventType: domain.EventType(e.EventType),
		Quantity:  e.Quantity,
		CreatedAt: e.CreatedAt.Time,
	}
}

func (p Product) Domain() domain.Product {
	return domain.Product{
		ID:        p.ID,
		Name:      p.Name,
		Price:     DecimalFromNumeric(p.Price),
		Stock:     p.Stock,
		Status:    domain.ProductStatus(p.Status),
		Available: p.Available,
	}
}
