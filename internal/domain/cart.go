package domain

import (
	goerrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/andikarp/keranjang/internal/errors"
)

// Cart is the aggregate root. Exactly one of UserID and SessionKey identifies
// the owner; an active (non-completed) cart is unique per owner. Version is
// the optimistic lock counter and increases by exactly 1 per persisted
// mutation.
type Cart struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.NullUUID   `json:"user_id"`
	SessionKey  string          `json:"session_key"`
	Completed   bool            `json:"completed"`
	CompletedAt time.Time       `json:"completed_at"`
	TotalItems  int32           `json:"total_items"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
	Version     int32           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	ModifiedAt  time.Time       `json:"modified_at"`
	Items       []CartItem      `json:"items"`
}

// CartItem is a line in a cart, unique per (cart, product). UnitPrice is a
// snapshot taken when the product was last added, decoupled from the live
// catalog price. ProductID goes null when the product is deleted; the line and
// its last-known quantity and price persist for history.
type CartItem struct {
	ID         uuid.UUID       `json:"id"`
	CartID     uuid.UUID       `json:"cart_id"`
	ProductID  uuid.NullUUID   `json:"product_id"`
	Name       string          `json:"name"`
	Quantity   int32           `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Version    int32           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	ModifiedAt time.Time       `json:"modified_at"`
}

func (i CartItem) Total() decimal.Decimal {
	return ItemTotal(i.Quantity, i.UnitPrice)
}

func (c *Cart) Item(productID uuid.UUID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID.Valid && c.Items[i].ProductID.UUID == productID {
			return &c.Items[i]
		}
	}
	return nil
}

// MergedQuantity is the absolute quantity the cart would hold after adding
// requested units of the product. This merged total is what gets validated
// against stock.
func (c *Cart) MergedQuantity(productID uuid.UUID, requested int32) int32 {
	if item := c.Item(productID); item != nil {
		return item.Quantity + requested
	}
	return requested
}

// AddItem merges requested units of the product into the cart, re-snapshotting
// the unit price from the current catalog price on every add.
func (c *Cart) AddItem(product Product, requested int32) (*CartItem, error) {
	if c.Completed {
		return nil, errors.ErrCartAlreadyCompleted
	}
	existing := c.Item(product.ID)
	merged := requested
	if existing != nil {
		merged = existing.Quantity + requested
	}
	if err := ValidateStock(&product, merged); err != nil {
		var stockErr errors.StockNotAvailableError
		if existing != nil && goerrors.As(err, &stockErr) {
			available := product.Stock - existing.Quantity
			if available < 0 {
				available = 0
			}
			return nil, errors.StockNotAvailableError{AvailableStock: available}
		}
		return nil, err
	}
	if existing != nil {
		existing.Quantity = merged
		existing.UnitPrice = product.Price
		existing.Version++
		c.Recalculate()
		return existing, nil
	}
	c.Items = append(c.Items, CartItem{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: uuid.NullUUID{UUID: product.ID, Valid: true},
		Name:      product.Name,
		Quantity:  requested,
		UnitPrice: product.Price,
		Version:   1,
	})
	c.Recalculate()
	return &c.Items[len(c.Items)-1], nil
}

// PutItem forces the line for the product to the given quantity without stock
// validation, snapshotting the current catalog price. Merge uses it after
// clamping quantities to available stock itself.
func (c *Cart) PutItem(product Product, quantity int32) *CartItem {
	if existing := c.Item(product.ID); existing != nil {
		existing.Quantity = quantity
		existing.UnitPrice = product.Price
		existing.Name = product.Name
		existing.Version++
		c.Recalculate()
		return existing
	}
	c.Items = append(c.Items, CartItem{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: uuid.NullUUID{UUID: product.ID, Valid: true},
		Name:      product.Name,
		Quantity:  quantity,
		UnitPrice: product.Price,
		Version:   1,
	})
	c.Recalculate()
	return &c.Items[len(c.Items)-1]
}

// UpdateItemQuantity sets the absolute quantity of an existing line.
func (c *Cart) UpdateItemQuantity(product Product, quantity int32) (*CartItem, error) {
	if c.Completed {
		return nil, errors.ErrCartAlreadyCompleted
	}
	item := c.Item(product.ID)
	if item == nil {
		return nil, errors.ErrItemNotFound
	}
	if err := ValidateStock(&product, quantity); err != nil {
		return nil, err
	}
	item.Quantity = quantity
	item.Version++
	c.Recalculate()
	return item, nil
}

func (c *Cart) RemoveItem(productID uuid.UUID) (CartItem, error) {
	if c.Completed {
		return CartItem{}, errors.ErrCartAlreadyCompleted
	}
	for i := range c.Items {
		if c.Items[i].ProductID.Valid && c.Items[i].ProductID.UUID == productID {
			removed := c.Items[i]
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.Recalculate()
			return removed, nil
		}
	}
	return CartItem{}, errors.ErrItemNotFound
}

func (c *Cart) Clear() error {
	if c.Completed {
		return errors.ErrCartAlreadyCompleted
	}
	c.Items = nil
	c.Recalculate()
	return nil
}

// Recalculate recomputes the denormalized totals from the current line items.
// It mutates only the in-memory aggregate; persisting is the caller's call.
func (c *Cart) Recalculate() {
	var totalItems int32
	for _, item := range c.Items {
		totalItems += item.Quantity
	}
	c.TotalItems = totalItems
	c.Subtotal = CartSubtotal(c.Items)
	c.Tax = Tax(c.Subtotal)
	c.Total = Total(c.Subtotal, c.Tax)
}

// MarkExpired transitions the cart to its terminal completed state. Idempotent.
func (c *Cart) MarkExpired(now time.Time) {
	if c.Completed {
		return
	}
	c.Completed = true
	c.CompletedAt = now
}

func (c Cart) IsExpired(ttl time.Duration, now time.Time) bool {
	return !c.Completed && now.Sub(c.ModifiedAt) > ttl
}
