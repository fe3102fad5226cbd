package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/andikarp/keranjang/internal/errors"
)

func keyboard() Product {
	return Product{
		ID:        uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Name:      "Mechanical Keyboard",
		Price:     decimal.RequireFromString("10.00"),
		Stock:     1000,
		Status:    ProductStatusActive,
		Available: true,
	}
}

func mouse() Product {
	return Product{
		ID:        uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		Name:      "Vertical Mouse",
		Price:     decimal.RequireFromString("25.50"),
		Stock:     5,
		Status:    ProductStatusActive,
		Available: true,
	}
}

func newCart() *Cart {
	return &Cart{ID: uuid.New(), Version: 1}
}

func TestAddItemRecalculatesTotals(t *testing.T) {
	cart := newCart()

	_, err := cart.AddItem(keyboard(), 2)

	assert.NoError(t, err)
	assert.Equal(t, int32(2), cart.TotalItems)
	assert.Equal(t, "20.00", cart.Subtotal.StringFixed(2))
	assert.Equal(t, "3.80", cart.Tax.StringFixed(2))
	assert.Equal(t, "23.80", cart.Total.StringFixed(2))
}

func TestAddItemMergesExistingLine(t *testing.T) {
	cart := newCart()

	_, err := cart.AddItem(keyboard(), 2)
	assert.NoError(t, err)
	item, err := cart.AddItem(keyboard(), 3)
	assert.NoError(t, err)

	assert.Len(t, cart.Items, 1)
	assert.Equal(t, int32(5), item.Quantity)
	assert.Equal(t, int32(5), cart.TotalItems)
}

func TestAddItemValidatesMergedQuantity(t *testing.T) {
	cart := newCart()

	_, err := cart.AddItem(mouse(), 5)
	assert.NoError(t, err)

	// The cart already holds all 5 units, so nothing more can be added.
	_, err = cart.AddItem(mouse(), 1)
	assert.ErrorIs(t, err, errors.StockNotAvailableError{AvailableStock: 0})
	assert.Equal(t, int32(5), cart.TotalItems)
}

func TestAddItemReportsRemainingStock(t *testing.T) {
	cart := newCart()

	_, err := cart.AddItem(mouse(), 3)
	assert.NoError(t, err)

	_, err = cart.AddItem(mouse(), 4)
	assert.ErrorIs(t, err, errors.StockNotAvailableError{AvailableStock: 2})
}

func TestAddItemResnapshotsUnitPrice(t *testing.T) {
	cart := newCart()

	_, err := cart.AddItem(keyboard(), 1)
	assert.NoError(t, err)

	repriced := keyboard()
	repriced.Price = decimal.RequireFromString("12.00")
	item, err := cart.AddItem(repriced, 1)
	assert.NoError(t, err)

	assert.Equal(t, "12.00", item.UnitPrice.StringFixed(2))
	assert.Equal(t, "24.00", cart.Subtotal.StringFixed(2))
}

func TestAddItemOnCompletedCart(t *testing.T) {
	cart := newCart()
	cart.MarkExpired(time.Now())

	_, err := cart.AddItem(keyboard(), 1)

	assert.ErrorIs(t, err, errors.ErrCartAlreadyCompleted)
}

func TestUpdateItemQuantity(t *testing.T) {
	cart := newCart()
	_, err := cart.AddItem(mouse(), 2)
	assert.NoError(t, err)

	item, err := cart.UpdateItemQuantity(mouse(), 4)

	assert.NoError(t, err)
	assert.Equal(t, int32(4), item.Quantity)
	assert.Equal(t, int32(4), cart.TotalItems)
}

func TestUpdateAbsentItem(t *testing.T) {
	cart := newCart()

	_, err := cart.UpdateItemQuantity(mouse(), 1)

	assert.ErrorIs(t, err, errors.ErrItemNotFound)
}

func TestUpdateItemQuantityOverStock(t *testing.T) {
	cart := newCart()
	_, err := cart.AddItem(mouse(), 2)
	assert.NoError(t, err)

	_, err = cart.UpdateItemQuantity(mouse(), 6)

	assert.ErrorIs(t, err, errors.StockNotAvailableError{AvailableStock: 5})
	assert.Equal(t, int32(2), cart.TotalItems)
}

func TestRemoveItem(t *testing.T) {
	cart := newCart()
	_, err := cart.AddItem(keyboard(), 2)
	assert.NoError(t, err)
	_, err = cart.AddItem(mouse(), 1)
	assert.NoError(t, err)

	removed, err := cart.RemoveItem(keyboard().ID)

	assert.NoError(t, err)
	assert.Equal(t, int32(2), removed.Quantity)
	assert.Len(t, cart.Items, 1)
	assert.Equal(t, "25.50", cart.Subtotal.StringFixed(2))
}

func TestRemoveAbsentItem(t *testing.T) {
	cart := newCart()

	_, err := cart.RemoveItem(uuid.New())

	assert.ErrorIs(t, err, errors.ErrItemNotFound)
}

func TestClearCart(t *testing.T) {
	cart := newCart()
	_, err := cart.AddItem(keyboard(), 2)
	assert.NoError(t, err)

	err = cart.Clear()

	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, int32(0), cart.TotalItems)
	assert.Equal(t, "0.00", cart.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", cart.Total.StringFixed(2))
}

func TestPutItemSkipsStockValidation(t *testing.T) {
	cart := newCart()

	item := cart.PutItem(mouse(), 5)

	assert.Equal(t, int32(5), item.Quantity)
	assert.Equal(t, int32(5), cart.TotalItems)
}

func TestMarkExpiredIsIdempotent(t *testing.T) {
	cart := newCart()
	first := time.Now().Add(-time.Hour)

	cart.MarkExpired(first)
	cart.MarkExpired(time.Now())

	assert.True(t, cart.Completed)
	assert.Equal(t, first, cart.CompletedAt)
}

func TestIsExpired(t *testing.T) {
	now := time.Now()
	cart := newCart()
	cart.ModifiedAt = now.Add(-25 * time.Hour)

	assert.True(t, cart.IsExpired(24*time.Hour, now))

	cart.ModifiedAt = now.Add(-time.Hour)
	assert.False(t, cart.IsExpired(24*time.Hour, now))

	cart.ModifiedAt = now.Add(-25 * time.Hour)
	cart.MarkExpired(now)
	assert.False(t, cart.IsExpired(24*time.Hour, now))
}
