package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/andikarp/keranjang/internal/domain"
	"github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/pkg/request"
)

func TestAddItemCalculatesTotals(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	cart, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: keyboardId, Quantity: 2})

	assert.NoError(t, err)
	assert.Equal(t, int32(2), cart.TotalItems)
	assert.Equal(t, "20.00", cart.Subtotal.StringFixed(2))
	assert.Equal(t, "3.80", cart.Tax.StringFixed(2))
	assert.Equal(t, "23.80", cart.Total.StringFixed(2))
	assert.Equal(t, int32(2), cart.Version)
}

func TestAddItemBumpsVersionPerMutation(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	first, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)
	second, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)

	assert.Equal(t, first.Version+1, second.Version)
	assert.Len(t, second.Items, 1)
	assert.Equal(t, int32(2), second.TotalItems)
}

func TestAddItemOverStockReportsRemaining(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	cart, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: mouseId, Quantity: 5})
	assert.NoError(t, err)

	_, err = h.cartService.AddItem(c, request.AddCartItem{ProductId: mouseId, Quantity: 1})
	assert.ErrorIs(t, err, errors.StockNotAvailableError{AvailableStock: 0})

	// A rejected add leaves the cart untouched.
	after, err := h.cartService.GetCart(c)
	assert.NoError(t, err)
	assert.Equal(t, cart.Version, after.Version)
	assert.Equal(t, int32(5), after.TotalItems)
}

func TestAddUnavailableProduct(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: webcamId, Quantity: 1})

	assert.ErrorIs(t, err, errors.ErrProductUnavailable)
}

func TestAddUnknownProduct(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: uuid.New(), Quantity: 1})

	assert.ErrorIs(t, err, errors.ErrInvalidProductId)
}

func TestUpdateAbsentItem(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.UpdateItemQuantity(c, request.UpdateCartItem{ProductId: keyboardId, Quantity: 2})

	assert.ErrorIs(t, err, errors.ErrItemNotFound)
}

func TestRemoveItemRecordsEvent(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: keyboardId, Quantity: 2})
	assert.NoError(t, err)
	cart, err := h.cartService.RemoveItem(c, request.RemoveCartItem{ProductId: keyboardId})
	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, int32(0), cart.TotalItems)

	events, err := h.cartService.GetCartEvents(c)
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, string(domain.EventRemove), events[0].EventType)
	assert.Equal(t, string(domain.EventAdd), events[1].EventType)
}

func TestClearCart(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: keyboardId, Quantity: 2})
	assert.NoError(t, err)
	_, err = h.cartService.AddItem(c, request.AddCartItem{ProductId: mouseId, Quantity: 1})
	assert.NoError(t, err)

	cart, err := h.cartService.ClearCart(c)

	assert.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "0.00", cart.Total.StringFixed(2))
	assert.Equal(t, int32(4), cart.Version)

	// Clearing an already empty cart succeeds and keeps totals at zero.
	again, err := h.cartService.ClearCart(c)
	assert.NoError(t, err)
	assert.Empty(t, again.Items)
	assert.Equal(t, int32(0), again.TotalItems)
	assert.Equal(t, "0.00", again.Total.StringFixed(2))
	assert.Equal(t, cart.Version+1, again.Version)
}

func TestStaleVersionIsRejected(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(c, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)

	stale, err := h.retriever.Resolve(c)
	assert.NoError(t, err)
	stale.Version--

	product, err := h.cartService.catalog.GetProduct(c, keyboardId)
	assert.NoError(t, err)
	_, err = h.cartService.addItemOnce(c, stale, product, 1)
	assert.ErrorIs(t, err, errors.ErrVersionConflict)
}

func TestConcurrentAddsBothApply(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	initial, err := h.cartService.GetCart(c)
	assert.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.cartService.AddItem(c, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
		}(i)
	}
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])

	cart, err := h.cartService.GetCart(c)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), cart.TotalItems)
	assert.Equal(t, initial.Version+2, cart.Version)
}

func TestGetCartReusesActiveCart(t *testing.T) {
	c := guestContext(context.Background(), uuid.NewString())
	h := setup(t)(c, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	first, err := h.cartService.GetCart(c)
	assert.NoError(t, err)
	second, err := h.cartService.GetCart(c)
	assert.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int32(1), second.Version)
}
