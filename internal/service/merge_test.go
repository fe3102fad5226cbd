package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/andikarp/keranjang/internal/domain"
	"github.com/andikarp/keranjang/pkg/request"
)

func TestMergeGuestCartIntoCustomerCart(t *testing.T) {
	background := context.Background()
	sessionKey := uuid.NewString()
	guestCtx := guestContext(background, sessionKey)
	userCtx := userContext(background, userId)

	h := setup(t)(background, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	guestCart, err := h.cartService.AddItem(guestCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 2})
	assert.NoError(t, err)
	customerBefore, err := h.cartService.AddItem(userCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)

	err = h.mergeService.MergeGuestCart(background, userId, sessionKey)
	assert.NoError(t, err)

	customerAfter, err := h.cartService.GetCart(userCtx)
	assert.NoError(t, err)
	assert.Len(t, customerAfter.Items, 1)
	assert.Equal(t, int32(3), customerAfter.TotalItems)
	assert.Equal(t, "30.00", customerAfter.Subtotal.StringFixed(2))

	// The whole merge is one version bump regardless of line count.
	assert.Equal(t, customerBefore.Version+1, customerAfter.Version)

	// The guest cart is completed and never resolves again.
	_, err = h.queries.FindActiveCartBySessionKey(background, sessionKey)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	guestVersion, err := h.queries.GetCartVersion(background, guestCart.ID)
	assert.NoError(t, err)
	assert.Equal(t, guestCart.Version, guestVersion)
}

func TestMergeClampsToAvailableStock(t *testing.T) {
	background := context.Background()
	sessionKey := uuid.NewString()
	guestCtx := guestContext(background, sessionKey)
	userCtx := userContext(background, userId)

	h := setup(t)(background, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(guestCtx, request.AddCartItem{ProductId: mouseId, Quantity: 4})
	assert.NoError(t, err)
	_, err = h.cartService.AddItem(userCtx, request.AddCartItem{ProductId: mouseId, Quantity: 3})
	assert.NoError(t, err)

	err = h.mergeService.MergeGuestCart(background, userId, sessionKey)
	assert.NoError(t, err)

	customer, err := h.cartService.GetCart(userCtx)
	assert.NoError(t, err)
	assert.Len(t, customer.Items, 1)
	assert.Equal(t, int32(5), customer.TotalItems)

	// The merge event records the 2 units that actually landed, not the
	// guest's pre-clamp 4.
	events, err := h.cartService.GetCartEvents(userCtx)
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, string(domain.EventAdd), events[0].EventType)
	assert.Equal(t, int32(2), events[0].Quantity)
}

func TestMergeCreatesCustomerCartWhenAbsent(t *testing.T) {
	background := context.Background()
	sessionKey := uuid.NewString()
	guestCtx := guestContext(background, sessionKey)
	userCtx := userContext(background, userId)

	h := setup(t)(background, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(guestCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 2})
	assert.NoError(t, err)

	err = h.mergeService.MergeGuestCart(background, userId, sessionKey)
	assert.NoError(t, err)

	customer, err := h.cartService.GetCart(userCtx)
	assert.NoError(t, err)
	assert.Equal(t, int32(2), customer.TotalItems)
	assert.Equal(t, "20.00", customer.Subtotal.StringFixed(2))
}

func TestMergeWithoutGuestCartIsNoop(t *testing.T) {
	background := context.Background()
	userCtx := userContext(background, userId)

	h := setup(t)(background, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	before, err := h.cartService.AddItem(userCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)

	err = h.mergeService.MergeGuestCart(background, userId, uuid.NewString())
	assert.NoError(t, err)

	after, err := h.cartService.GetCart(userCtx)
	assert.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, int32(1), after.TotalItems)
}

func TestMergeEmptyGuestCartIsNoop(t *testing.T) {
	background := context.Background()
	sessionKey := uuid.NewString()
	guestCtx := guestContext(background, sessionKey)
	userCtx := userContext(background, userId)

	h := setup(t)(background, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	// Add then remove leaves an active guest cart with zero lines.
	_, err := h.cartService.AddItem(guestCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)
	guestCart, err := h.cartService.RemoveItem(guestCtx, request.RemoveCartItem{ProductId: keyboardId})
	assert.NoError(t, err)
	assert.Empty(t, guestCart.Items)

	before, err := h.cartService.AddItem(userCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)

	err = h.mergeService.MergeGuestCart(background, userId, sessionKey)
	assert.NoError(t, err)

	after, err := h.cartService.GetCart(userCtx)
	assert.NoError(t, err)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, int32(1), after.TotalItems)

	// Nothing was merged from the guest cart, so it stays active.
	row, err := h.queries.FindActiveCartBySessionKey(background, sessionKey)
	assert.NoError(t, err)
	assert.Equal(t, guestCart.Version, row.Version)
}

func TestMergeIsIdempotentPerSession(t *testing.T) {
	background := context.Background()
	sessionKey := uuid.NewString()
	guestCtx := guestContext(background, sessionKey)
	userCtx := userContext(background, userId)

	h := setup(t)(background, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	_, err := h.cartService.AddItem(guestCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 2})
	assert.NoError(t, err)

	err = h.mergeService.MergeGuestCart(background, userId, sessionKey)
	assert.NoError(t, err)
	afterFirst, err := h.cartService.GetCart(userCtx)
	assert.NoError(t, err)

	// The guest cart completed on the first merge, so a replay has nothing
	// left to move.
	err = h.mergeService.MergeGuestCart(background, userId, sessionKey)
	assert.NoError(t, err)
	afterSecond, err := h.cartService.GetCart(userCtx)
	assert.NoError(t, err)

	assert.Equal(t, afterFirst.Version, afterSecond.Version)
	assert.Equal(t, afterFirst.TotalItems, afterSecond.TotalItems)
}
