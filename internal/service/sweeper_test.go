package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"

	"github.com/andikarp/keranjang/pkg/request"
)

func TestSweeperCompletesExpiredCarts(t *testing.T) {
	background := context.Background()
	staleSession := uuid.NewString()
	staleCtx := guestContext(background, staleSession)
	freshSession := uuid.NewString()
	freshCtx := guestContext(background, freshSession)

	h := setup(t)(background, filepath.Join("seed", "products.seed.sql"))
	defer teardown(t)(h)

	stale, err := h.cartService.AddItem(staleCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)
	_, err = h.cartService.AddItem(freshCtx, request.AddCartItem{ProductId: keyboardId, Quantity: 1})
	assert.NoError(t, err)

	_, err = h.pool.Exec(background,
		"UPDATE carts SET modified_at = now() - interval '25 hours' WHERE id = $1", stale.ID)
	assert.NoError(t, err)

	sweeper := NewSweeper(h.queries, h.retriever, 24*time.Hour)
	swept, err := sweeper.SweepExpiredCarts(background)

	assert.NoError(t, err)
	assert.Equal(t, 1, swept)

	_, err = h.queries.FindActiveCartBySessionKey(background, staleSession)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	_, err = h.queries.FindActiveCartBySessionKey(background, freshSession)
	assert.NoError(t, err)

	// A swept owner gets a brand new cart on the next request.
	replacement, err := h.cartService.GetCart(staleCtx)
	assert.NoError(t, err)
	assert.NotEqual(t, stale.ID, replacement.ID)
	assert.Empty(t, replacement.Items)
}
