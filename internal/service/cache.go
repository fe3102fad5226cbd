package service

import (
	"fmt"

	"github.com/andikarp/keranjang/internal/domain"
)

const (
	cacheKeyUserCart    = "carts:user:%s"
	cacheKeySessionCart = "carts:session:%s"
)

func cartCacheKey(cart domain.Cart) string {
	if cart.UserID.Valid {
		return fmt.Sprintf(cacheKeyUserCart, cart.UserID.UUID.String())
	}
	return fmt.Sprintf(cacheKeySessionCart, cart.SessionKey)
}
