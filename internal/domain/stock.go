package domain

import (
	"github.com/andikarp/keranjang/internal/errors"
)

// ValidateStock checks the requested quantity against the product's
// availability and stock. The requested quantity must always be the absolute
// quantity after a merge, never a delta; validating a delta alone undercounts
// when the product is already in the cart.
func ValidateStock(product *Product, requested int32) error {
	if requested < 1 {
		return errors.ErrInvalidQuantity
	}
	if product == nil || !product.Available || product.Status != ProductStatusActive {
		return errors.ErrProductUnavailable
	}
	if requested > product.Stock {
		return errors.StockNotAvailableError{AvailableStock: product.Stock}
	}
	return nil
}
