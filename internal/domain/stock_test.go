package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/andikarp/keranjang/internal/errors"
)

func TestValidateStock(t *testing.T) {
	active := &Product{
		ID:        uuid.New(),
		Name:      "Mechanical Keyboard",
		Price:     decimal.RequireFromString("10.00"),
		Stock:     5,
		Status:    ProductStatusActive,
		Available: true,
	}
	inactive := &Product{
		ID:        uuid.New(),
		Name:      "Discontinued Webcam",
		Price:     decimal.RequireFromString("5.00"),
		Stock:     10,
		Status:    "INACTIVE",
		Available: false,
	}

	tests := []struct {
		name        string
		product     *Product
		requested   int32
		expectedErr error
	}{
		{name: "within stock", product: active, requested: 5, expectedErr: nil},
		{name: "zero quantity", product: active, requested: 0, expectedErr: errors.ErrInvalidQuantity},
		{name: "negative quantity", product: active, requested: -3, expectedErr: errors.ErrInvalidQuantity},
		{name: "nil product", product: nil, requested: 1, expectedErr: errors.ErrProductUnavailable},
		{name: "inactive product", product: inactive, requested: 1, expectedErr: errors.ErrProductUnavailable},
		{
			name:        "over stock",
			product:     active,
			requested:   6,
			expectedErr: errors.StockNotAvailableError{AvailableStock: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStock(tt.product, tt.requested)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}
