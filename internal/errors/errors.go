package errors

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrEmptyAuth          = errors.New("missing authorization")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidProductId     = errors.New("invalid product id")
	ErrItemNotFound         = errors.New("item not found in cart")
	ErrProductUnavailable   = errors.New("product is unavailable")
	ErrCartAlreadyCompleted = errors.New("cart is already completed")

	ErrVersionConflict    = errors.New("cart version conflict")
	ErrVersionLockTimeout = errors.New("cart lock acquisition timed out")

	ErrActiveCartExists = errors.New("active cart already exists")
)

// StockNotAvailableError carries the remaining stock so the caller can tell
// the client how many units are still orderable.
type StockNotAvailableError struct {
	AvailableStock int32
}

func (e StockNotAvailableError) Error() string {
	return fmt.Sprintf("stock not available, remaining stock=%d", e.AvailableStock)
}

func HandleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}

// IsClientError reports whether err is fixable by the client, as opposed to a
// transient concurrency error or an unexpected failure.
func IsClientError(err error) bool {
	var stockErr StockNotAvailableError
	return errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidProductId) ||
		errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrProductUnavailable) ||
		errors.Is(err, ErrCartAlreadyCompleted) ||
		errors.As(err, &stockErr)
}

func IsConcurrencyError(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrVersionLockTimeout)
}
