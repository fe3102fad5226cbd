package controller

import (
	"context"
	goerrors "errors"
	"net/http"

	inErrors "github.com/andikarp/keranjang/internal/errors"
	inHttp "github.com/andikarp/keranjang/internal/http"
)

// writeErrorResponse maps a service error onto the error taxonomy: 4xx for
// errors the client can fix, 409 for concurrency errors that survived the
// retries, 500 for everything else.
func writeErrorResponse(c context.Context, w http.ResponseWriter, err error) {
	body := map[string]interface{}{
		"status":     "failed",
		"statusCode": statusFromError(err),
		"message":    err.Error(),
	}
	var stockErr inErrors.StockNotAvailableError
	if goerrors.As(err, &stockErr) {
		body["data"] = map[string]interface{}{
			"available_stock": stockErr.AvailableStock,
		}
	}
	inHttp.WriteJsonResponse(c, w, map[string]string{}, body)
}

func statusFromError(err error) int {
	switch {
	case goerrors.Is(err, inErrors.ErrItemNotFound),
		goerrors.Is(err, inErrors.ErrInvalidProductId):
		return http.StatusNotFound
	case goerrors.Is(err, inErrors.ErrEmptyAuth),
		goerrors.Is(err, inErrors.ErrTokenInvalid),
		goerrors.Is(err, inErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case goerrors.Is(err, inErrors.ErrEmailTaken):
		return http.StatusConflict
	case inErrors.IsClientError(err):
		return http.StatusBadRequest
	case inErrors.IsConcurrencyError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
