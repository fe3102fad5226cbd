package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/andikarp/keranjang/internal/domain"
	inErrors "github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/repository"
)

// ProductCatalog resolves a product reference to its current price, stock and
// availability. The catalog subsystem owns products; the cart engine only
// reads them.
type ProductCatalog interface {
	GetProduct(c context.Context, id uuid.UUID) (domain.Product, error)
}

type databaseCatalog struct {
	queries *repository.Queries
}

func NewDatabaseCatalog(queries *repository.Queries) ProductCatalog {
	return databaseCatalog{queries: queries}
}

func (s databaseCatalog) GetProduct(c context.Context, id uuid.UUID) (domain.Product, error) {
	c, span := otel.Tracer.Start(c, "databaseCatalog GetProduct")
	defer span.End()

	product, err := s.queries.FindProductById(c, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Product{}, inErrors.ErrInvalidProductId
		}
		err = fmt.Errorf("failed finding productId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		return domain.Product{}, err
	}
	return product.Domain(), nil
}

type httpCatalog struct {
	baseURL string
}

// NewHTTPCatalog talks to a remote catalog service. Used when the catalog does
// not share this service's database.
func NewHTTPCatalog(baseURL string) ProductCatalog {
	return httpCatalog{baseURL: baseURL}
}

func (s httpCatalog) GetProduct(c context.Context, id uuid.UUID) (domain.Product, error) {
	c, span := otel.Tracer.Start(c, "httpCatalog GetProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "httpCatalog GetProduct").
		Str(log.KeyProductID, id.String()).
		Logger()

	req, err := http.NewRequestWithContext(c, http.MethodGet, s.baseURL+"/"+id.String(), nil)
	if err != nil {
		err = fmt.Errorf("failed creating product request with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Product{}, err
	}
	resp, err := otelhttp.DefaultClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed getting productId=%s with error=%w", id.String(), err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Product{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return domain.Product{}, inErrors.ErrInvalidProductId
	}
	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("catalog returned status code=%d for productId=%s", resp.StatusCode, id.String())
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Product{}, err
	}

	body := struct {
		Data struct {
			Product domain.Product `json:"product"`
		} `json:"data"`
	}{}
	err = json.NewDecoder(resp.Body).Decode(&body)
	if err != nil {
		err = fmt.Errorf("failed decoding product response with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Product{}, err
	}
	return body.Data.Product, nil
}
