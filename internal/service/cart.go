package service

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/domain"
	"github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/metric"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/repository"
	"github.com/andikarp/keranjang/pkg/request"
	"github.com/andikarp/keranjang/pkg/response"
)

// maxMutationAttempts bounds the automatic retries on optimistic lock
// conflicts before the conflict is surfaced to the client.
const maxMutationAttempts = 3

type CartService struct {
	pool        *pgxpool.Pool
	queries     *repository.Queries
	retriever   *CartRetriever
	catalog     ProductCatalog
	lockTimeout int
}

func NewCartService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	retriever *CartRetriever,
	catalog ProductCatalog,
	lockTimeout int,
) *CartService {
	return &CartService{
		pool:        pool,
		queries:     queries,
		retriever:   retriever,
		catalog:     catalog,
		lockTimeout: lockTimeout,
	}
}

func (s *CartService) GetCart(c context.Context) (res response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()
	defer metric.ObserveOperation("get_cart", time.Now(), &err)

	cart, err := s.retriever.Resolve(c)
	if err != nil {
		errors.HandleError(err, span)
		return response.Cart{}, err
	}
	return response.FromCart(cart), nil
}

func (s *CartService) AddItem(c context.Context, param request.AddCartItem) (res response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()
	defer metric.ObserveOperation("add_item", time.Now(), &err)

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyProductID, param.ProductId.String()).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	quantity := param.Quantity
	if quantity == 0 {
		quantity = 1
	}

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	product, err := s.catalog.GetProduct(c, param.ProductId)
	if err != nil {
		err = fmt.Errorf("failed finding product with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	cart, err := s.mutate(c, "add_item", func(c context.Context, expected domain.Cart) (domain.Cart, error) {
		return s.addItemOnce(c, expected, product, quantity)
	})
	if err != nil {
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().
		Str(log.KeyCartID, cart.ID.String()).
		Int32(log.KeyCartVersion, cart.Version).
		Msg("added item to cart")
	return response.FromCart(cart), nil
}

func (s *CartService) UpdateItemQuantity(c context.Context, param request.UpdateCartItem) (res response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateItemQuantity")
	defer span.End()
	defer metric.ObserveOperation("update_item", time.Now(), &err)

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService UpdateItemQuantity").
		Str(log.KeyProductID, param.ProductId.String()).
		Int32(log.KeyQuantity, param.Quantity).
		Logger()

	if param.Quantity < 1 {
		err = errors.ErrInvalidQuantity
		errors.HandleError(err, span)
		return response.Cart{}, err
	}

	cart, err := s.mutate(c, "update_item", func(c context.Context, expected domain.Cart) (domain.Cart, error) {
		return s.updateItemOnce(c, expected, param.ProductId, param.Quantity)
	})
	if err != nil {
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().
		Str(log.KeyCartID, cart.ID.String()).
		Int32(log.KeyCartVersion, cart.Version).
		Msg("updated item quantity")
	return response.FromCart(cart), nil
}

func (s *CartService) RemoveItem(c context.Context, param request.RemoveCartItem) (res response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()
	defer metric.ObserveOperation("remove_item", time.Now(), &err)

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyProductID, param.ProductId.String()).
		Logger()

	cart, err := s.mutate(c, "remove_item", func(c context.Context, expected domain.Cart) (domain.Cart, error) {
		return s.removeItemOnce(c, expected, param.ProductId)
	})
	if err != nil {
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().
		Str(log.KeyCartID, cart.ID.String()).
		Int32(log.KeyCartVersion, cart.Version).
		Msg("removed item from cart")
	return response.FromCart(cart), nil
}

func (s *CartService) ClearCart(c context.Context) (res response.Cart, err error) {
	c, span := otel.Tracer.Start(c, "CartService ClearCart")
	defer span.End()
	defer metric.ObserveOperation("clear_cart", time.Now(), &err)

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ClearCart").
		Logger()

	cart, err := s.mutate(c, "clear_cart", s.clearCartOnce)
	if err != nil {
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().
		Str(log.KeyCartID, cart.ID.String()).
		Int32(log.KeyCartVersion, cart.Version).
		Msg("cleared cart")
	return response.FromCart(cart), nil
}

func (s *CartService) GetCartEvents(c context.Context) (res []response.CartEvent, err error) {
	c, span := otel.Tracer.Start(c, "CartService GetCartEvents")
	defer span.End()
	defer metric.ObserveOperation("get_events", time.Now(), &err)

	cart, err := s.retriever.Resolve(c)
	if err != nil {
		errors.HandleError(err, span)
		return nil, err
	}
	rows, err := s.queries.FindCartEvents(c, cart.ID)
	if err != nil {
		err = fmt.Errorf("failed finding cart events with error=%w", err)
		errors.HandleError(err, span)
		return nil, err
	}
	events := make([]response.CartEvent, len(rows))
	for i, row := range rows {
		events[i] = response.FromCartEvent(row.Domain())
	}
	return events, nil
}

// mutate runs one optimistic mutation attempt against the cart resolved for
// the current owner, retrying on version conflicts and lock timeouts with a
// fresh resolve each round. Client errors and unexpected failures pass
// through untouched.
func (s *CartService) mutate(
	c context.Context,
	operation string,
	once func(context.Context, domain.Cart) (domain.Cart, error),
) (domain.Cart, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService mutate").
		Str(log.KeyProcess, operation).
		Logger()

	var lastErr error
	for attempt := 1; attempt <= maxMutationAttempts; attempt++ {
		expected, err := s.retriever.Resolve(c)
		if err != nil {
			return domain.Cart{}, err
		}

		cart, err := once(c, expected)
		if err == nil {
			s.retriever.Invalidate(c, cart)
			return cart, nil
		}
		if !errors.IsConcurrencyError(err) {
			return domain.Cart{}, err
		}

		metric.VersionConflictTotal.WithLabelValues(operation).Inc()
		logger.Warn().
			Err(err).
			Int(log.KeyAttempt, attempt).
			Str(log.KeyCartID, expected.ID.String()).
			Msg("version conflict, retrying")
		s.retriever.Invalidate(c, expected)
		lastErr = err
	}
	return domain.Cart{}, lastErr
}

func (s *CartService) addItemOnce(
	c context.Context,
	expected domain.Cart,
	product domain.Product,
	quantity int32,
) (domain.Cart, error) {
	tx, cart, qtx, err := s.lockCart(c, expected)
	if err != nil {
		return domain.Cart{}, err
	}
	defer s.rollback(c, tx)

	item, err := cart.AddItem(product, quantity)
	if err != nil {
		return domain.Cart{}, err
	}
	_, err = qtx.UpsertCartItem(c, repository.UpsertCartItemParams{
		ID:        item.ID,
		CartID:    cart.ID,
		ProductID: product.ID,
		Name:      item.Name,
		Quantity:  item.Quantity,
		UnitPrice: repository.NumericFromDecimal(item.UnitPrice),
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed upserting cart item with error=%w", err)
	}
	return s.finishMutation(c, tx, qtx, cart, domain.CartEvent{
		CartID:    cart.ID,
		ProductID: item.ProductID,
		EventType: domain.EventAdd,
		Quantity:  quantity,
	})
}

func (s *CartService) updateItemOnce(
	c context.Context,
	expected domain.Cart,
	productID uuid.UUID,
	quantity int32,
) (domain.Cart, error) {
	tx, cart, qtx, err := s.lockCart(c, expected)
	if err != nil {
		return domain.Cart{}, err
	}
	defer s.rollback(c, tx)

	if cart.Item(productID) == nil {
		return domain.Cart{}, errors.ErrItemNotFound
	}
	product, err := s.catalog.GetProduct(c, productID)
	if err != nil {
		return domain.Cart{}, err
	}
	item, err := cart.UpdateItemQuantity(product, quantity)
	if err != nil {
		return domain.Cart{}, err
	}
	_, err = qtx.UpdateCartItemQuantity(c, cart.ID, productID, item.Quantity)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed updating cart item with error=%w", err)
	}
	return s.finishMutation(c, tx, qtx, cart, domain.CartEvent{
		CartID:    cart.ID,
		ProductID: item.ProductID,
		EventType: domain.EventUpdate,
		Quantity:  quantity,
	})
}

func (s *CartService) removeItemOnce(
	c context.Context,
	expected domain.Cart,
	productID uuid.UUID,
) (domain.Cart, error) {
	tx, cart, qtx, err := s.lockCart(c, expected)
	if err != nil {
		return domain.Cart{}, err
	}
	defer s.rollback(c, tx)

	removed, err := cart.RemoveItem(productID)
	if err != nil {
		return domain.Cart{}, err
	}
	_, err = qtx.DeleteCartItem(c, cart.ID, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed deleting cart item with error=%w", err)
	}
	return s.finishMutation(c, tx, qtx, cart, domain.CartEvent{
		CartID:    cart.ID,
		ProductID: removed.ProductID,
		EventType: domain.EventRemove,
		Quantity:  removed.Quantity,
	})
}

func (s *CartService) clearCartOnce(c context.Context, expected domain.Cart) (domain.Cart, error) {
	tx, cart, qtx, err := s.lockCart(c, expected)
	if err != nil {
		return domain.Cart{}, err
	}
	defer s.rollback(c, tx)

	if err := cart.Clear(); err != nil {
		return domain.Cart{}, err
	}
	if _, err := qtx.DeleteCartItems(c, cart.ID); err != nil {
		return domain.Cart{}, fmt.Errorf("failed deleting cart items with error=%w", err)
	}
	return s.finishMutation(c, tx, qtx, cart, domain.CartEvent{
		CartID:    cart.ID,
		EventType: domain.EventClear,
	})
}

// lockCart opens the mutation transaction, takes the row lock on the expected
// cart and re-reads it. A version drift since resolve, a cart completed in the
// meantime, or a lock wait past the configured timeout all come back as
// retryable concurrency errors.
func (s *CartService) lockCart(
	c context.Context,
	expected domain.Cart,
) (pgx.Tx, domain.Cart, *repository.Queries, error) {
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		return nil, domain.Cart{}, nil, fmt.Errorf("failed starting transaction with error=%w", err)
	}
	qtx := s.queries.WithTx(tx)

	if err := qtx.SetLocalLockTimeout(c, s.lockTimeout); err != nil {
		s.rollback(c, tx)
		return nil, domain.Cart{}, nil, fmt.Errorf("failed setting lock timeout with error=%w", err)
	}

	row, err := qtx.GetCartForUpdate(c, expected.ID)
	if err != nil {
		s.rollback(c, tx)
		if repository.IsLockTimeout(err) {
			return nil, domain.Cart{}, nil, errors.ErrVersionLockTimeout
		}
		if goerrors.Is(err, pgx.ErrNoRows) {
			return nil, domain.Cart{}, nil, errors.ErrVersionConflict
		}
		return nil, domain.Cart{}, nil, fmt.Errorf("failed locking cart with error=%w", err)
	}
	if row.Completed || row.Version != expected.Version {
		s.rollback(c, tx)
		return nil, domain.Cart{}, nil, errors.ErrVersionConflict
	}

	items, err := qtx.FindCartItems(c, row.ID)
	if err != nil {
		s.rollback(c, tx)
		return nil, domain.Cart{}, nil, fmt.Errorf("failed finding cart items with error=%w", err)
	}
	return tx, row.Domain(items), qtx, nil
}

// finishMutation persists the recalculated totals, bumps the cart version
// exactly once, records the audit event and commits.
func (s *CartService) finishMutation(
	c context.Context,
	tx pgx.Tx,
	qtx *repository.Queries,
	cart domain.Cart,
	event domain.CartEvent,
) (domain.Cart, error) {
	err := qtx.UpdateCartTotals(c, repository.UpdateCartTotalsParams{
		ID:         cart.ID,
		TotalItems: cart.TotalItems,
		Subtotal:   repository.NumericFromDecimal(cart.Subtotal),
		Tax:        repository.NumericFromDecimal(cart.Tax),
		Total:      repository.NumericFromDecimal(cart.Total),
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed updating cart totals with error=%w", err)
	}

	version, err := qtx.IncrementCartVersion(c, cart.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed incrementing cart version with error=%w", err)
	}

	arg := repository.InsertCartEventParams{
		ID:        uuid.New(),
		CartID:    event.CartID,
		EventType: string(event.EventType),
		Quantity:  event.Quantity,
	}
	if event.ProductID.Valid {
		productID := event.ProductID.UUID
		arg.ProductID = &productID
	}
	if _, err := qtx.InsertCartEvent(c, arg); err != nil {
		return domain.Cart{}, fmt.Errorf("failed inserting cart event with error=%w", err)
	}

	if err := tx.Commit(c); err != nil {
		return domain.Cart{}, fmt.Errorf("failed committing transaction with error=%w", err)
	}
	cart.Version = version
	cart.ModifiedAt = time.Now()
	return cart, nil
}

func (s *CartService) rollback(c context.Context, tx pgx.Tx) {
	if err := tx.Rollback(c); err != nil && !goerrors.Is(err, pgx.ErrTxClosed) {
		zerolog.Ctx(c).Error().Err(err).Msg("failed rolling back transaction")
	}
}
