package service

import (
	"context"
	goerrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/domain"
	"github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/repository"
)

// MergeService folds a guest cart into the customer's cart when the guest
// logs in. The whole merge is one transaction: either the customer cart
// absorbs every mergeable line and the guest cart completes, or nothing
// changes.
type MergeService struct {
	pool        *pgxpool.Pool
	queries     *repository.Queries
	retriever   *CartRetriever
	catalog     ProductCatalog
	lockTimeout int
}

func NewMergeService(
	pool *pgxpool.Pool,
	queries *repository.Queries,
	retriever *CartRetriever,
	catalog ProductCatalog,
	lockTimeout int,
) *MergeService {
	return &MergeService{
		pool:        pool,
		queries:     queries,
		retriever:   retriever,
		catalog:     catalog,
		lockTimeout: lockTimeout,
	}
}

// MergeGuestCart merges the active cart behind priorSessionKey into the
// active cart of userID. Quantities are summed per product and clamped to the
// currently available stock; unit prices are re-snapshotted from the catalog
// at merge time. The customer cart's version increases by exactly 1 when at
// least one line moves and stays put otherwise. An absent or empty guest cart
// is not an error.
func (s *MergeService) MergeGuestCart(c context.Context, userID uuid.UUID, priorSessionKey string) error {
	c, span := otel.Tracer.Start(c, "MergeService MergeGuestCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "MergeService MergeGuestCart").
		Str(log.KeyUserID, userID.String()).
		Str(log.KeySessionKey, priorSessionKey).
		Logger()

	if priorSessionKey == "" {
		return nil
	}

	logger = logger.With().Str(log.KeyProcess, "starting transaction").Logger()
	tx, err := s.pool.BeginTx(c, pgx.TxOptions{})
	if err != nil {
		err = fmt.Errorf("failed starting transaction with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	defer func() {
		if err := tx.Rollback(c); err != nil && !goerrors.Is(err, pgx.ErrTxClosed) {
			logger.Error().Err(err).Msg("failed rolling back transaction")
		}
	}()
	qtx := s.queries.WithTx(tx)

	if err := qtx.SetLocalLockTimeout(c, s.lockTimeout); err != nil {
		err = fmt.Errorf("failed setting lock timeout with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	logger = logger.With().Str(log.KeyProcess, "locking guest cart").Logger()
	guestRow, err := qtx.FindActiveCartBySessionKeyForUpdate(c, priorSessionKey)
	if goerrors.Is(err, pgx.ErrNoRows) {
		logger.Info().Msg("no guest cart to merge")
		return nil
	}
	if err != nil {
		err = fmt.Errorf("failed locking guest cart with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	guestItems, err := qtx.FindCartItems(c, guestRow.ID)
	if err != nil {
		err = fmt.Errorf("failed finding guest cart items with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if len(guestItems) == 0 {
		logger.Info().Msg("guest cart is empty, nothing to merge")
		return nil
	}
	guest := guestRow.Domain(guestItems)
	logger = logger.With().Str(log.KeyCartID, guest.ID.String()).Logger()

	logger = logger.With().Str(log.KeyProcess, "locking customer cart").Logger()
	customer, qErr := s.lockCustomerCart(c, qtx, userID)
	if qErr != nil {
		errors.HandleError(qErr, span)
		logger.Error().Err(qErr).Msg(qErr.Error())
		return qErr
	}

	logger = logger.With().Str(log.KeyProcess, "merging cart lines").Logger()
	merged := 0
	for _, line := range guest.Items {
		if !line.ProductID.Valid {
			continue
		}
		product, err := s.catalog.GetProduct(c, line.ProductID.UUID)
		if err != nil {
			// Product gone or catalog says no: drop the line rather than
			// fail the login.
			logger.Warn().
				Err(err).
				Str(log.KeyProductID, line.ProductID.UUID.String()).
				Msg("skipping unmergeable cart line")
			continue
		}
		desired := customer.MergedQuantity(product.ID, line.Quantity)
		if desired > product.Stock {
			desired = product.Stock
		}
		if desired < 1 || !product.Available || product.Status != domain.ProductStatusActive {
			logger.Warn().
				Str(log.KeyProductID, product.ID.String()).
				Msg("skipping out of stock cart line")
			continue
		}
		var prior int32
		if existing := customer.Item(product.ID); existing != nil {
			prior = existing.Quantity
		}
		item := customer.PutItem(product, desired)
		applied := item.Quantity - prior
		_, err = qtx.UpsertCartItem(c, repository.UpsertCartItemParams{
			ID:        item.ID,
			CartID:    customer.ID,
			ProductID: product.ID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: repository.NumericFromDecimal(item.UnitPrice),
		})
		if err != nil {
			err = fmt.Errorf("failed upserting merged cart item with error=%w", err)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		productID := product.ID
		_, err = qtx.InsertCartEvent(c, repository.InsertCartEventParams{
			ID:        uuid.New(),
			CartID:    customer.ID,
			ProductID: &productID,
			EventType: string(domain.EventAdd),
			Quantity:  applied,
		})
		if err != nil {
			err = fmt.Errorf("failed inserting merge event with error=%w", err)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		merged++
	}

	logger = logger.With().Str(log.KeyProcess, "completing merge").Logger()
	if merged > 0 {
		err = qtx.UpdateCartTotals(c, repository.UpdateCartTotalsParams{
			ID:         customer.ID,
			TotalItems: customer.TotalItems,
			Subtotal:   repository.NumericFromDecimal(customer.Subtotal),
			Tax:        repository.NumericFromDecimal(customer.Tax),
			Total:      repository.NumericFromDecimal(customer.Total),
		})
		if err != nil {
			err = fmt.Errorf("failed updating customer cart totals with error=%w", err)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
		if _, err := qtx.IncrementCartVersion(c, customer.ID); err != nil {
			err = fmt.Errorf("failed incrementing customer cart version with error=%w", err)
			errors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return err
		}
	}
	if err := qtx.MarkCartCompleted(c, guest.ID); err != nil {
		err = fmt.Errorf("failed completing guest cart with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := tx.Commit(c); err != nil {
		err = fmt.Errorf("failed committing merge transaction with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	s.retriever.Invalidate(c, guest)
	s.retriever.Invalidate(c, customer)
	logger.Info().
		Int("mergedLines", merged).
		Str(log.KeyCartID, customer.ID.String()).
		Msg("merged guest cart into customer cart")
	return nil
}

func (s *MergeService) lockCustomerCart(
	c context.Context,
	qtx *repository.Queries,
	userID uuid.UUID,
) (domain.Cart, error) {
	row, err := qtx.FindActiveCartByUserIdForUpdate(c, userID)
	if goerrors.Is(err, pgx.ErrNoRows) {
		row, err = qtx.InsertActiveUserCart(c, uuid.New(), userID)
		if goerrors.Is(err, pgx.ErrNoRows) {
			row, err = qtx.FindActiveCartByUserIdForUpdate(c, userID)
		}
		if err != nil {
			return domain.Cart{}, fmt.Errorf("failed creating customer cart with error=%w", err)
		}
		return row.Domain(nil), nil
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed locking customer cart with error=%w", err)
	}
	items, err := qtx.FindCartItems(c, row.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("failed finding customer cart items with error=%w", err)
	}
	return row.Domain(items), nil
}
