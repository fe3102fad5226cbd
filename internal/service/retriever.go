package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/common"
	"github.com/andikarp/keranjang/internal/domain"
	inErrors "github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/repository"
)

// Owner identifies who the current cart belongs to: the authenticated user
// when there is one, the issued session key otherwise.
type Owner struct {
	UserID     uuid.NullUUID
	SessionKey string
}

func OwnerFromContext(c context.Context) Owner {
	owner := Owner{SessionKey: common.SessionKeyFromContext(c)}
	if userID, ok := common.UserIDFromContext(c); ok {
		owner.UserID = uuid.NullUUID{UUID: userID, Valid: true}
	}
	return owner
}

func (o Owner) CacheKey() string {
	if o.UserID.Valid {
		return fmt.Sprintf(cacheKeyUserCart, o.UserID.UUID.String())
	}
	return fmt.Sprintf(cacheKeySessionCart, o.SessionKey)
}

// CartRetriever resolves "the current cart" for a request: cache first, then
// repository, then lazy creation. The cache is a read optimization only, never
// the source of truth for a write path.
type CartRetriever struct {
	queries  *repository.Queries
	cache    *redis.Client
	cartTtl  time.Duration
	cacheTtl time.Duration
}

func NewCartRetriever(
	queries *repository.Queries,
	cache *redis.Client,
	cartTtl time.Duration,
	cacheTtl time.Duration,
) *CartRetriever {
	return &CartRetriever{
		queries:  queries,
		cache:    cache,
		cartTtl:  cartTtl,
		cacheTtl: cacheTtl,
	}
}

func (r *CartRetriever) Resolve(c context.Context) (domain.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartRetriever Resolve")
	defer span.End()

	owner := OwnerFromContext(c)
	cacheKey := owner.CacheKey()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRetriever Resolve").
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding cart in cache").Logger()
	logger.Info().Msg("finding cart in cache")
	jsonCache, err := r.cache.Get(c, cacheKey).Result()
	if err == nil {
		cached := domain.Cart{}
		err = json.Unmarshal([]byte(jsonCache), &cached)
		if err == nil {
			// Trust the cached cart only while its version still matches the
			// store; an out-of-band mutation evicts it.
			version, err := r.queries.GetCartVersion(c, cached.ID)
			if err == nil && version == cached.Version && !cached.IsExpired(r.cartTtl, time.Now()) {
				logger.Info().Msg("found cart in cache")
				return cached, nil
			}
			logger.Info().
				Int32(log.KeyCartVersion, cached.Version).
				Msg("cached cart is stale, evicting")
		}
		if err := r.cache.Del(c, cacheKey).Err(); err != nil {
			logger.Warn().Err(err).Msg("failed evicting stale cart from cache")
		}
	}

	logger = logger.With().Str(log.KeyProcess, "finding cart in db").Logger()
	logger.Info().Msg("finding cart in db")
	cart, err := r.resolveFromStore(c, owner)
	if err != nil {
		err = fmt.Errorf("failed resolving cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Cart{}, err
	}
	logger = logger.With().Str(log.KeyCartID, cart.ID.String()).Logger()
	logger.Info().Msg("resolved cart")

	logger = logger.With().Str(log.KeyProcess, "inserting cart in cache").Logger()
	cartJson, err := json.Marshal(cart)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return domain.Cart{}, err
	}
	err = r.cache.Set(c, cacheKey, cartJson, r.cacheTtl).Err()
	if err != nil {
		logger.Warn().Err(err).Msg("failed inserting cart in cache")
	}

	return cart, nil
}

func (r *CartRetriever) resolveFromStore(c context.Context, owner Owner) (domain.Cart, error) {
	row, err := r.findActiveCart(c, owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return r.createCart(c, owner)
	}
	if err != nil {
		return domain.Cart{}, err
	}

	if row.ModifiedAt.Valid && time.Since(row.ModifiedAt.Time) > r.cartTtl {
		// Stale cart: retire it and hand the caller a fresh one.
		if err := r.queries.MarkCartCompleted(c, row.ID); err != nil {
			return domain.Cart{}, err
		}
		return r.createCart(c, owner)
	}

	items, err := r.queries.FindCartItems(c, row.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	return row.Domain(items), nil
}

func (r *CartRetriever) findActiveCart(c context.Context, owner Owner) (repository.Cart, error) {
	if owner.UserID.Valid {
		return r.queries.FindActiveCartByUserId(c, owner.UserID.UUID)
	}
	return r.queries.FindActiveCartBySessionKey(c, owner.SessionKey)
}

func (r *CartRetriever) createCart(c context.Context, owner Owner) (domain.Cart, error) {
	var row repository.Cart
	var err error
	if owner.UserID.Valid {
		row, err = r.queries.InsertActiveUserCart(c, uuid.New(), owner.UserID.UUID)
	} else {
		row, err = r.queries.InsertActiveSessionCart(c, uuid.New(), owner.SessionKey)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Two requests raced to create the owner's cart; the loser adopts the
		// winning row instead of failing the request.
		row, err = r.findActiveCart(c, owner)
	}
	if err != nil {
		return domain.Cart{}, err
	}
	return row.Domain(nil), nil
}

// Invalidate drops the owner's cached cart. Called after every committed
// mutation; entries are invalidated, never updated in place.
func (r *CartRetriever) Invalidate(c context.Context, cart domain.Cart) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartRetriever Invalidate").
		Str(log.KeyCacheKey, cartCacheKey(cart)).
		Logger()
	if err := r.cache.Del(c, cartCacheKey(cart)).Err(); err != nil {
		logger.Warn().Err(err).Msg("failed invalidating cart cache")
	}
}
