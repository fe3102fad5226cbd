package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/metric"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/repository"
)

// Sweeper retires active carts untouched past the TTL. Expired carts are also
// retired lazily on access; the sweeper just keeps the table from accumulating
// abandoned ones.
type Sweeper struct {
	queries   *repository.Queries
	retriever *CartRetriever
	cartTtl   time.Duration
}

func NewSweeper(queries *repository.Queries, retriever *CartRetriever, cartTtl time.Duration) *Sweeper {
	return &Sweeper{queries: queries, retriever: retriever, cartTtl: cartTtl}
}

func (s *Sweeper) SweepExpiredCarts(c context.Context) (int, error) {
	c, span := otel.Tracer.Start(c, "Sweeper SweepExpiredCarts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "Sweeper SweepExpiredCarts").
		Logger()

	cutoff := time.Now().Add(-s.cartTtl)
	rows, err := s.queries.FindExpiredCarts(c, cutoff)
	if err != nil {
		err = fmt.Errorf("failed finding expired carts with error=%w", err)
		errors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return 0, err
	}

	swept := 0
	for _, row := range rows {
		if err := s.queries.MarkCartCompleted(c, row.ID); err != nil {
			err = fmt.Errorf("failed completing expired cart with error=%w", err)
			errors.HandleError(err, span)
			logger.Error().Err(err).Str(log.KeyCartID, row.ID.String()).Msg(err.Error())
			continue
		}
		s.retriever.Invalidate(c, row.Domain(nil))
		metric.SweptCartsTotal.Inc()
		swept++
	}
	if swept > 0 {
		logger.Info().Int("sweptCarts", swept).Msg("swept expired carts")
	}
	return swept, nil
}

// Run sweeps on the configured interval until the context is canceled.
func (s *Sweeper) Run(c context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.Done():
			return c.Err()
		case <-ticker.C:
			if _, err := s.SweepExpiredCarts(c); err != nil {
				zerolog.Ctx(c).Error().Err(err).Msg("sweep failed")
			}
		}
	}
}
