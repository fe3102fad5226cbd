package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/andikarp/keranjang/internal/common/constants"
	"github.com/andikarp/keranjang/internal/config"
	inErrors "github.com/andikarp/keranjang/internal/errors"
	"github.com/andikarp/keranjang/internal/infra"
	"github.com/andikarp/keranjang/internal/log"
	"github.com/andikarp/keranjang/internal/otel"
	"github.com/andikarp/keranjang/internal/repository"
	"github.com/andikarp/keranjang/internal/service"
)

func RunCartSweeper(c context.Context) {
	c, span := otel.Tracer.Start(c, "RunCartSweeper")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppCartSweeper).
		Str(log.KeyTag, "main RunCartSweeper").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "init config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, constants.AppCartService)
	logger = logger.With().Any(log.KeyConfig, cfg).Logger()
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppCartSweeper, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		c = logger.WithContext(c)
		if err := otel.ShutdownOtel(c, otelShutdowns); err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			inErrors.HandleError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	db := infra.NewDatabaseClient(c, cfg.Database)
	defer db.Close()
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "initializing cache").Logger()
	logger.Info().Msg("initializing cache")
	c = logger.WithContext(c)
	cache := infra.NewCacheClient(c, cfg.Cache)
	defer cache.Close()
	logger.Info().Msg("initialized cache")

	logger = logger.With().Str(log.KeyProcess, "running sweeper").Logger()
	queries := repository.New(db)
	retriever := service.NewCartRetriever(
		queries,
		cache,
		time.Duration(cfg.Cart.TtlHours)*time.Hour,
		time.Duration(cfg.Cart.CacheTtlMinutes)*time.Minute,
	)
	sweeper := service.NewSweeper(queries, retriever, time.Duration(cfg.Cart.TtlHours)*time.Hour)

	logger.Info().Msg("running sweeper")
	c = logger.WithContext(c)
	interval := time.Duration(cfg.Cart.SweepIntervalMin) * time.Minute
	if err := sweeper.Run(c, interval); err != nil && !errors.Is(err, context.Canceled) {
		err = fmt.Errorf("sweeper stopped with error=%w", err)
		inErrors.HandleError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("sweeper stopped")
}
