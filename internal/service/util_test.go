package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	testRedis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/andikarp/keranjang/internal/common"
	"github.com/andikarp/keranjang/internal/repository"
)

var (
	keyboardId = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	mouseId    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	webcamId   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	userId     = uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
)

type testHarness struct {
	pool           *pgxpool.Pool
	redisClient    *redis.Client
	pgContainer    *postgres.PostgresContainer
	redisContainer *testRedis.RedisContainer
	queries        *repository.Queries
	retriever      *CartRetriever
	cartService    *CartService
	mergeService   *MergeService
}

type (
	setupFunc    func(context.Context, ...string) *testHarness
	teardownFunc func(*testHarness)
)

func setup(t *testing.T) setupFunc {
	return func(c context.Context, seedPaths ...string) *testHarness {
		pgContainer, err := postgres.Run(
			c,
			"postgres:16.6-alpine3.21",
			testcontainers.WithEnv(map[string]string{
				"POSTGRES_DB":       "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_PORT":     "5432",
				"POSTGRES_USER":     "postgres",
			}),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			postgres.WithDatabase("postgres"),
			postgres.BasicWaitStrategies(),
			postgres.WithInitScripts(
				append(
					[]string{
						filepath.Join("..", "..", "migrations", "20250301080000_create_table_products.up.sql"),
						filepath.Join("..", "..", "migrations", "20250301080100_create_table_users.up.sql"),
						filepath.Join("..", "..", "migrations", "20250301080200_create_table_carts.up.sql"),
						filepath.Join("..", "..", "migrations", "20250301080300_create_table_cart_items.up.sql"),
						filepath.Join("..", "..", "migrations", "20250301080400_create_table_cart_events.up.sql"),
						filepath.Join("seed", "users.seed.sql"),
					},
					seedPaths...)...,
			),
		)
		if err != nil {
			t.Fatalf("failed running postgres container with error: %s", err)
		}

		pgConnStr, err := pgContainer.ConnectionString(c)
		if err != nil {
			t.Fatalf("failed getting postgres connection string with error: %s", err)
		}

		pgConfig, err := pgxpool.ParseConfig(pgConnStr)
		if err != nil {
			t.Fatalf("failed parsing pgconfig with error: %s", err)
		}

		pool, err := pgxpool.NewWithConfig(c, pgConfig)
		if err != nil {
			t.Fatalf("failed creating postgres pool with error: %s", err)
		}

		if err = pool.Ping(c); err != nil {
			t.Fatalf("failed ping postgres pool with error: %s", err)
		}

		redisContainer, err := testRedis.Run(
			c,
			"redis:7.4.2-alpine3.21",
			testRedis.WithLogLevel(testRedis.LogLevelVerbose),
		)
		if err != nil {
			t.Fatalf("failed running redis container with error: %s", err)
		}

		redisConnStr, err := redisContainer.ConnectionString(c)
		if err != nil {
			t.Fatalf("failed getting redis connection string with error: %s", err)
		}

		redisOpt, err := redis.ParseURL(redisConnStr)
		if err != nil {
			t.Fatalf("failed parsing redis connection string with error: %s", err)
		}

		redisClient := redis.NewClient(redisOpt)
		if err = redisClient.Ping(c).Err(); err != nil {
			t.Fatalf("failed ping redis client with error: %s", err)
		}

		queries := repository.New(pool)
		catalog := NewDatabaseCatalog(queries)
		retriever := NewCartRetriever(queries, redisClient, 24*time.Hour, 15*time.Minute)
		cartService := NewCartService(pool, queries, retriever, catalog, 3)
		mergeService := NewMergeService(pool, queries, retriever, catalog, 3)
		return &testHarness{
			pool:           pool,
			redisClient:    redisClient,
			pgContainer:    pgContainer,
			redisContainer: redisContainer,
			queries:        queries,
			retriever:      retriever,
			cartService:    cartService,
			mergeService:   mergeService,
		}
	}
}

func teardown(t *testing.T) teardownFunc {
	return func(h *testHarness) {
		h.redisClient.Close()
		h.pool.Close()
		if err := testcontainers.TerminateContainer(h.pgContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
		if err := testcontainers.TerminateContainer(h.redisContainer); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}
}

func guestContext(c context.Context, sessionKey string) context.Context {
	return common.AttachSessionKeyToContext(c, sessionKey)
}

func userContext(c context.Context, id uuid.UUID) context.Context {
	return common.AttachUserIDToContext(c, id)
}
