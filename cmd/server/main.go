package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/eddostedson/eddo-budg-sub001/internal/adapter/http"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/handler"
	apimiddleware "github.com/eddostedson/eddo-budg-sub001/internal/adapter/http/middleware"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/idgen"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/lock"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/repository/memory"
	postgresRepo "github.com/eddostedson/eddo-budg-sub001/internal/adapter/repository/postgres"
	redisRepo "github.com/eddostedson/eddo-budg-sub001/internal/adapter/repository/redis"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/repository/sqlite"
	"github.com/eddostedson/eddo-budg-sub001/internal/adapter/retry"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/auth"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/config"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/eventpublisher"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/logger"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/metrics"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/postgres"
	"github.com/eddostedson/eddo-budg-sub001/internal/infrastructure/redis"
	"github.com/eddostedson/eddo-budg-sub001/internal/usecase"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterMaxIdle         = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := buildApp(ctx, cfg, log, metrics.New())
	if err != nil {
		return err
	}
	defer a.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		if err := a.publisher.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	if a.rateLimiter != nil {
		g.Go(func() error {
			a.rateLimiter.StartCleanup(gctx, limiterCleanupInterval, limiterMaxIdle)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// app is the wired server, ready to serve.
type app struct {
	handler     http.Handler
	publisher   *eventpublisher.EventPublisher
	rateLimiter *apimiddleware.RateLimiter
	closers     []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage is one backend's implementation of the repository ports.
type storage struct {
	txManager   usecase.TransactionManager
	accountRepo usecase.AccountRepository
	entryRepo   usecase.EntryRepository
	outboxRepo  usecase.OutboxRepository
	ping        handler.PingFunc
	close       func()
}

func openStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, log); err != nil {
				return nil, err
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseTimeout,
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to postgres")

		return &storage{
			txManager:   postgresRepo.NewTxManager(pool),
			accountRepo: postgresRepo.NewAccountRepository(pool),
			entryRepo:   postgresRepo.NewEntryRepository(pool),
			outboxRepo:  postgresRepo.NewOutboxRepository(pool),
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.SQLitePath, cfg.SQLiteBusyTimeout)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("opened sqlite database")

		return &storage{
			txManager:   sqlite.NewTxManager(db),
			accountRepo: sqlite.NewAccountRepository(db),
			entryRepo:   sqlite.NewEntryRepository(db),
			outboxRepo:  sqlite.NewOutboxRepository(db),
			ping:        db.PingContext,
			close:       func() { db.Close() },
		}, nil

	case config.StorageMemory:
		store := memory.NewStore()
		log.Warn().Msg("using in-memory storage, data is lost on exit")

		return &storage{
			txManager:   memory.NewTxManager(store),
			accountRepo: memory.NewAccountRepository(store),
			entryRepo:   memory.NewEntryRepository(store),
			outboxRepo:  memory.NewOutboxRepository(store),
			ping:        func(context.Context) error { return nil },
			close:       func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.close)

	checks := map[string]handler.Pinger{cfg.StorageDriver: store.ping}

	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, redis.Options{})
		if err != nil {
			a.close()
			return nil, err
		}
		a.closers = append(a.closers, func() { redisClient.Close() })
		checks["redis"] = handler.PingFunc(redis.Ping(redisClient))
		log.Info().Msg("connected to redis")
	}

	var locker usecase.AccountLocker = lock.NewLocal(cfg.LockWait)
	if cfg.LockBackend == config.LockRedis {
		locker = redisRepo.NewAccountLocker(redisClient, cfg.LockTTL, cfg.LockWait, log)
	}

	var cache usecase.Cache
	var idempotencyStore usecase.IdempotencyStore
	var publisher eventpublisher.Publisher = eventpublisher.NewLogPublisher(log)
	if redisClient != nil {
		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		publisher = redisRepo.NewEventPublisher(redisClient, cfg.EventsChannel)
	}

	ids := idgen.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(
		store.txManager, store.accountRepo, store.outboxRepo, locker, ids, cache, cfg.TotalsCacheTTL, m, log,
	)
	engine := usecase.NewLedgerEngine(
		store.txManager, store.accountRepo, store.entryRepo, store.outboxRepo, locker, ids,
		usecase.WithRetrier(retry.NewRetrier(log)),
		usecase.WithCache(cache),
		usecase.WithMetrics(m),
		usecase.WithLogger(log),
	)
	entryUC := usecase.NewEntryUseCase(store.accountRepo, store.entryRepo)
	reconciliationUC := usecase.NewReconciliationUseCase(
		store.txManager, store.accountRepo, store.entryRepo, locker, engine, log,
	)

	var verifier apimiddleware.TokenVerifier
	if cfg.AuthEnabled {
		verifier = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	if cfg.RateLimitRPS > 0 {
		a.rateLimiter = apimiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:        handler.NewAccountHandler(accountUC),
		EntryHandler:          handler.NewEntryHandler(engine, entryUC),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciliationUC),
		HealthHandler:         handler.NewHealthHandler(checks),
		Authenticator:         apimiddleware.NewAuthenticator(verifier, m),
		IdempotencyStore:      idempotencyStore,
		IdempotencyTTL:        cfg.IdempotencyTTL,
		RateLimiter:           a.rateLimiter,
		Metrics:               m,
		Logger:                log,
	})

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: store.outboxRepo,
		Publisher:  publisher,
		Metrics:    m,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	return a, nil
}
