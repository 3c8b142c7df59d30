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

	"lv-tradecore/internal/auth"
	"lv-tradecore/internal/config"
	"lv-tradecore/internal/db"
	"lv-tradecore/internal/feed"
	"lv-tradecore/internal/health"
	"lv-tradecore/internal/httpserver"
	"lv-tradecore/internal/instruments"
	"lv-tradecore/internal/logging"
	"lv-tradecore/internal/marketdata"
	"lv-tradecore/internal/metrics"
	"lv-tradecore/internal/positions"
	"lv-tradecore/internal/risk"
	"lv-tradecore/internal/types"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service stopped with error", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	startedAt := time.Now()

	m := metrics.New()
	catalog := instruments.Default()
	cache := marketdata.NewPriceCache()
	hub := marketdata.NewHub(cache, cfg.SubscriberQueueSize, logger, m)
	writer := feed.NewQuoteWriter(catalog, cache, hub, cfg.SpreadRatio)
	adapter := feed.NewAdapter(feed.Config{
		WSURL:               cfg.InfowayWSURL,
		HTTPURL:             cfg.InfowayHTTPURL,
		APIKey:              cfg.InfowayAPIKey,
		ReconnectDelay:      cfg.FeedReconnectDelay,
		HeartbeatInterval:   cfg.FeedHeartbeatInterval,
		DepthSubscribeDelay: cfg.FeedDepthSubscribeDelay,
		PollInterval:        cfg.FeedPollInterval,
		HTTPTimeout:         cfg.FeedHTTPTimeout,
	}, catalog, writer, logger, m)

	stores, copies, dbPool, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if dbPool != nil {
		defer dbPool.Close()
	}
	batch, closeBatch := openBatchCache(ctx, cfg, logger)
	defer closeBatch()

	triggerPrice, err := risk.ParseTriggerPrice(cfg.SLTPTriggerPrice)
	if err != nil {
		return err
	}
	swapAt, err := risk.ParseClock(cfg.SwapAt)
	if err != nil {
		return err
	}
	commissionAt, err := risk.ParseClock(cfg.CommissionAt)
	if err != nil {
		return err
	}
	engine := risk.NewEngine(risk.Config{
		StopOutInterval: cfg.StopOutInterval,
		SLTPInterval:    cfg.SLTPInterval,
		StopOutLevel:    cfg.StopOutLevel,
		TriggerPrice:    triggerPrice,
		SwapAt:          swapAt,
		CommissionAt:    commissionAt,
	}, cache, catalog, stores, copies, logger, m)

	var verifier marketdata.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewVerifier(cfg.JWTIssuer, []byte(cfg.JWTSecret), 0)
	} else {
		logger.Warn("JWT_SECRET not set, price stream is unauthenticated")
	}
	stream := marketdata.NewStreamWS(hub, verifier, cfg.WebSocketOrigin, logger)
	marketHandler := marketdata.NewHandler(catalog, cache, batch, adapter.Poller(), stream, logger)

	pingers := make(map[string]health.Pinger, len(stores))
	for _, st := range stores {
		pingers[string(st.Pool())] = st
	}
	healthHandler := health.NewHandler(health.Deps{
		Stores: pingers,
		DB:     dbPool,
		Quotes: cache,
		Feed:   adapter,
		Jobs:   engine,
		Hub:    hub,
	}, startedAt, cfg.HTTPAddr, cfg.AppMode, cfg.InternalToken)

	limiter := httpserver.NewRateLimiter(10, 30)
	router := httpserver.NewRouter(httpserver.RouterDeps{
		MarketHandler: marketHandler,
		HealthHandler: healthHandler,
		Metrics:       m.Handler(),
		Limiter:       limiter,
		InternalToken: cfg.InternalToken,
		AllowedOrigin: cfg.WebSocketOrigin,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		adapter.Start(ctx)
		<-ctx.Done()
		adapter.Stop()
		return nil
	})
	g.Go(func() error {
		marketdata.RunPublisher(ctx, hub, cfg.SnapshotInterval)
		return nil
	})
	g.Go(func() error {
		limiter.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return engine.Run(ctx)
	})
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", cfg.HTTPAddr), zap.String("mode", cfg.AppMode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("shutdown complete")
	return err
}

// openStores returns one store per pool. The trading store also serves copy
// trading.
func openStores(ctx context.Context, cfg config.Config, logger *zap.Logger) ([]positions.Store, positions.CopyStore, *pgxpool.Pool, error) {
	if cfg.PositionStore == config.StoreMemory {
		logger.Warn("using in-memory position store; positions are not persisted")
		trading := positions.NewMemoryStore(types.PoolTrading)
		challenge := positions.NewMemoryStore(types.PoolChallenge)
		return []positions.Store{trading, challenge}, trading, nil, nil
	}
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect database: %w", err)
	}
	trading, err := positions.NewPostgresStore(pool, types.PoolTrading)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	challenge, err := positions.NewPostgresStore(pool, types.PoolChallenge)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	return []positions.Store{trading, challenge}, trading, pool, nil
}

// openBatchCache prefers Redis when configured and reachable.
func openBatchCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (marketdata.BatchCache, func()) {
	if cfg.RedisAddr == "" {
		return marketdata.NewMemoryBatchCache(cfg.BatchCacheTTL), func() {}
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-process batch cache", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		_ = client.Close()
		return marketdata.NewMemoryBatchCache(cfg.BatchCacheTTL), func() {}
	}
	logger.Info("batch cache backed by redis", zap.String("addr", cfg.RedisAddr))
	return marketdata.NewRedisBatchCache(client, cfg.BatchCacheTTL), func() { _ = client.Close() }
}
