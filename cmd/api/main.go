package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/marketbay/auction-exchange-backend/internal/api/rest"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/cache"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/config"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/database"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/events"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/repository"
	"github.com/marketbay/auction-exchange-backend/internal/infrastructure/telemetry"
	"github.com/marketbay/auction-exchange-backend/internal/metrics"
	"github.com/marketbay/auction-exchange-backend/internal/service/bidding"
	"github.com/marketbay/auction-exchange-backend/internal/service/catalog"
	"github.com/marketbay/auction-exchange-backend/internal/service/lifecycle"
	"github.com/marketbay/auction-exchange-backend/internal/service/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := telemetry.SetupLogger(cfg.LogLevel)

	zapLogger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to create zap logger: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewConnectionPool(&cfg.Database, zapLogger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	redisClient, err := cache.NewClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer func() { _ = redisClient.Close() }()

	redisCache := cache.NewRedisCacheFromClient(redisClient, zapLogger)
	settings, err := cache.NewSettingsCache(&cfg.Auction, redisCache, zapLogger)
	if err != nil {
		log.Fatalf("failed to build settings cache: %v", err)
	}

	registry, err := metrics.NewRegistry("auction-exchange-backend")
	if err != nil {
		log.Fatalf("failed to build metrics registry: %v", err)
	}

	publisher := events.NewPublisher(events.DefaultPublisherConfig(), zapLogger,
		events.NewRedisSink(redisClient))
	defer func() { _ = publisher.Close() }()

	store := repository.NewStore(pool.DB())
	accounts := store.Accounts()

	biddingSvc := bidding.NewService(store, publisher, settings, registry, logger)
	settlementSvc := settlement.NewService(store, accounts, publisher, registry, logger)
	catalogSvc := catalog.NewService(store.Auctions(), accounts, settings, logger)

	scheduler := lifecycle.NewScheduler(store, accounts, settlementSvc, publisher,
		registry, logger, cfg.Auction.SchedulerInterval)
	go scheduler.Run(ctx)

	auth := rest.NewAuthenticator(cfg.Security.JWTSecret)
	handler := rest.NewHandler(biddingSvc, catalogSvc, settlementSvc)
	server := rest.NewServer(cfg, handler, auth, registry, pool, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
