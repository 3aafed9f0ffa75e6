// Package main provides the API server entry point for the wallet insights service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wallet-insights/internal/api"
	"github.com/wallet-insights/internal/catalog"
	"github.com/wallet-insights/internal/config"
	"github.com/wallet-insights/internal/logging"
	"github.com/wallet-insights/internal/retry"
	"github.com/wallet-insights/internal/service"
	"github.com/wallet-insights/internal/storage"
	"github.com/wallet-insights/internal/types"
)

func main() {
	fmt.Println("Wallet Insights API Server")
	log.Println("Server starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx := context.Background()

	// Load the protocol catalog
	protocols, closePostgres := loadCatalog(ctx, cfg, logger)
	defer closePostgres()

	logger.WithFields(map[string]interface{}{
		"source":    cfg.Catalog.Source,
		"protocols": protocols.Len(),
	}).Info("Protocol catalog loaded")

	// Initialize the engine
	weights := service.WeightsFromConfig(cfg.Scoring)
	profiler := service.NewWalletBehaviorProfiler(weights)
	batch := service.NewBatchProfiler(profiler, cfg.Batch.Workers)
	defer batch.Close()

	engine := &api.Engine{
		Catalog:     protocols,
		Aggregator:  service.NewActivityAggregator(protocols, weights),
		Scorer:      service.NewEligibilityScorer(),
		Profiler:    profiler,
		Batch:       batch,
		Detector:    service.NewSmartMoneySignalDetector(weights),
		Correlation: service.NewWalletCorrelationAnalyzer(weights),
	}

	// Storage-backed routes are optional; the engine routes work without them
	insights, closeStorage := connectStorage(ctx, cfg, engine, logger)
	defer closeStorage()

	// Create server configuration
	serverConfig := &api.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		FreeTierRPS:     cfg.RateLimit.FreeTier,
		BasicTierRPS:    cfg.RateLimit.BasicTier,
		PremiumTierRPS:  cfg.RateLimit.PremiumTier,
		MaxCohortSize:   cfg.Batch.MaxCohortSize,
	}

	// A nil *InsightsService must not reach the server as a non-nil interface
	var server *api.Server
	if insights != nil {
		server = api.NewServer(serverConfig, engine, insights)
	} else {
		server = api.NewServer(serverConfig, engine, nil)
	}

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// loadCatalog returns the configured protocol catalog and a closer for any
// connection opened to load it
func loadCatalog(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*catalog.Catalog, func()) {
	if cfg.Catalog.Source != config.CatalogSourcePostgres {
		protocols, err := catalog.Load()
		if err != nil {
			logger.WithError(err).Fatal("Failed to load embedded protocol catalog")
		}
		return protocols, func() {}
	}

	postgres, err := retry.Value(ctx, connectRetry(), func(context.Context) (*storage.PostgresDB, error) {
		return storage.NewPostgresDB(&cfg.Database.Postgres)
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Postgres")
	}

	protocols, err := storage.NewProtocolRepository(postgres).LoadCatalog(ctx)
	if err != nil {
		postgres.Close()
		logger.WithError(err).Fatal("Failed to load protocol catalog from Postgres")
	}
	return protocols, postgres.Close
}

// connectStorage wires the ClickHouse activity store and the Redis report
// cache. It returns nil when ClickHouse is unreachable.
func connectStorage(ctx context.Context, cfg *config.Config, engine *api.Engine, logger *logging.Logger) (*service.InsightsService, func()) {
	clickhouse, err := retry.Value(ctx, connectRetry(), func(context.Context) (*storage.ClickHouseDB, error) {
		return storage.NewClickHouseDB(&cfg.Database.ClickHouse)
	})
	if err != nil {
		logger.WithError(err).Warn("ClickHouse unavailable - wallet storage routes disabled")
		return nil, func() {}
	}

	chains := make([]types.ChainID, 0, len(cfg.Chains.Enabled))
	for _, id := range cfg.Chains.Enabled {
		chains = append(chains, types.ChainID(id))
	}
	activity := storage.NewGuardedActivityStore(storage.NewActivityRepository(clickhouse, chains), nil)

	closers := []func(){func() { _ = clickhouse.Close() }}

	// A nil cache disables report caching
	var cache service.InsightsCache
	redis, err := storage.NewRedisCache(&cfg.Database.Redis)
	if err != nil {
		logger.WithError(err).Warn("Redis unavailable - report caching disabled")
	} else {
		reports := storage.NewCacheService(redis, cfg.Cache.TTL)
		logger.WithField("ttl", reports.GetTTL().String()).Info("Report cache connected")
		cache = reports
		closers = append(closers, func() { _ = redis.Close() })
	}

	insights := service.NewInsightsService(activity, activity, cache, engine.Aggregator, engine.Profiler, engine.Batch)

	logger.WithFields(map[string]interface{}{
		"chains":  cfg.Chains.Enabled,
		"caching": cache != nil,
	}).Info("Wallet storage connected")

	return insights, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

// connectRetry bounds how long startup waits for a backing store
func connectRetry() *retry.RetryConfig {
	return &retry.RetryConfig{
		MaxAttempts:  4,
		InitialDelay: time.Second,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}
