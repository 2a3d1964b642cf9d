package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cartlens/backend/config"
	httpDelivery "github.com/cartlens/backend/internal/delivery/http"
	"github.com/cartlens/backend/internal/domain"
	"github.com/cartlens/backend/internal/infrastructure/cache"
	"github.com/cartlens/backend/internal/infrastructure/serper"
	"github.com/cartlens/backend/internal/infrastructure/sonar"
	"github.com/cartlens/backend/internal/infrastructure/stores"
	"github.com/cartlens/backend/internal/monitoring"
	"github.com/cartlens/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := buildLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting cartlens backend",
		zap.String("version", "1.0.0"),
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("cache_type", cfg.Cache.Type),
	)

	cacheRepo := buildCache(cfg, logger)

	sonarClient := sonar.NewClient(cfg.Sonar.APIKey, cfg.Sonar.BaseURL, cfg.Sonar.Model, logger)
	serperClient := serper.NewClient(cfg.Serper.APIKey, cfg.Serper.BaseURL, cfg.Serper.StoreDomains, logger)
	if !sonarClient.Available() {
		logger.Warn("primary source not configured, set CARTLENS_SONAR_API_KEY")
	}
	if !serperClient.Available() {
		logger.Warn("shopping fallback not configured, set CARTLENS_SERPER_API_KEY")
	}

	directory := stores.NewDirectory(sonarClient, cacheRepo, cfg.Cache.StoreTTL, logger)
	metrics := monitoring.NewMetrics()

	aggregator := usecase.NewAggregationService(
		cacheRepo,
		sonarClient,
		serperClient,
		directory,
		metrics,
		logger,
		usecase.AggregationConfig{
			MaxStores:    cfg.Aggregation.MaxStores,
			Concurrency:  cfg.Aggregation.Concurrency,
			StoreTimeout: cfg.Aggregation.StoreTimeout,
			ProductTTL:   cfg.Cache.ProductTTL,
		},
	)

	handler := httpDelivery.NewHandler(aggregator, directory, sonarClient, serperClient)
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))

	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// buildCache constructs the cache backend named in the configuration. A redis
// backend that cannot be reached degrades to the no-op cache so the service
// still answers requests, just without caching.
func buildCache(cfg *config.Config, logger *zap.Logger) domain.CacheRepository {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			err = redisCache.Ping(ctx)
		}
		if err != nil {
			logger.Warn("redis unreachable, running without cache", zap.Error(err))
			return cache.NewNoopCache()
		}
		return redisCache
	case "none":
		return cache.NewNoopCache()
	default:
		return cache.NewMemoryCache()
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
