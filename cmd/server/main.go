package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	config "github.com/priy-am/url-shortener-service/config"
	db "github.com/priy-am/url-shortener-service/internal/database"
	"github.com/priy-am/url-shortener-service/internal/handler"
	"github.com/priy-am/url-shortener-service/internal/repository"
	route "github.com/priy-am/url-shortener-service/internal/routes"
	"github.com/priy-am/url-shortener-service/internal/service"
	"github.com/priy-am/url-shortener-service/internal/tracing"
)

func main() {
	logger := zap.Must(zap.NewProduction())
	defer logger.Sync()

	zap.ReplaceGlobals(logger)

	secrets, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("error loading configuration", zap.Error(err))
	}

	ctx := context.Background()

	shutdownTracer, err := tracing.InitTracer(ctx)
	if err != nil {
		logger.Warn("tracing disabled", zap.Error(err))
		shutdownTracer = func(context.Context) error { return nil }
	}

	var store repository.MappingStore
	var closeStore func()

	switch secrets.StoreBackend {
	case config.StoreInMemory:
		store = repository.NewMemoryMappingStore()
		closeStore = func() {}
		logger.Info("using in-memory store")

	default:
		pgClient, pgErr := db.NewPostgresClient(secrets)
		if pgErr != nil {
			logger.Fatal("postgres failed to initialize", zap.Error(pgErr))
		}
		logger.Info("postgres connection established")

		if schemaErr := db.EnsureSchema(ctx, pgClient); schemaErr != nil {
			logger.Fatal("schema setup failed", zap.Error(schemaErr))
		}

		redisClient := newOptionalRedis(secrets, logger)

		store = repository.NewPostgresMappingStore(pgClient, redisClient, secrets.CacheTTL)
		closeStore = func() {
			pgClient.Close()
			if redisClient != nil {
				redisClient.Close()
			}
		}
	}

	urlService := service.NewURLService(store, secrets.CodeLength, secrets.MaxCodeRetries)
	urlHandler := handler.NewURLHandler(urlService, secrets.BaseURL)
	r := route.SetupRouter(urlHandler, secrets)

	server := &http.Server{
		Addr:    ":" + secrets.ServerPort,
		Handler: r,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		serverErr <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(ctx, secrets.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			if err := server.Close(); err != nil {
				logger.Error("forced shutdown failed", zap.Error(err))
			}
		}

		closeStore()

		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", zap.Error(err))
		}

		logger.Info("server stopped")
	}
}

// newOptionalRedis connects to redis when REDIS_ADDR is configured; the
// cache is an optimization, so a missing address just means no caching.
func newOptionalRedis(secrets *config.Config, logger *zap.Logger) *redis.Client {
	if secrets.CacheDisabled || secrets.RedisAddr == "" {
		logger.Info("redis cache disabled")
		return nil
	}

	redisClient, err := db.NewRedisClient(secrets)
	if err != nil {
		logger.Warn("redis failed to initialize, continuing without cache", zap.Error(err))
		return nil
	}
	logger.Info("redis connection established")
	return redisClient
}
