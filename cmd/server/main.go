package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"supplychain/internal/auth"
	"supplychain/internal/cache"
	"supplychain/internal/config"
	"supplychain/internal/db"
	httpapi "supplychain/internal/http"
	"supplychain/internal/logging"
	"supplychain/internal/repository"
	"supplychain/internal/service"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		logger.Fatal("database error", zap.Error(err))
	}
	defer pool.Close()

	applied, err := db.RunMigrations(ctx, pool)
	if err != nil {
		logger.Fatal("migration error", zap.Error(err))
	}
	if len(applied) > 0 {
		logger.Info("migrations applied", zap.Strings("versions", applied))
	}

	opts := service.Options{Logger: logger}
	if cfg.Redis.Enabled() {
		rdb := cache.NewClient(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unavailable, warnings will be read from the database", zap.Error(err))
		} else {
			opts.Cache = cache.NewWarningCache(rdb, cfg.Redis.WarningTTL)
		}
	}

	svc := service.New(repository.New(pool), opts)
	warehouse, err := svc.EnsureDefaultWarehouse(ctx, cfg.Warehouse.DefaultCode, cfg.Warehouse.DefaultName)
	if err != nil {
		logger.Fatal("default warehouse init error", zap.Error(err))
	}
	logger.Info("receiving warehouse ready", zap.Int64("id", warehouse.ID), zap.String("code", warehouse.Code))

	handler := httpapi.NewHandler(svc, auth.NewVerifier(cfg.JWT.Secret), httpapi.Options{
		Logger:         logger,
		Development:    cfg.Server.Development(),
		RequestTimeout: cfg.Server.RequestTimeout,
		DB:             pool,
	})
	router := httpapi.NewRouter(handler)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("supply chain api listening", zap.String("addr", server.Addr), zap.String("mode", cfg.Server.Mode))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("force close failed", zap.Error(closeErr))
		}
	}
	logger.Info("server stopped")
}
