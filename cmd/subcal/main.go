package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"subcal/internal/cache"
	"subcal/internal/cli"
	"subcal/internal/core"
	apphttp "subcal/internal/http"
	applog "subcal/internal/log"
	"subcal/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.InitBackend(context.Background(), logger, cfg)
	if res.Cleanup != nil {
		defer func() {
			if err := res.Cleanup(); err != nil {
				logger.Error("Failed to close backend", "error", err)
			}
		}()
	}

	listCache := cache.NewLRUCache[[]core.Subscription](1000, 5*time.Minute)
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register(listCache)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	subs := services.NewSubscriptionService(res.Backend, cfg.Currency, services.WithCache(listCache))
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Subscriptions:  subs,
		Owners:         res.Backend,
		Ready:          res.Backend,
		Logger:         logger,
		CurrencySymbol: cfg.CurrencySymbol,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	})

	logger.Info("Starting subcal server", applog.FieldOperation, applog.OpStartup, "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
