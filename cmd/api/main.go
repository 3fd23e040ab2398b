package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"rbxstore-api/internal/cache"
	"rbxstore-api/internal/config"
	"rbxstore-api/internal/handler"
	"rbxstore-api/internal/logging"
	"rbxstore-api/internal/middleware"
	"rbxstore-api/internal/outbox"
	"rbxstore-api/internal/repository"
	"rbxstore-api/internal/roblox"
	"rbxstore-api/internal/router"
	"rbxstore-api/internal/service"
	"rbxstore-api/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.App.Environment, cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting rbxstore api",
		zap.String("env", cfg.App.Environment),
		zap.String("version", cfg.App.Version))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Cache backs the pricing rate and the checkout handoffs
	var store cache.Cache
	switch cfg.Cache.Type {
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddress(),
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix,
		}, logger)
		if err != nil {
			return fmt.Errorf("init redis cache: %w", err)
		}
		store = rc
	default:
		store = cache.NewMemoryCache()
		logger.Warn("using in-memory cache; checkout handoffs are not shared between replicas")
	}
	defer store.Close()

	orderRepo, err := repository.Open(ctx, repository.Options{
		Driver:          cfg.OrderDB.Driver,
		DSN:             cfg.OrderDB.DSN,
		MongoDatabase:   cfg.OrderDB.MongoDatabase,
		MongoCollection: cfg.OrderDB.MongoCollection,
	}, logger)
	if err != nil {
		return fmt.Errorf("init order repository: %w", err)
	}
	defer orderRepo.Close()

	client := roblox.NewClient(roblox.Config{
		BaseURL:            cfg.Upstream.BaseURL,
		Timeout:            cfg.Upstream.Timeout,
		BreakerMaxFailures: cfg.Upstream.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Upstream.BreakerOpenTimeout,
	}, logger)

	// Services
	pricingService := service.NewPricingService(client, store, cfg.Workflow.PricingTTL, logger)
	handoffs := outbox.New(store, cfg.Workflow.HandoffTTL)
	checkoutService := service.NewCheckoutService(handoffs, orderRepo, logger)

	sessions := session.NewManager(
		session.Deps{
			Directory: client,
			Rates:     pricingService,
			Outbox:    handoffs,
			Logger:    logger,
		},
		session.Config{
			LookupDebounce: cfg.Workflow.LookupDebounce,
			EffectTimeout:  cfg.Workflow.EffectTimeout,
			Packages:       cfg.Workflow.Packages,
			MaxRobux:       cfg.Workflow.MaxRobux,
		},
	)
	defer sessions.CloseAll()

	reaper := service.NewSessionReaper(sessions, orderRepo, service.ReaperConfig{
		SessionIdleTTL:     cfg.Workflow.SessionIdleTTL,
		OrderPendingExpiry: cfg.OrderDB.PendingExpiry,
		Interval:           cfg.Workflow.ReapInterval,
	}, logger)
	reaper.Start()
	defer reaper.Stop()

	if len(cfg.App.APIKeys) == 0 {
		logger.Warn("API_KEYS is empty; claim, order and admin routes will reject every request")
	}

	r := router.New(router.Config{
		Handler: handler.New(cfg.App.Version, map[string]handler.Pinger{
			"cache":    store,
			"database": orderRepo,
		}),
		RBX5Handler:     handler.NewRBX5Handler(sessions, pricingService, logger),
		CheckoutHandler: handler.NewCheckoutHandler(checkoutService),
		OrderHandler:    handler.NewOrderHandler(checkoutService),
		AdminHandler:    handler.NewAdminHandler(sessions, orderRepo, cfg.OrderDB.Driver, cfg.Cache.Type),
		AuthMiddleware:  middleware.RequireAPIKey(cfg.App.APIKeys),
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		Logger:          logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      otelhttp.NewHandler(r, "rbxstore-api"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("server stopped")
	return nil
}
