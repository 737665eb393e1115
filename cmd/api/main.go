package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/cache"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/repository"
	"storefront/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zapLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	if err := run(cfg, zapLog); err != nil {
		zapLog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zapLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	client, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.ConnectTimeout)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			zapLog.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()

	db := client.Database(cfg.Mongo.Database)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	store, err := newCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	products := repository.NewProductRepository(db.Collection(database.ProductsCollection))
	categories := repository.NewCategoryRepository(db.Collection(database.CategoriesCollection))
	reviews := repository.NewReviewRepository(db.Collection(database.ReviewsCollection))
	orders := repository.NewOrderRepository(db.Collection(database.OrdersCollection))

	pricing := checkout.Pricing{
		ShippingFeeCents:           cfg.Checkout.ShippingFeeCents,
		FreeShippingThresholdCents: cfg.Checkout.FreeShippingThresholdCents,
		TaxRate:                    cfg.Checkout.TaxRate,
		MaxQuantity:                cfg.Checkout.MaxQuantity,
	}
	m := metrics.New()

	router := routes.NewRouter(zapLog, m, routes.Handlers{
		Products:   handlers.NewProductHandler(products, categories, reviews, store, cfg.Cache.ProductTTL, cfg.Cache.ListTTL),
		Categories: handlers.NewCategoryHandler(categories),
		Checkout: handlers.NewCheckoutHandler(
			checkout.NewService(products, orders, pricing, zapLog.Named("checkout")),
			orders, store, m,
		),
		Health: handlers.NewHealthHandler(func(ctx context.Context) error {
			return database.Ping(ctx, client)
		}),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zapLog.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.App.Env),
			zap.Bool("redis_cache", cfg.Redis.Addr != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zapLog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newCache picks Redis when an address is configured, otherwise an in-process store
func newCache(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if cfg.Redis.Addr == "" {
		return cache.NewMemory(cfg.Cache.ProductTTL, time.Minute), nil
	}
	return cache.NewRedis(ctx, cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Cache.ProductTTL)
}
