package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fruit-fusion/internal/core/auth"
	"fruit-fusion/internal/core/cache"
	"fruit-fusion/internal/core/config"
	"fruit-fusion/internal/core/logger"
	"fruit-fusion/internal/core/messaging"
	"fruit-fusion/internal/core/outbox"
	"fruit-fusion/internal/core/proxy"
	"fruit-fusion/internal/core/server"
	"fruit-fusion/internal/core/store"
	banneradapter "fruit-fusion/internal/features/banners/adapters"
	bannerhandler "fruit-fusion/internal/features/banners/handler"
	bannerservice "fruit-fusion/internal/features/banners/service"
	orderadapter "fruit-fusion/internal/features/orders/adapters"
	orderdomain "fruit-fusion/internal/features/orders/domain"
	orderhandler "fruit-fusion/internal/features/orders/handler"
	orderservice "fruit-fusion/internal/features/orders/service"
	productadapter "fruit-fusion/internal/features/products/adapters"
	producthandler "fruit-fusion/internal/features/products/handler"
	productservice "fruit-fusion/internal/features/products/service"
	synchandler "fruit-fusion/internal/features/syncer/handler"

	"go.uber.org/zap"
)

// warmRetryDelay is how long a cache warmer waits before resubscribing after its stream ends.
const warmRetryDelay = 5 * time.Second

// @title Fruit Fusion API
// @version 1.0
// @description Storefront backend for Fruit Fusion: catalog, cash-on-delivery orders, banners and offline sync.
// @contact.name API Support
// @contact.email support@fruitfusion.pk
// @license.name MIT
// @host localhost:8080
// @BasePath /
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local cache, also backing the outbox
	redisAdapter, err := cache.NewRedisAdapter(cfg.Cache.RedisURL)
	if err != nil {
		l.Fatal("Failed to initialize Redis adapter", zap.Error(err))
	}
	defer redisAdapter.Close()
	if err := redisAdapter.Ping(ctx); err != nil {
		l.Fatal("Redis Health Check Failed", zap.Error(err))
	}

	// Hosted store; starting offline is allowed
	db := store.NewClient(cfg.Store, proxy.FromConfig(cfg.Proxy))
	if err := db.Ping(ctx); err != nil {
		l.Warn("Store not reachable, starting in offline mode", zap.Error(err))
	} else {
		l.Info("Store connection verified")
	}

	ob := outbox.New(redisAdapter, db)
	go ob.Run(ctx, cfg.Sync.Interval())

	publisher := newPublisher(cfg.Messaging, l)
	defer publisher.Close()

	// Banners double as the offline indicator for the other features
	bannerSvc := bannerservice.NewBannerService(banneradapter.NewRedisBannerRepository(redisAdapter))
	bannerHdl := bannerhandler.NewBannerHandler(bannerSvc)

	orderSvc := orderservice.NewOrderService(
		orderadapter.NewStoreOrderRepository(db),
		orderadapter.NewCacheOrderRepository(redisAdapter),
		ob,
		publisher,
		bannerSvc,
		orderdomain.CheckoutRules{DeliveryCity: cfg.Checkout.DeliveryCity},
	)
	orderHdl := orderhandler.NewOrderHandler(orderSvc)

	catalogSvc := productservice.NewCatalogService(
		productadapter.NewStoreCatalogRepository(db),
		productadapter.NewCacheCatalogRepository(redisAdapter),
		ob,
		bannerSvc,
	)
	productHdl := producthandler.NewProductHandler(catalogSvc)

	syncHdl := synchandler.NewSyncHandler(ob)

	go keepWarm(ctx, "orders", orderSvc.WarmCache)
	go keepWarm(ctx, "products", catalogSvc.WarmCache)

	srv := server.New(cfg)

	// Public routes
	srv.App.Get("/products", productHdl.ListProducts)
	srv.App.Get("/products/:id", productHdl.GetProduct)
	srv.App.Get("/categories", productHdl.ListCategories)
	srv.App.Get("/orders", orderHdl.ListUserOrders)
	srv.App.Post("/orders", orderHdl.PlaceOrder)
	srv.App.Get("/orders/:id", orderHdl.GetOrder)
	srv.App.Get("/banner", bannerHdl.GetBanner)

	// Admin routes
	admin := srv.App.Group("/admin", auth.Middleware(auth.NewStaticVerifier(cfg.Admin.Password)))
	admin.Get("/orders", orderHdl.ListAllOrders)
	admin.Patch("/orders/:id/status", orderHdl.UpdateStatus)
	admin.Get("/products", productHdl.ListAllProducts)
	admin.Post("/products", productHdl.CreateProduct)
	admin.Patch("/products/:id", productHdl.UpdateProduct)
	admin.Put("/products/:id/visibility", productHdl.SetVisibility)
	admin.Delete("/products/:id", productHdl.DeleteProduct)
	admin.Post("/categories", productHdl.CreateCategory)
	admin.Post("/banner", bannerHdl.SetBanner)
	admin.Delete("/banner", bannerHdl.RemoveBanner)
	admin.Get("/sync", syncHdl.GetStatus)
	admin.Post("/sync", syncHdl.Sync)

	go func() {
		<-ctx.Done()
		l.Info("Shutting down")
		if err := srv.Shutdown(); err != nil {
			l.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil {
		l.Fatal("Server failed to start", zap.Error(err))
	}
}

// newPublisher connects to RabbitMQ when configured, falling back to dropping events.
func newPublisher(cfg config.MessagingConfig, l *zap.Logger) messaging.Publisher {
	if cfg.URL == "" {
		l.Info("RABBITMQ_URL not set, order events disabled")
		return messaging.NopPublisher{}
	}
	p, err := messaging.NewRabbitMQPublisher(cfg.URL, cfg.Exchange)
	if err != nil {
		l.Error("Failed to connect to RabbitMQ, order events disabled", zap.Error(err))
		return messaging.NopPublisher{}
	}
	l.Info("Publishing order events", zap.String("exchange", cfg.Exchange))
	return p
}

// keepWarm runs warm until ctx is done, resubscribing after each dropped stream.
func keepWarm(ctx context.Context, name string, warm func(context.Context) error) {
	l := logger.Named("warmer").With(zap.String("feature", name))
	for {
		err := warm(ctx)
		if ctx.Err() != nil {
			return
		}
		l.Warn("Cache stream ended, retrying", zap.Duration("delay", warmRetryDelay), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(warmRetryDelay):
		}
	}
}
