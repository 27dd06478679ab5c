package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cocoaloft/storefront-backend/api/routes"
	"github.com/cocoaloft/storefront-backend/internal/addresses"
	"github.com/cocoaloft/storefront-backend/internal/cart"
	"github.com/cocoaloft/storefront-backend/internal/catalog"
	"github.com/cocoaloft/storefront-backend/internal/checkout"
	"github.com/cocoaloft/storefront-backend/internal/coupons"
	"github.com/cocoaloft/storefront-backend/internal/identity"
	"github.com/cocoaloft/storefront-backend/internal/orders"
	"github.com/cocoaloft/storefront-backend/internal/pricing"
	"github.com/cocoaloft/storefront-backend/internal/promotions"
	"github.com/cocoaloft/storefront-backend/internal/reviews"
	"github.com/cocoaloft/storefront-backend/pkg/config"
	"github.com/cocoaloft/storefront-backend/pkg/db"
	"github.com/cocoaloft/storefront-backend/pkg/logger"
	"github.com/cocoaloft/storefront-backend/pkg/metrics"
	"github.com/cocoaloft/storefront-backend/pkg/migrate"
	"github.com/cocoaloft/storefront-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, "no .env file found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env": cfg.App.Env,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "migrations", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	gormDB := dbClient.DB()

	catalogRepo := catalog.NewRepository(gormDB)
	promotionRepo := promotions.NewRepository(gormDB)
	couponRepo := coupons.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	addressRepo := addresses.NewRepository(gormDB)
	orderRepo := orders.NewRepository(gormDB)
	identityRepo := identity.NewRepository(gormDB)
	reviewRepo := reviews.NewRepository(gormDB)

	engine, err := pricing.NewEngine(catalogRepo, promotionRepo, cfg.Pricing)
	requireResource(ctx, logg, "pricing engine", err)

	registry := prometheus.NewRegistry()
	m := metrics.NewStorefrontMetrics(registry)

	catalogSvc, err := catalog.NewService(catalogRepo)
	requireResource(ctx, logg, "catalog service", err)

	cartSvc, err := cart.NewService(cartRepo, catalogRepo, engine, m)
	requireResource(ctx, logg, "cart service", err)

	couponSvc, err := coupons.NewService(couponRepo)
	requireResource(ctx, logg, "coupon service", err)

	checkoutSvc, err := checkout.NewService(cartRepo, addressRepo, couponRepo, couponSvc, engine, orderRepo, dbClient, m)
	requireResource(ctx, logg, "checkout service", err)

	orderSvc, err := orders.NewService(orderRepo)
	requireResource(ctx, logg, "order service", err)

	addressSvc, err := addresses.NewService(addressRepo, dbClient)
	requireResource(ctx, logg, "address service", err)

	reviewSvc, err := reviews.NewService(reviewRepo, catalogRepo)
	requireResource(ctx, logg, "review service", err)

	identitySvc, err := identity.NewService(identityRepo, addressRepo, cartRepo, dbClient)
	requireResource(ctx, logg, "identity service", err)

	router := routes.NewRouter(cfg, logg, dbClient, redisClient, m, registry, routes.Services{
		Catalog:   catalogSvc,
		Cart:      cartSvc,
		Coupons:   couponSvc,
		Checkout:  checkoutSvc,
		Orders:    orderSvc,
		Addresses: addressSvc,
		Reviews:   reviewSvc,
		Identity:  identitySvc,
	})

	port := cfg.App.Port
	if envPort := os.Getenv("PORT"); envPort != "" {
		port = envPort
	}

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logg.Info(ctx, fmt.Sprintf("storefront api listening on :%s", port))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "server stopped", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
