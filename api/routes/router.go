package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cocoaloft/storefront-backend/api/controllers"
	"github.com/cocoaloft/storefront-backend/api/middleware"
	addresssvc "github.com/cocoaloft/storefront-backend/internal/addresses"
	cartsvc "github.com/cocoaloft/storefront-backend/internal/cart"
	"github.com/cocoaloft/storefront-backend/internal/catalog"
	checkoutsvc "github.com/cocoaloft/storefront-backend/internal/checkout"
	couponsvc "github.com/cocoaloft/storefront-backend/internal/coupons"
	identitysvc "github.com/cocoaloft/storefront-backend/internal/identity"
	ordersvc "github.com/cocoaloft/storefront-backend/internal/orders"
	reviewsvc "github.com/cocoaloft/storefront-backend/internal/reviews"
	"github.com/cocoaloft/storefront-backend/pkg/config"
	"github.com/cocoaloft/storefront-backend/pkg/db"
	"github.com/cocoaloft/storefront-backend/pkg/logger"
	"github.com/cocoaloft/storefront-backend/pkg/metrics"
	"github.com/cocoaloft/storefront-backend/pkg/redis"
)

// Services bundles everything the router wires into handlers.
type Services struct {
	Catalog   catalog.Service
	Cart      cartsvc.Service
	Coupons   couponsvc.Service
	Checkout  checkoutsvc.Service
	Orders    ordersvc.Service
	Addresses addresssvc.Service
	Reviews   reviewsvc.Service
	Identity  identitysvc.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	m *metrics.StorefrontMetrics,
	registry *prometheus.Registry,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, cfg.Guest, svcs.Identity, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(svcs.Catalog, logg))
			r.Get("/{productId}", controllers.GetProduct(svcs.Catalog, logg))
			r.Get("/{productId}/reviews", controllers.ListReviews(svcs.Reviews, logg))
			r.With(middleware.RequireUser(logg)).
				Post("/{productId}/reviews", controllers.CreateReview(svcs.Reviews, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(svcs.Cart, logg))
			r.Post("/items", controllers.AddCartItem(svcs.Cart, logg))
			r.Put("/items/{itemId}", controllers.UpdateCartItem(svcs.Cart, logg))
			r.Delete("/items/{itemId}", controllers.RemoveCartItem(svcs.Cart, logg))
		})

		r.Post("/coupons/validate", controllers.ValidateCoupon(svcs.Coupons, m, logg))

		r.With(middleware.Idempotency(redisClient, cfg.Checkout.IdempotencyTTL, logg)).
			Post("/checkout", controllers.Checkout(svcs.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(svcs.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(svcs.Orders, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.ListAddresses(svcs.Addresses, logg))
			r.Post("/", controllers.CreateAddress(svcs.Addresses, logg))
			r.Delete("/{addressId}", controllers.DeleteAddress(svcs.Addresses, logg))
		})
	})

	return r
}
