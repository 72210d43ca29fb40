package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tablepos-backend/api/controllers"
	kitchencontrollers "github.com/angelmondragon/tablepos-backend/api/controllers/kitchen"
	ordercontrollers "github.com/angelmondragon/tablepos-backend/api/controllers/orders"
	paymentcontrollers "github.com/angelmondragon/tablepos-backend/api/controllers/payments"
	"github.com/angelmondragon/tablepos-backend/api/middleware"
	"github.com/angelmondragon/tablepos-backend/internal/catalog"
	"github.com/angelmondragon/tablepos-backend/internal/checkout"
	"github.com/angelmondragon/tablepos-backend/internal/kitchen"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/internal/payments"
	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/tablepos-backend/pkg/redis"
)

// Store is the Redis surface the HTTP layer needs for idempotency, rate
// limiting and readiness.
type Store interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
	Ping(ctx context.Context) error
}

// Deps carries everything NewRouter mounts.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Store    Store
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics
	Catalog  catalog.Service
	Checkout checkout.Service
	Orders   orders.Service
	Payments payments.Service
	Kitchen  kitchen.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Recoverer(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTP),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	readiness := map[string]controllers.Pinger{}
	if deps.DB != nil {
		readiness["db"] = deps.DB
	}
	if deps.Store != nil {
		readiness["redis"] = deps.Store
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	apiPolicy := middleware.NewRateLimitPolicy(
		"api",
		cfg.RateLimit.Window,
		cfg.RateLimit.TenantLimit,
		cfg.RateLimit.IPLimit,
	)
	ttls := middleware.IdempotencyTTLs{
		Default:  cfg.Idempotency.TTL,
		Critical: cfg.Idempotency.PaymentsTTL,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TenantContext(logg))
		if deps.Store != nil {
			r.Use(middleware.RateLimit(apiPolicy, deps.Store, logg))
			r.Use(middleware.Idempotency(deps.Store, ttls, logg))
		}

		r.Get("/products/{productId}", controllers.ProductDetail(deps.Catalog, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Post("/", ordercontrollers.Create(deps.Checkout, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Detail(deps.Orders, logg))
				r.Post("/status", ordercontrollers.Transition(deps.Orders, logg))
				r.Patch("/items/{itemId}/status", ordercontrollers.ItemStatus(deps.Orders, logg))

				r.Get("/payments", paymentcontrollers.List(deps.Payments, logg))
				r.Post("/payments", paymentcontrollers.Create(deps.Payments, logg))

				r.Get("/kitchen-tickets", kitchencontrollers.List(deps.Kitchen, logg))
				r.Post("/kitchen-tickets", kitchencontrollers.Issue(deps.Kitchen, logg))
			})
		})
	})

	return r
}
