package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/tablepos-backend/api/routes"
	"github.com/angelmondragon/tablepos-backend/internal/catalog"
	"github.com/angelmondragon/tablepos-backend/internal/checkout"
	"github.com/angelmondragon/tablepos-backend/internal/kitchen"
	"github.com/angelmondragon/tablepos-backend/internal/orders"
	"github.com/angelmondragon/tablepos-backend/internal/payments"
	"github.com/angelmondragon/tablepos-backend/internal/pricing"
	"github.com/angelmondragon/tablepos-backend/internal/sequence"
	"github.com/angelmondragon/tablepos-backend/internal/tenants"
	"github.com/angelmondragon/tablepos-backend/pkg/config"
	"github.com/angelmondragon/tablepos-backend/pkg/db"
	"github.com/angelmondragon/tablepos-backend/pkg/logger"
	"github.com/angelmondragon/tablepos-backend/pkg/metrics"
	"github.com/angelmondragon/tablepos-backend/pkg/migrate"
	"github.com/angelmondragon/tablepos-backend/pkg/outbox"
	"github.com/angelmondragon/tablepos-backend/pkg/redis"
)

const (
	serviceName     = "api"
	shutdownTimeout = 15 * time.Second
)

func main() {
	bootLog := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		bootLog.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		bootLog.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Console:     cfg.App.LogFormat == "console",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(logg.WithField(ctx, "env", cfg.App.Env), cfg, logg)
	stop()
	if err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server shut down")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("bootstrap database: %w", err)
	}
	defer closeQuietly(logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("bootstrap redis: %w", err)
	}
	defer closeQuietly(logg, "redis", redisClient.Close)

	deps, err := buildDeps(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	server := &http.Server{
		Addr:              ":" + port,
		Handler:           routes.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx = logg.WithField(ctx, "addr", server.Addr)

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// buildDeps wires every domain service over the shared database and redis
// handles.
func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (routes.Deps, error) {
	orderMetrics := metrics.NewOrderMetrics(prometheus.DefaultRegisterer)
	conn := dbClient.DB()
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)
	ordersRepo := orders.NewRepository(conn)

	tenantLookup, err := tenants.NewService(tenants.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, fmt.Errorf("tenant lookup: %w", err)
	}
	orderNumbers, err := sequence.New(cfg.Sequence, sequence.KindOrder, redisClient)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("order numbers: %w", err)
	}
	ticketNumbers, err := sequence.New(cfg.Sequence, sequence.KindTicket, redisClient)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("ticket numbers: %w", err)
	}

	ordersService, err := orders.NewService(orders.Deps{
		Repo:    ordersRepo,
		Tx:      dbClient,
		Tenants: tenantLookup,
		Numbers: orderNumbers,
		Outbox:  outboxSvc,
		DefaultRates: pricing.Rates{
			Tax:           cfg.Pricing.TaxRate(),
			ServiceCharge: cfg.Pricing.ServiceChargeRate(),
		},
		Metrics: orderMetrics,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("orders service: %w", err)
	}
	catalogService, err := catalog.NewService(catalog.NewRepository(conn))
	if err != nil {
		return routes.Deps{}, fmt.Errorf("catalog service: %w", err)
	}
	checkoutService, err := checkout.NewService(catalogService, ordersService)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("checkout service: %w", err)
	}
	paymentsService, err := payments.NewService(payments.NewRepository(conn), ordersRepo, dbClient, outboxSvc, orderMetrics)
	if err != nil {
		return routes.Deps{}, fmt.Errorf("payments service: %w", err)
	}
	kitchenService, err := kitchen.NewService(kitchen.Deps{
		Repo:    kitchen.NewRepository(conn),
		Orders:  ordersRepo,
		Tx:      dbClient,
		Numbers: ticketNumbers,
		Outbox:  outboxSvc,
		Metrics: orderMetrics,
		Logger:  logg,
	})
	if err != nil {
		return routes.Deps{}, fmt.Errorf("kitchen service: %w", err)
	}

	return routes.Deps{
		Config:   cfg,
		Logger:   logg,
		DB:       dbClient,
		Store:    redisClient,
		Gatherer: prometheus.DefaultGatherer,
		HTTP:     metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		Catalog:  catalogService,
		Checkout: checkoutService,
		Orders:   ordersService,
		Payments: paymentsService,
		Kitchen:  kitchenService,
	}, nil
}

func closeQuietly(logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(context.Background(), "error closing "+what, err)
	}
}
