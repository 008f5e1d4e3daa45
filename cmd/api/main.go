package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/souq-backend/api/routes"
	"github.com/angelmondragon/souq-backend/internal/auth"
	"github.com/angelmondragon/souq-backend/internal/cart"
	"github.com/angelmondragon/souq-backend/internal/catalog"
	"github.com/angelmondragon/souq-backend/internal/checkout"
	"github.com/angelmondragon/souq-backend/internal/coupons"
	"github.com/angelmondragon/souq-backend/internal/customers"
	"github.com/angelmondragon/souq-backend/internal/locations"
	"github.com/angelmondragon/souq-backend/internal/offers"
	"github.com/angelmondragon/souq-backend/internal/orders"
	"github.com/angelmondragon/souq-backend/internal/payments"
	"github.com/angelmondragon/souq-backend/internal/reconciliation"
	"github.com/angelmondragon/souq-backend/internal/temporders"
	"github.com/angelmondragon/souq-backend/pkg/bootstrap"
	"github.com/angelmondragon/souq-backend/pkg/config"
	"github.com/angelmondragon/souq-backend/pkg/db"
	"github.com/angelmondragon/souq-backend/pkg/logger"
	"github.com/angelmondragon/souq-backend/pkg/metrics"
	"github.com/angelmondragon/souq-backend/pkg/outbox"
	"github.com/angelmondragon/souq-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	proc := bootstrap.Start("api")
	defer proc.Shutdown()
	cfg, logg := proc.Config, proc.Logger
	boot := context.Background()

	dbClient := proc.Database(boot)
	redisClient := proc.Redis(boot, true)

	gateway, err := payments.NewMyFatoorahClient(boot, cfg.Payment, logg)
	proc.Must(boot, "failed to create payment gateway client", err)
	deps, err := buildDeps(cfg, logg, dbClient, redisClient, gateway)
	proc.Must(boot, "failed to wire services", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := proc.SignalContext(map[string]any{"addr": addr})
	defer stop()

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(*deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		proc.Must(ctx, "api server stopped unexpectedly", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server shutting down gracefully")
	}
}

func buildDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, gateway payments.Gateway) (*routes.Deps, error) {
	conn := dbClient.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	checkoutMetrics := metrics.NewCheckoutMetrics(prometheus.DefaultRegisterer)

	customerRepo := customers.NewRepository(conn)
	customerService, err := customers.NewService(customerRepo)
	if err != nil {
		return nil, fmt.Errorf("customers service: %w", err)
	}
	staffRepo := auth.NewStaffRepository(conn)
	authService, err := auth.NewService(auth.ServiceParams{
		CustomerRepo: customerRepo,
		StaffRepo:    staffRepo,
		JWTConfig:    cfg.JWT,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		CustomerRepo:   customerRepo,
		StaffRepo:      staffRepo,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("register service: %w", err)
	}

	catalogRepo := catalog.NewRepository(conn)
	catalogService, err := catalog.NewService(catalogRepo)
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}
	locationService, err := locations.NewService(locations.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("locations service: %w", err)
	}
	couponRepo := coupons.NewRepository(conn)
	couponService, err := coupons.NewService(couponRepo, catalogRepo)
	if err != nil {
		return nil, fmt.Errorf("coupons service: %w", err)
	}
	offersService, err := offers.NewService(offers.NewRepository(conn), catalogRepo)
	if err != nil {
		return nil, fmt.Errorf("offers service: %w", err)
	}
	cartService, err := cart.NewService(cart.NewRepository(conn), dbClient, catalogRepo, offersService)
	if err != nil {
		return nil, fmt.Errorf("cart service: %w", err)
	}

	ordersRepo := orders.NewRepository(conn)
	ordersService, err := orders.NewService(ordersRepo, dbClient, emitter)
	if err != nil {
		return nil, fmt.Errorf("orders service: %w", err)
	}

	callbackURL, callbackErrorURL := cfg.PaymentCallbackURLs()
	checkoutService, err := checkout.NewService(checkout.ServiceParams{
		TxRunner:    dbClient,
		Orders:      ordersRepo,
		Cart:        cartService,
		Locations:   locationService,
		Coupons:     couponService,
		CouponUsage: couponRepo,
		Customers:   customerService,
		Gateway:     gateway,
		Outbox:      emitter,
		Metrics:     checkoutMetrics,
		Logger:      logg,
		CallbackURL: callbackURL,
		ErrorURL:    callbackErrorURL,
		Currency:    cfg.Payment.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("checkout service: %w", err)
	}

	var guard *reconciliation.IdempotencyGuard
	if redisClient != nil {
		guard = reconciliation.NewIdempotencyGuard(redisClient, cfg.Payment.CallbackTTL, logg)
	}
	successURL, errorURL := cfg.PaymentLandingURLs()
	reconciliationService, err := reconciliation.NewService(reconciliation.ServiceParams{
		TxRunner:   dbClient,
		Orders:     ordersRepo,
		Gateway:    gateway,
		Cart:       cartService,
		Outbox:     emitter,
		Guard:      guard,
		Metrics:    checkoutMetrics,
		Logger:     logg,
		SuccessURL: successURL,
		ErrorURL:   errorURL,
		StaleTTL:   cfg.Checkout.StalePendingTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("reconciliation service: %w", err)
	}

	tempOrderService, err := temporders.NewService(temporders.ServiceParams{
		Repo:        temporders.NewRepository(conn),
		Products:    catalogRepo,
		Customers:   customerService,
		Checkout:    checkoutService,
		FrontendURL: cfg.App.FrontendURL,
		Logger:      logg,
	})
	if err != nil {
		return nil, fmt.Errorf("temp orders service: %w", err)
	}

	return &routes.Deps{
		Config:         cfg,
		Logger:         logg,
		DB:             dbClient,
		Redis:          redisClient,
		Gatherer:       prometheus.DefaultGatherer,
		Auth:           authService,
		Register:       registerService,
		Customers:      customerService,
		Catalog:        catalogService,
		Locations:      locationService,
		Coupons:        couponService,
		Offers:         offersService,
		Cart:           cartService,
		Orders:         ordersService,
		Checkout:       checkoutService,
		Reconciliation: reconciliationService,
		TempOrders:     tempOrderService,
	}, nil
}
