package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/images"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/marketplace-service-go/internal/tracing"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Options{Service: cfg.ServiceName, Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("marketplace-api stopped")
	}
	logger.Info().Msg("shutdown complete")
}

func run(cfg config.Config, logger zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracerProvider(cfg.ServiceName, cfg.TracingEndpoint, logger)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("flush traces")
		}
	}()

	// --- DB ---
	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return err
		}
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN, db.PoolOptions{MaxConns: cfg.MaxDBConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	// --- metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// --- domain ---
	resolver := images.NewResolver(cfg.ImageBaseURL)
	carts := cart.NewPostgresRepository(pool, resolver)
	orders := order.NewPostgresRepository(pool, resolver)

	var orderStore order.Store = orders
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, order cache will fall through")
		}
		orderStore = order.NewCachedStore(orders, order.NewRedisCache(rdb), cfg.OrderCacheTTL, logger)
		logger.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.OrderCacheTTL).Msg("order cache enabled")
	}

	checkoutOpts := []checkout.Option{checkout.WithObserver(metrics.NewCheckout(reg))}
	if cfg.OutboxEnabled {
		checkoutOpts = append(checkoutOpts, checkout.WithEvents(events.NewOrderPlacedRecorder(cfg.OrderEventTopic, cfg.ServiceName)))
		logger.Info().Str("topic", cfg.OrderEventTopic).Msg("outbox enabled")
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger,
		Service:          cfg.ServiceName,
		Verifier:         auth.NewVerifier(cfg.JWTSecret),
		Checkout:         checkout.NewService(pool, carts, orders, logger, checkoutOpts...),
		Orders:           order.NewQueryService(orderStore),
		Carts:            cart.NewService(carts),
		Gatherer:         reg,
		Requests:         metrics.NewServerMetrics(reg),
		CheckoutTimeout:  cfg.CheckoutTimeout,
		ReadTimeout:      cfg.ReadTimeout,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
	})

	// --- HTTP ---
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.CheckoutTimeout + 5*time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
