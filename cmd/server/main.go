package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-be/internal/address"
	"storefront-be/internal/cache"
	"storefront-be/internal/cart"
	"storefront-be/internal/config"
	"storefront-be/internal/db"
	"storefront-be/internal/events"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/middleware"
	"storefront-be/internal/notification"
	"storefront-be/internal/order"
	"storefront-be/internal/payment"
	"storefront-be/internal/product"
	"storefront-be/internal/rest"
	"storefront-be/internal/user"
	"storefront-be/internal/wishlist"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Overridden in tests.
var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

type app struct {
	handler    http.Handler
	reconciler *payment.Reconciler
	limiter    *middleware.RateLimiter
	closers    []func() error
}

func main() {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	a, err := newServer(cfg, database)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.L().Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error { return a.reconciler.Run(gctx) })
	g.Go(func() error { return a.limiter.Cleanup(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newServer wires every service onto database and returns the HTTP handler
// plus the background workers.
func newServer(cfg *config.Config, database *sql.DB) (*app, error) {
	a := &app{}

	tokens, err := user.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return nil, err
	}

	var productCache cache.Cache = cache.Nop{}
	if cfg.RedisAddr != "" {
		client := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		productCache = cache.NewRedisCache(client, "storefront:")
		a.closers = append(a.closers, client.Close)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaOrdersTopic))
		publisher = kp
		a.closers = append(a.closers, kp.Close)
	}

	notifier := notification.NewNotifier(notification.NewMailer(notification.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}))

	userSvc := user.NewService(user.NewRepository(database), tokens)

	productRepo := product.NewRepository(database)
	productSvc := product.NewService(productRepo, productCache)

	addressSvc := address.NewService(address.NewRepository(database))

	cartSvc := cart.NewService(cart.NewRepository(database), productRepo)
	wishlistSvc := wishlist.NewService(wishlist.NewRepository(database), productRepo, cartSvc)

	orderSvc := order.NewService(order.NewRepository(database), userSvc, cartSvc, notifier, publisher)

	stats := metrics.NewPayments()
	paymentSvc := payment.NewService(
		payment.NewRepository(database),
		payment.NewPhonePeGateway(payment.PhonePeConfig{
			MerchantID: cfg.PhonePe.MerchantID,
			SaltKey:    cfg.PhonePe.SaltKey,
			SaltIndex:  cfg.PhonePe.SaltIndex,
			BaseURL:    cfg.PhonePe.BaseURL,
		}),
		orderSvc,
		notifier,
		publisher,
		stats,
		payment.Options{
			AppBaseURL:     cfg.AppBaseURL,
			VerifyCallback: cfg.PhonePe.VerifyCallback,
			ReconcileAfter: cfg.ReconcileAfter,
		},
	)
	if !cfg.PhonePe.VerifyCallback {
		logger.L().Warn("PhonePe callback checksum verification is disabled")
	}

	a.limiter = middleware.NewRateLimiter(cfg.InternalSecretKey)
	a.reconciler = payment.NewReconciler(paymentSvc, cfg.ReconcileInterval)

	a.handler = rest.NewHandler(rest.Deps{
		Users:     userSvc,
		Products:  productSvc,
		Addresses: addressSvc,
		Carts:     cartSvc,
		Wishlist:  wishlistSvc,
		Orders:    orderSvc,
		Payments:  paymentSvc,

		Auth:    middleware.NewAuth(tokens, userSvc),
		Limiter: a.limiter,
		Stats:   stats,
		DB:      database,

		FrontendURL:  cfg.FrontendURL,
		SecureCookie: cfg.IsProduction(),
	}).Routes()

	return a, nil
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			logger.L().Warn("close failed", zap.Error(err))
		}
	}
}
