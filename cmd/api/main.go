package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/authctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/cartctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/catalogctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/couponctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/healthctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/orderctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/paymentctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/controllers/wishlistctrl"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/api/routes"
	authsvc "github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/auth"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/cart"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/catalog"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/coupons"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/orders"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/payments/esewa"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/users"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/internal/wishlist"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/auth/session"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/db"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/logger"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/metrics"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/migrate"
	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logg := logger.New(logger.Options{
		ServiceName: "omegastore-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := context.Background()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "server exited with error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer dbClient.Close()

	if cfg.Features.AutoMigrate {
		sqlDB, err := dbClient.DB().DB()
		if err != nil {
			return err
		}
		if err := migrate.Up(ctx, sqlDB); err != nil {
			return err
		}
		logg.Info(ctx, "migrations applied")
	}

	cache, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer cache.Close()

	tokens, err := auth.NewTokenManager(cfg.JWT)
	if err != nil {
		return err
	}
	sessions, err := session.NewManager(cache, cfg.JWT.RefreshTokenTTL())
	if err != nil {
		return err
	}
	gateway, err := esewa.NewClient(cfg.Esewa)
	if err != nil {
		return err
	}
	m := metrics.New()

	userRepo := users.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	couponRepo := coupons.NewRepository(dbClient.DB())
	cartRepo := cart.NewRepository(dbClient.DB())
	orderRepo := orders.NewRepository(dbClient.DB())

	authSvc, err := authsvc.NewService(userRepo, tokens, sessions, cfg.Password, logg)
	if err != nil {
		return err
	}
	catalogSvc, err := catalog.NewService(catalogRepo, logg)
	if err != nil {
		return err
	}
	couponSvc, err := coupons.NewService(couponRepo, logg)
	if err != nil {
		return err
	}
	cartSvc, err := cart.NewService(cartRepo, catalogSvc, couponSvc, logg)
	if err != nil {
		return err
	}
	orderSvc, err := orders.NewService(orderRepo, cartRepo, couponRepo, catalogSvc, dbClient, gateway, cfg.Checkout, m, logg)
	if err != nil {
		return err
	}
	wishlistSvc, err := wishlist.NewService(dbClient.DB(), catalogSvc)
	if err != nil {
		return err
	}

	handler := routes.New(routes.Deps{
		Config:   cfg,
		Logger:   logg,
		Metrics:  m,
		Tokens:   tokens,
		Sessions: sessions,
		Cache:    cache,

		Health:   healthctrl.NewController(dbClient, cache, logg),
		Auth:     authctrl.NewController(authSvc, logg),
		Catalog:  catalogctrl.NewController(catalogSvc, logg),
		Cart:     cartctrl.NewController(cartSvc, logg),
		Coupons:  couponctrl.NewController(couponSvc, logg),
		Orders:   orderctrl.NewController(orderSvc, logg),
		Payments: paymentctrl.NewController(orderSvc, gateway, cache, m, logg),
		Wishlist: wishlistctrl.NewController(wishlistSvc, logg),
	})

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "listening on "+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logg.Info(ctx, "shutting down on signal "+sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
