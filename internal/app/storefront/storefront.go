// Package storefront собирает HTTP-приложение витрины: хранилище, кэш,
// внешние клиенты, сервисы и маршруты.
package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/license-storefront/internal/botclient"
	"github.com/magabrotheeeer/license-storefront/internal/cache"
	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/license-storefront/internal/migrations"
	"github.com/magabrotheeeer/license-storefront/internal/paymentprovider"
	"github.com/magabrotheeeer/license-storefront/internal/services/access"
	authservice "github.com/magabrotheeeer/license-storefront/internal/services/auth"
	checkoutservice "github.com/magabrotheeeer/license-storefront/internal/services/checkout"
	dashboardservice "github.com/magabrotheeeer/license-storefront/internal/services/dashboard"
	downloadservice "github.com/magabrotheeeer/license-storefront/internal/services/download"
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
	paymentservice "github.com/magabrotheeeer/license-storefront/internal/services/payment"
	userservice "github.com/magabrotheeeer/license-storefront/internal/services/user"
	"github.com/magabrotheeeer/license-storefront/internal/storage/repository"
)

// App представляет HTTP-приложение витрины.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
}

// New создает приложение витрины: подключает хранилище и кэш, прогоняет
// миграции, собирает сервисы и маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	botClient := botclient.New(cfg.TicketBot)
	providerClient := paymentprovider.NewClient(cfg.PaymentProvider)

	authService := authservice.New(db, cacheRedis, jwtMaker, cfg.JWTToken, logger)
	accessService := access.New(db, logger)
	licenseService := licenseservice.New(db, logger)
	downloadService := downloadservice.New(db, accessService, cacheRedis, logger)
	userService := userservice.New(db, logger)
	paymentService := paymentservice.New(db, providerClient, cfg.PaymentProvider, logger)
	dashboardService := dashboardservice.New(db, logger)
	checkoutService := checkoutservice.New(botClient, cfg.PaymentProvider, cfg.TicketBot, logger)

	router := chi.NewRouter()

	RegisterRoutes(router, logger, cfg, jwtMaker, cacheRedis, botClient,
		authService, licenseService, downloadService, userService,
		paymentService, dashboardService, checkoutService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", slog.Any("err", closeErr))
		}
		if closeErr := a.cache.Close(); closeErr != nil {
			a.logger.Error("failed to close cache", slog.Any("err", closeErr))
		}
		return err
	}
}
