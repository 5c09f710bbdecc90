// Package storefront предоставляет маршруты витрины.
package storefront

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/license-storefront/internal/botclient"
	"github.com/magabrotheeeer/license-storefront/internal/cache"
	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/auth/me"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/auth/refresh"
	authregister "github.com/magabrotheeeer/license-storefront/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/dashboard/activity"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/dashboard/adminactivity"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/dashboard/adminstats"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/dashboard/notifications"
	dashboardstats "github.com/magabrotheeeer/license-storefront/internal/http/handlers/dashboard/stats"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/discord/checkout"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/discord/contact"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/discord/purchaseredirect"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/discord/serverinvite"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/discord/status"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/discord/supportredirect"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/categories"
	downloadcreate "github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/create"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/deactivate"
	downloadget "github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/get"
	downloadhistory "github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/history"
	downloadlist "github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/list"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/popular"
	downloadregister "github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/register"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/download/update"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/health"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/activate"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/expiring"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/extend"
	licenseget "github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/get"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/issue"
	licenselist "github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/list"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/revoke"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/license/verify"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/payment/confirm"
	paymentcreate "github.com/magabrotheeeer/license-storefront/internal/http/handlers/payment/create"
	paymenthistory "github.com/magabrotheeeer/license-storefront/internal/http/handlers/payment/history"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/payment/pricing"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/deleteaccount"
	userlist "github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/list"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/preferences"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/profile"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/setrole"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/setstatus"
	userstats "github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/stats"
	"github.com/magabrotheeeer/license-storefront/internal/http/handlers/user/updateprofile"
	"github.com/magabrotheeeer/license-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	authservice "github.com/magabrotheeeer/license-storefront/internal/services/auth"
	checkoutservice "github.com/magabrotheeeer/license-storefront/internal/services/checkout"
	dashboardservice "github.com/magabrotheeeer/license-storefront/internal/services/dashboard"
	downloadservice "github.com/magabrotheeeer/license-storefront/internal/services/download"
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
	paymentservice "github.com/magabrotheeeer/license-storefront/internal/services/payment"
	userservice "github.com/magabrotheeeer/license-storefront/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты витрины.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config,
	jwtMaker jwt.Maker, cacheRedis *cache.Cache, botClient *botclient.Client,
	authService *authservice.Service, licenseService *licenseservice.Service,
	downloadService *downloadservice.Service, userService *userservice.Service,
	paymentService *paymentservice.Service, dashboardService *dashboardservice.Service,
	checkoutService *checkoutservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	rateLimiter := middlewarectx.NewRateLimiter(cfg.RateLimit, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.CORSMiddleware(cfg.FrontendOrigin))
		r.Use(rateLimiter.Middleware)

		// Открытые конечные точки
		r.Get("/health", health.New(logger).ServeHTTP)
		r.Post("/auth/register", authregister.New(logger, authService).ServeHTTP)
		r.Post("/auth/login", login.New(logger, authService).ServeHTTP)
		r.Post("/auth/refresh", refresh.New(logger, authService).ServeHTTP)
		r.Get("/payments/pricing", pricing.New(logger, paymentService).ServeHTTP)
		r.Get("/discord/server-invite", serverinvite.New(logger, cfg.TicketBot).ServeHTTP)
		r.Get("/discord/contact", contact.New(logger, cfg.TicketBot).ServeHTTP)
		r.Get("/discord/status", status.New(logger, botClient).ServeHTTP)
		r.Get("/discord/purchase-redirect", purchaseredirect.New(logger, cfg.TicketBot).ServeHTTP)
		r.Get("/discord/support-redirect", supportredirect.New(logger, cfg.TicketBot).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, cacheRedis, logger))
			r.Get("/auth/user", me.New(logger, authService).ServeHTTP)
			r.Post("/auth/logout", logout.New(logger, jwtMaker, authService).ServeHTTP)

			r.Get("/licenses", licenselist.New(logger, licenseService).ServeHTTP)
			r.Get("/licenses/{key}", licenseget.New(logger, licenseService).ServeHTTP)
			r.Post("/licenses/verify", verify.New(logger, licenseService).ServeHTTP)
			r.Post("/licenses/activate", activate.New(logger, licenseService).ServeHTTP)

			r.Get("/downloads", downloadlist.New(logger, downloadService).ServeHTTP)
			r.Get("/downloads/categories", categories.New(logger, downloadService).ServeHTTP)
			r.Get("/downloads/popular", popular.New(logger, downloadService).ServeHTTP)
			r.Get("/downloads/history", downloadhistory.New(logger, downloadService).ServeHTTP)
			r.Get("/downloads/{slug}", downloadget.New(logger, downloadService).ServeHTTP)
			r.Post("/downloads/{id}/download", downloadregister.New(logger, downloadService).ServeHTTP)

			r.Get("/users/profile", profile.New(logger, userService).ServeHTTP)
			r.Put("/users/profile", updateprofile.New(logger, userService).ServeHTTP)
			r.Put("/users/preferences", preferences.New(logger, userService).ServeHTTP)
			r.Get("/users/stats", userstats.New(logger, userService).ServeHTTP)
			r.Delete("/users/account", deleteaccount.New(logger, userService).ServeHTTP)

			r.Post("/payments", paymentcreate.New(logger, paymentService).ServeHTTP)
			r.Post("/payments/confirm", confirm.New(logger, paymentService).ServeHTTP)
			r.Get("/payments/history", paymenthistory.New(logger, paymentService).ServeHTTP)

			r.Get("/dashboard/stats", dashboardstats.New(logger, dashboardService).ServeHTTP)
			r.Get("/dashboard/activity", activity.New(logger, dashboardService).ServeHTTP)
			r.Get("/dashboard/notifications", notifications.New(logger, dashboardService).ServeHTTP)
			r.Get("/dashboard/licenses", licenselist.New(logger, licenseService).ServeHTTP)
			r.Get("/dashboard/downloads", downloadhistory.New(logger, downloadService).ServeHTTP)
			r.Get("/dashboard/profile", profile.New(logger, userService).ServeHTTP)

			r.Post("/discord/checkout", checkout.New(logger, userService, checkoutService).ServeHTTP)
		})

		// Административная группа
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(jwtMaker, cacheRedis, logger))
			r.Use(middlewarectx.RequireRole(models.RoleAdmin, logger))
			r.Post("/licenses", issue.New(logger, licenseService).ServeHTTP)
			r.Post("/licenses/{key}/extend", extend.New(logger, licenseService).ServeHTTP)
			r.Post("/licenses/{key}/revoke", revoke.New(logger, licenseService).ServeHTTP)
			r.Get("/licenses/expiring", expiring.New(logger, licenseService).ServeHTTP)
			r.Post("/downloads", downloadcreate.New(logger, downloadService).ServeHTTP)
			r.Put("/downloads/{id}", update.New(logger, downloadService).ServeHTTP)
			r.Delete("/downloads/{id}", deactivate.New(logger, downloadService).ServeHTTP)
			r.Get("/users", userlist.New(logger, userService).ServeHTTP)
			r.Put("/users/{id}/role", setrole.New(logger, userService).ServeHTTP)
			r.Put("/users/{id}/status", setstatus.New(logger, userService).ServeHTTP)
			r.Get("/admin/stats", adminstats.New(logger, dashboardService).ServeHTTP)
			r.Get("/admin/activity", adminactivity.New(logger, dashboardService).ServeHTTP)
		})

		// Webhook провайдера (без аутентификации, проверка подписи в обработчике)
		r.Post("/payments/webhook", webhook.New(logger, paymentService, cfg.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
