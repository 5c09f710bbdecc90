// Package adminstats реализует HTTP-обработчик сводных показателей витрины.
package adminstats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы сводных показателей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	AdminStats(ctx context.Context) (*models.DashboardStats, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Показатели витрины
// @Description Возвращает сводные показатели по пользователям, лицензиям, платежам и скачиваниям, доступно только администратору
// @Tags Dashboard
// @Produce  json
// @Success 200 {object} response.Response "Сводные показатели"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/stats [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.adminstats"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.AdminStats(r.Context())
	if err != nil {
		log.Error("failed to get dashboard stats", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(stats))
}
