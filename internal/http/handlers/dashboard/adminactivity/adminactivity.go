// Package adminactivity реализует HTTP-обработчик ленты событий всей витрины.
package adminactivity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/license-storefront/internal/util"
)

// Handler обрабатывает HTTP-запросы ленты событий витрины.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	AdminActivity(ctx context.Context, limit int) ([]*models.ActivityItem, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Лента событий витрины
// @Description Возвращает последние события всех пользователей, доступно только администратору
// @Tags Dashboard
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 50)"
// @Success 200 {object} response.Response "Лента событий витрины"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/activity [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.adminactivity"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := util.ParseLimit(r.URL.Query(), 50, 200)

	items, err := h.service.AdminActivity(r.Context(), limit)
	if err != nil {
		log.Error("failed to list recent activity", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"count": len(items),
		"items": items,
	}))
}
