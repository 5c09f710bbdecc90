// Package activity реализует HTTP-обработчик ленты событий пользователя.
package activity

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/license-storefront/internal/util"
)

// Handler обрабатывает HTTP-запросы ленты событий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Activity(ctx context.Context, userUID string, limit int) ([]*models.ActivityItem, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Лента событий
// @Description Возвращает последние скачивания, платежи и лицензии текущего пользователя, новые первыми
// @Tags Dashboard
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 20)"
// @Success 200 {object} response.Response "Лента событий"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /dashboard/activity [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.activity"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("failed to get user uid from context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	limit := util.ParseLimit(r.URL.Query(), 20, 100)

	items, err := h.service.Activity(r.Context(), userUID, limit)
	if err != nil {
		log.Error("failed to list activity", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"count": len(items),
		"items": items,
	}))
}
