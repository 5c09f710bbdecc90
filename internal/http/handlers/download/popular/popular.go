// Package popular реализует HTTP-обработчик списка популярных загрузок.
package popular

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

// Handler обрабатывает HTTP-запросы списка популярных загрузок.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Popular(ctx context.Context, limit int) ([]*models.Download, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Популярные загрузки
// @Description Возвращает активные позиции каталога, отсортированные по числу скачиваний
// @Tags Downloads
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 10)"
// @Success 200 {object} response.Response "Список популярных позиций"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /downloads/popular [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.download.popular"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit := util.ParseLimit(r.URL.Query(), 10, 50)

	downloads, err := h.service.Popular(r.Context(), limit)
	if err != nil {
		log.Error("failed to list popular downloads", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":     len(downloads),
		"downloads": downloads,
	}))
}
