// Package list реализует HTTP-обработчик получения списка лицензий.
package list

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

// Handler обрабатывает HTTP-запросы получения списка лицензий.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	ListByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.License, error)
	ListAll(ctx context.Context, limit, offset int) ([]*models.License, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список лицензий
// @Description Возвращает лицензии текущего пользователя, для администратора с параметром all=1 все лицензии
// @Tags Licenses
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 20)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Param all query int false "Вернуть все лицензии (только администратор)"
// @Success 200 {object} response.Response "Список лицензий"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /licenses [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.list"

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

	limit, offset := util.ParseLimitOffset(r.URL.Query(), 20, 100)

	var (
		licenses []*models.License
		err      error
	)
	roleStr, _ := r.Context().Value(middlewarectx.Role).(string)
	if r.URL.Query().Get("all") == "1" && models.Role(roleStr).AtLeast(models.RoleAdmin) {
		licenses, err = h.service.ListAll(r.Context(), limit, offset)
	} else {
		licenses, err = h.service.ListByUser(r.Context(), userUID, limit, offset)
	}
	if err != nil {
		log.Error("failed to list licenses", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":    len(licenses),
		"licenses": licenses,
	}))
}
