// Package get реализует HTTP-обработчик получения лицензии по ключу.
package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы получения лицензии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	GetForUser(ctx context.Context, licenseKey, userUID string, role models.Role) (*models.License, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Лицензия по ключу
// @Description Возвращает лицензию по ключу, чужая лицензия доступна только администратору
// @Tags Licenses
// @Produce  json
// @Param key path string true "Лицензионный ключ"
// @Success 200 {object} response.Response "Данные лицензии"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Лицензия принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Лицензия не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /licenses/{key} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.get"

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
	roleStr, _ := r.Context().Value(middlewarectx.Role).(string)

	licenseKey := chi.URLParam(r, "key")

	license, err := h.service.GetForUser(r.Context(), licenseKey, userUID, models.Role(roleStr))
	if err != nil {
		switch {
		case errors.Is(err, licenseservice.ErrLicenseNotFound):
			log.Error("license not found", slog.String("key", licenseKey))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("license not found"))
		case errors.Is(err, licenseservice.ErrNotOwner):
			log.Error("license belongs to another user", slog.String("key", licenseKey))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("license belongs to another user"))
		default:
			log.Error("failed to get license", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	render.JSON(w, r, response.OKWithData(license))
}
