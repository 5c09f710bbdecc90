// Package revoke реализует HTTP-обработчик отзыва лицензии администратором.
package revoke

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы отзыва лицензии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Revoke(ctx context.Context, licenseKey, reason string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Отзыв лицензии
// @Description Безвозвратно отзывает лицензию с указанием причины, доступно только администратору
// @Tags Licenses
// @Accept  json
// @Produce  json
// @Param key path string true "Лицензионный ключ"
// @Param request body models.DummyLicenseRevoke true "Причина отзыва"
// @Success 200 {object} response.Response "Лицензия отозвана"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Лицензия не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /licenses/{key}/revoke [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.revoke"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	licenseKey := chi.URLParam(r, "key")

	var req models.DummyLicenseRevoke
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		validateErrs := err.(validator.ValidationErrors)
		log.Error("invalid request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(validateErrs))
		return
	}

	if err := h.service.Revoke(r.Context(), licenseKey, req.Reason); err != nil {
		if errors.Is(err, licenseservice.ErrLicenseNotFound) {
			log.Error("license not found", slog.String("key", licenseKey))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("license not found"))
			return
		}
		log.Error("failed to revoke license", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("license revoked",
		slog.String("key", licenseKey),
		slog.String("reason", req.Reason))
	render.JSON(w, r, response.OK())
}
