// Package activate реализует HTTP-обработчик активации лицензии.
package activate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Request - тело запроса активации лицензии.
type Request struct {
	LicenseKey string `json:"license_key" validate:"required,len=11"`
}

// Handler обрабатывает HTTP-запросы активации лицензии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Activate(ctx context.Context, licenseKey, userUID string, role models.Role) (*models.License, error)
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
// @Summary Активация лицензии
// @Description Активирует приостановленную лицензию текущего пользователя
// @Tags Licenses
// @Accept  json
// @Produce  json
// @Param request body Request true "Лицензионный ключ"
// @Success 200 {object} response.Response "Активированная лицензия"
// @Failure 400 {object} response.ErrorResponse "Лицензию нельзя активировать"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Лицензия принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Лицензия не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /licenses/activate [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.activate"

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

	var req Request
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

	license, err := h.service.Activate(r.Context(), req.LicenseKey, userUID, models.Role(roleStr))
	if err != nil {
		switch {
		case errors.Is(err, licenseservice.ErrLicenseNotFound):
			log.Error("license not found", slog.String("key", req.LicenseKey))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("license not found"))
		case errors.Is(err, licenseservice.ErrNotOwner):
			log.Error("license belongs to another user", slog.String("key", req.LicenseKey))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("license belongs to another user"))
		case errors.Is(err, licenseservice.ErrCannotActivate):
			log.Error("license cannot be activated", slog.String("key", req.LicenseKey))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("license cannot be activated"))
		default:
			log.Error("failed to activate license", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("license activated", slog.String("key", req.LicenseKey))
	render.JSON(w, r, response.OKWithData(license))
}
