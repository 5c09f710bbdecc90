// Package verify реализует HTTP-обработчик проверки лицензионного ключа.
// Отрицательный итог проверки - не ошибка: ответ всегда 200, клиент продукта
// смотрит на поле valid.
package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы проверки лицензии.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Verify(ctx context.Context, req models.DummyLicenseVerify) (*licenseservice.VerifyResult, error)
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
// @Summary Проверка лицензионного ключа
// @Description Проверяет действительность лицензии и учитывает использование, недействительный ключ возвращается как valid=false
// @Tags Licenses
// @Accept  json
// @Produce  json
// @Param request body models.DummyLicenseVerify true "Ключ и данные клиента продукта"
// @Success 200 {object} response.Response "Итог проверки"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /licenses/verify [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyLicenseVerify
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

	result, err := h.service.Verify(r.Context(), req)
	if err != nil {
		log.Error("failed to verify license", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("license verified",
		slog.String("key", req.LicenseKey),
		slog.Bool("valid", result.Valid))
	render.JSON(w, r, response.OKWithData(result))
}
