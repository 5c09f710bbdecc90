// Package confirm реализует HTTP-обработчик подтверждения платежа
// после возврата пользователя со страницы провайдера.
package confirm

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
	paymentservice "github.com/magabrotheeeer/license-storefront/internal/services/payment"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Request - тело запроса подтверждения платежа.
type Request struct {
	PaymentID string `json:"payment_id" validate:"required"`
}

// Handler обрабатывает HTTP-запросы подтверждения платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Confirm(ctx context.Context, userUID string, role models.Role, paymentID string) (*models.License, error)
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
// @Summary Подтверждение платежа
// @Description Сверяет статус платежа с провайдером и выдает лицензию, повторный вызов возвращает ранее выданную лицензию
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор платежа"
// @Success 200 {object} response.Response "Выданная лицензия"
// @Failure 400 {object} response.ErrorResponse "Платёж не оплачен"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Платёж принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments/confirm [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.confirm"

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

	license, err := h.service.Confirm(r.Context(), userUID, models.Role(roleStr), req.PaymentID)
	if err != nil {
		switch {
		case errors.Is(err, paymentservice.ErrPaymentNotFound):
			log.Error("payment not found", slog.String("payment_id", req.PaymentID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("payment not found"))
		case errors.Is(err, paymentservice.ErrForeignPayment):
			log.Error("payment belongs to another user", slog.String("payment_id", req.PaymentID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("payment belongs to another user"))
		case errors.Is(err, paymentservice.ErrPaymentNotPaid):
			log.Error("payment is not succeeded", slog.String("payment_id", req.PaymentID))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("payment is not succeeded"))
		default:
			log.Error("failed to confirm payment", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("payment confirmed",
		slog.String("payment_id", req.PaymentID),
		slog.String("license_key", license.LicenseKey))
	render.JSON(w, r, response.OKWithData(license))
}
