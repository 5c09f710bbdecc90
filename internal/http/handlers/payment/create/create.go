// Package create реализует HTTP-обработчик создания платежа.
package create

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

// Handler обрабатывает HTTP-запросы создания платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	CreateIntent(ctx context.Context, userUID string, req models.DummyPaymentCreate) (*models.Payment, string, error)
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
// @Summary Создание платежа
// @Description Создает платёж у провайдера и возвращает ссылку на страницу подтверждения, цена берётся из прайс-листа сервера
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body models.DummyPaymentCreate true "Продукт и тариф"
// @Success 200 {object} response.Response "Платёж и ссылка подтверждения"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные или неизвестный продукт"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /payments [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

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

	var req models.DummyPaymentCreate
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

	payment, confirmationURL, err := h.service.CreateIntent(r.Context(), userUID, req)
	if err != nil {
		if errors.Is(err, paymentservice.ErrUnknownProduct) {
			log.Error("unknown product or tier",
				slog.String("product_name", req.ProductName),
				slog.String("tier", req.Tier))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown product or tier"))
			return
		}
		log.Error("failed to create payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("payment created",
		slog.String("payment_id", payment.ID),
		slog.String("user_uid", userUID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"payment":          payment,
		"confirmation_url": confirmationURL,
	}))
}
