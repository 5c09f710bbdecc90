// Package checkout реализует HTTP-обработчик заявки на покупку через
// бота тикетов. Недоступный бот не приводит к ошибке: покупатель
// получает ссылку на сервер поддержки.
package checkout

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
	checkoutservice "github.com/magabrotheeeer/license-storefront/internal/services/checkout"
	userservice "github.com/magabrotheeeer/license-storefront/internal/services/user"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// UserProvider отдает профиль пользователя для заполнения заявки.
type UserProvider interface {
	Profile(ctx context.Context, userUID string) (*models.User, error)
}

// Service описывает интерфейс бизнес-логики оформления заявки.
type Service interface {
	Submit(ctx context.Context, user *models.User, req models.DummyCheckout) (*models.CheckoutResult, error)
}

// Handler обрабатывает HTTP-запросы заявки на покупку.
type Handler struct {
	log      *slog.Logger
	users    UserProvider
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, users UserProvider, service Service) *Handler {
	return &Handler{
		log:      log,
		users:    users,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Заявка на покупку
// @Description Пересылает заявку на покупку боту тикетов, при недоступном боте возвращает ссылку на сервер поддержки
// @Tags Discord
// @Accept  json
// @Produce  json
// @Param request body models.DummyCheckout true "Позиции заявки"
// @Success 200 {object} response.Response "Итог оформления заявки"
// @Failure 400 {object} response.ErrorResponse "Некорректные данные или неизвестный продукт"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /discord/checkout [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.discord.checkout"

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

	var req models.DummyCheckout
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

	user, err := h.users.Profile(r.Context(), userUID)
	if err != nil {
		if errors.Is(err, userservice.ErrUserNotFound) {
			log.Error("user not found", slog.String("user_uid", userUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
			return
		}
		log.Error("failed to load user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	result, err := h.service.Submit(r.Context(), user, req)
	if err != nil {
		if errors.Is(err, checkoutservice.ErrUnknownProduct) {
			log.Error("unknown product in checkout", sl.Err(err))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("unknown product or tier"))
			return
		}
		log.Error("failed to submit checkout", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("checkout submitted",
		slog.String("user_uid", userUID),
		slog.Bool("delivered", result.Delivered))
	render.JSON(w, r, response.OKWithData(result))
}
