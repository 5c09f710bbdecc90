// Package setrole реализует HTTP-обработчик смены роли пользователя администратором.
package setrole

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
	userservice "github.com/magabrotheeeer/license-storefront/internal/services/user"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Request - тело запроса смены роли.
type Request struct {
	Role string `json:"role" validate:"required,oneof=user premium admin"`
}

// Handler обрабатывает HTTP-запросы смены роли.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	SetRole(ctx context.Context, userUID, roleStr string) error
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
// @Summary Смена роли пользователя
// @Description Назначает пользователю роль user, premium или admin, доступно только администратору
// @Tags Users
// @Accept  json
// @Produce  json
// @Param id path string true "UID пользователя"
// @Param request body Request true "Новая роль"
// @Success 200 {object} response.Response "Роль назначена"
// @Failure 400 {object} response.ErrorResponse "Некорректная роль"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /users/{id}/role [put]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.setrole"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	targetUID := chi.URLParam(r, "id")

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

	if err := h.service.SetRole(r.Context(), targetUID, req.Role); err != nil {
		switch {
		case errors.Is(err, userservice.ErrInvalidRole):
			log.Error("invalid role", slog.String("role", req.Role))
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid role"))
		case errors.Is(err, userservice.ErrUserNotFound):
			log.Error("user not found", slog.String("user_uid", targetUID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("user not found"))
		default:
			log.Error("failed to set role", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("internal error"))
		}
		return
	}

	log.Info("role updated",
		slog.String("user_uid", targetUID),
		slog.String("role", req.Role))
	render.JSON(w, r, response.OK())
}
