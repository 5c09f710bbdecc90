// Package logout реализует HTTP-обработчик выхода пользователя:
// токен доступа попадает в список отозванных, refresh-токен удаляется.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы выхода.
type Handler struct {
	log     *slog.Logger
	parser  TokenParser // Парсер токена из заголовка, токен уже проверен middleware
	service Service
}

// TokenParser описывает интерфейс разбора JWT токена.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, claims *jwt.CustomClaims) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, parser TokenParser, service Service) *Handler {
	return &Handler{
		log:     log,
		parser:  parser,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход пользователя
// @Description Отзывает текущий токен доступа и удаляет refresh-токен пользователя
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Успешный выход"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/logout [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	tokenStr := middlewarectx.ExtractToken(r)
	if tokenStr == "" {
		log.Error("authorization header missing")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	claims, err := h.parser.ParseToken(tokenStr)
	if err != nil {
		log.Error("failed to parse token", sl.Err(err))
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("invalid or expired token"))
		return
	}

	if err := h.service.Logout(r.Context(), claims); err != nil {
		log.Error("logout failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("internal error"))
		return
	}

	log.Info("logout success", slog.String("username", claims.Username))
	render.JSON(w, r, response.OK())
}
