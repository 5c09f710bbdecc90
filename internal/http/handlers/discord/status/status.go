// Package status реализует HTTP-обработчик проверки доступности бота тикетов.
// Недоступный бот не считается ошибкой запроса: ответ всегда 200,
// состояние передаётся полем online.
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
)

// Pinger описывает проверку доступности бота.
type Pinger interface {
	Health(ctx context.Context) error
}

// Handler обрабатывает HTTP-запросы статуса бота.
type Handler struct {
	log    *slog.Logger
	pinger Pinger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, pinger Pinger) *Handler {
	return &Handler{
		log:    log,
		pinger: pinger,
	}
}

// ServeHTTP godoc
// @Summary Статус бота тикетов
// @Description Проверяет доступность бота тикетов, недоступность не считается ошибкой
// @Tags Discord
// @Produce  json
// @Success 200 {object} response.Response "Состояние бота"
// @Router /discord/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.discord.status"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	online := true
	if err := h.pinger.Health(r.Context()); err != nil {
		log.Warn("ticket bot is offline", slog.Any("err", err))
		online = false
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"online": online,
	}))
}
