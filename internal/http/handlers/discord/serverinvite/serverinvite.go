// Package serverinvite реализует HTTP-обработчик выдачи ссылки-приглашения
// на сервер поддержки.
package serverinvite

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/http/response"
)

// Handler обрабатывает HTTP-запросы ссылки-приглашения.
type Handler struct {
	log *slog.Logger
	cfg config.TicketBot
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, cfg config.TicketBot) *Handler {
	return &Handler{
		log: log,
		cfg: cfg,
	}
}

// ServeHTTP godoc
// @Summary Приглашение на сервер поддержки
// @Description Возвращает ссылку-приглашение на сервер поддержки
// @Tags Discord
// @Produce  json
// @Success 200 {object} response.Response "Ссылка-приглашение"
// @Router /discord/server-invite [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"invite_url": h.cfg.SupportInviteURL,
	}))
}
