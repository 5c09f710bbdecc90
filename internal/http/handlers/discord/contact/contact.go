// Package contact реализует HTTP-обработчик выдачи контакта поддержки.
package contact

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/http/response"
)

// Handler обрабатывает HTTP-запросы контакта поддержки.
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
// @Summary Контакт поддержки
// @Description Возвращает имя пользователя поддержки на чат-платформе
// @Tags Discord
// @Produce  json
// @Success 200 {object} response.Response "Контакт поддержки"
// @Router /discord/contact [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"username":   h.cfg.ContactUsername,
		"invite_url": h.cfg.SupportInviteURL,
	}))
}
