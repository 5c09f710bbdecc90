// Package supportredirect реализует HTTP-обработчик перенаправления
// на сервер поддержки.
package supportredirect

import (
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/license-storefront/internal/config"
)

// Handler обрабатывает HTTP-запросы перенаправления на сервер поддержки.
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
// @Summary Переход к поддержке
// @Description Перенаправляет на сервер поддержки по ссылке-приглашению
// @Tags Discord
// @Success 302 "Перенаправление на сервер поддержки"
// @Router /discord/support-redirect [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.cfg.SupportInviteURL, http.StatusFound)
}
