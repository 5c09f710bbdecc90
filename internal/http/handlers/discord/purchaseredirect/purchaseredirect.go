// Package purchaseredirect реализует HTTP-обработчик перенаправления
// на канал покупки чат-платформы.
package purchaseredirect

import (
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/license-storefront/internal/config"
)

// Handler обрабатывает HTTP-запросы перенаправления на канал покупки.
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
// @Summary Переход к покупке
// @Description Перенаправляет на канал покупки чат-платформы
// @Tags Discord
// @Success 302 "Перенаправление на канал покупки"
// @Router /discord/purchase-redirect [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.cfg.PurchaseURL, http.StatusFound)
}
