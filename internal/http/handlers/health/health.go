// Package health реализует HTTP-обработчик проверки живости витрины.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
)

// Handler обрабатывает HTTP-запросы проверки живости.
type Handler struct {
	log *slog.Logger
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger) *Handler {
	return &Handler{
		log: log,
	}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Description Возвращает ok, если витрина принимает запросы
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response "Витрина работает"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": "ok",
	}))
}
