// Package pricing реализует HTTP-обработчик публичного прайс-листа.
package pricing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/http/response"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// Handler обрабатывает HTTP-запросы прайс-листа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики.
type Service interface {
	Pricing() []models.PriceEntry
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Прайс-лист
// @Description Возвращает публичный прайс-лист витрины по продуктам и тарифам
// @Tags Payments
// @Produce  json
// @Success 200 {object} response.Response "Прайс-лист"
// @Router /payments/pricing [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.pricing"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	prices := h.service.Pricing()

	log.Debug("pricing requested", slog.Int("count", len(prices)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"count":  len(prices),
		"prices": prices,
	}))
}
