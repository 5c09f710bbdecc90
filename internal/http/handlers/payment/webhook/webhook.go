// Package webhook реализует приём уведомлений платёжного провайдера.
// Запрос подписан заголовком X-Api-Signature, подпись проверяется
// до разбора тела.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/magabrotheeeer/license-storefront/internal/paymentprovider"
	paymentservice "github.com/magabrotheeeer/license-storefront/internal/services/payment"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики обработки уведомлений.
type Service interface {
	ProcessWebhookEvent(ctx context.Context, payload *paymentprovider.Payload) error
}

// Handler обрабатывает webhook-уведомления провайдера.
type Handler struct {
	log           *slog.Logger
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// ServeHTTP godoc
// @Summary Уведомление платёжного провайдера
// @Description Принимает подписанное уведомление о смене статуса платежа
// @Tags Payments
// @Accept  json
// @Success 200 "Уведомление обработано"
// @Failure 400 "Нечитаемое тело запроса"
// @Failure 401 "Неверная подпись"
// @Failure 403 "Уведомление указывает на чужой платёж"
// @Failure 404 "Платёж не найден"
// @Failure 500 "Внутренняя ошибка сервера"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Проверка подписи (в заголовке X-Api-Signature)
	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !paymentprovider.VerifySignature(body, signature, h.webhookSecret) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload paymentprovider.Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if err := h.service.ProcessWebhookEvent(r.Context(), &payload); err != nil {
		switch {
		case errors.Is(err, paymentservice.ErrPaymentNotFound):
			log.Error("payment not found", slog.String("payment_id", payload.Object.ID))
			w.WriteHeader(http.StatusNotFound)
		case errors.Is(err, paymentservice.ErrForeignPayment):
			log.Error("webhook points to another user", slog.String("payment_id", payload.Object.ID))
			w.WriteHeader(http.StatusForbidden)
		default:
			log.Error("failed to process webhook event", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
		}
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event),
		slog.String("payment_id", payload.Object.ID))
	w.WriteHeader(http.StatusOK)
}
