package paymentprovider

import (
	"fmt"
	"time"
)

// Amount представляет денежную сумму провайдера, значение в строке, например "499.00".
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Confirmation описывает сценарий подтверждения платежа покупателем.
type Confirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

// CreatePaymentRequest представляет запрос на создание платежа.
type CreatePaymentRequest struct {
	Amount       Amount            `json:"amount"`
	Confirmation Confirmation      `json:"confirmation"`
	Capture      bool              `json:"capture"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"` // дополнительная инфа: user_uid, product_name, product_type, tier
}

// PaymentResponse представляет платёж в ответах провайдера.
type PaymentResponse struct {
	ID           string            `json:"id"`     // ID платежа у провайдера
	Status       string            `json:"status"` // статус платежа, например "succeeded"
	Paid         bool              `json:"paid"`
	Amount       Amount            `json:"amount"`
	Confirmation Confirmation      `json:"confirmation"`
	Description  string            `json:"description"`
	Metadata     map[string]string `json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Payload представляет тело webhook-уведомления провайдера.
type Payload struct {
	Event  string        `json:"event"`
	Object PayloadObject `json:"object"`
}

// PayloadObject - платёж внутри webhook-уведомления.
type PayloadObject struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Amount   Amount            `json:"amount"`
	Paid     bool              `json:"paid"`
	Metadata map[string]string `json:"metadata"`
}

// События webhook, которые обрабатывает витрина.
const (
	EventPaymentSucceeded         = "payment.succeeded"
	EventPaymentWaitingForCapture = "payment.waiting_for_capture"
	EventPaymentCanceled          = "payment.canceled"
	EventPaymentRefunded          = "payment.refunded"
)

// FormatAmount переводит сумму в копейках в строку вида "499.00".
func FormatAmount(kopecks int64) string {
	return fmt.Sprintf("%d.%02d", kopecks/100, kopecks%100)
}
