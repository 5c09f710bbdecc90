package models

import "time"

// Payment представляет платёж, созданный через платёжного провайдера.
// Идентификатор совпадает с идентификатором платежа на стороне провайдера.
type Payment struct {
	ID             string     `json:"id"`
	UserUID        string     `json:"user_uid"`
	Amount         int64      `json:"amount"`   // Сумма в копейках
	Currency       string     `json:"currency"` // Код валюты, обычно RUB
	Status         string     `json:"status"`   // pending, waiting_for_capture, succeeded, canceled или refunded
	Description    string     `json:"description"`
	ProductName    string     `json:"product_name"`
	ProductType    string     `json:"product_type"`
	Tier           string     `json:"tier"`
	LicenseID      *int       `json:"license_id"` // Заполняется после выдачи лицензии
	IdempotenceKey string     `json:"-"`          // Ключ идемпотентности запроса к провайдеру
	ConfirmedAt    *time.Time `json:"confirmed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Статусы платежа, повторяют статусы платёжного провайдера.
const (
	PaymentStatusPending           = "pending"
	PaymentStatusWaitingForCapture = "waiting_for_capture"
	PaymentStatusSucceeded         = "succeeded"
	PaymentStatusCanceled          = "canceled"
	PaymentStatusRefunded          = "refunded"
)

// PriceEntry - позиция прайс-листа: стоимость тарифа конкретного продукта.
type PriceEntry struct {
	ProductName string `json:"product_name"`
	ProductType string `json:"product_type"`
	Tier        string `json:"tier"`
	Amount      int64  `json:"amount"` // Цена в копейках
	Currency    string `json:"currency"`
}

// DummyPaymentCreate используется для приёма запроса на создание платежа.
// Сумма не принимается от клиента и берётся из прайс-листа на сервере.
type DummyPaymentCreate struct {
	ProductName string `json:"product_name" validate:"required,min=2,max=64"`
	ProductType string `json:"product_type" validate:"required,oneof=selfbot tool api"`
	Tier        string `json:"tier" validate:"required,oneof=trial monthly yearly lifetime"`
	ReturnURL   string `json:"return_url" validate:"omitempty,url"`
}
