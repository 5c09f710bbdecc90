package models

import "time"

// CheckoutRequest - заявка на покупку, которую витрина пересылает боту
// чат-платформы для открытия тикета с покупателем.
type CheckoutRequest struct {
	CheckoutID string         `json:"checkout_id"`
	User       CheckoutUser   `json:"user"`
	Items      []CheckoutItem `json:"items"`
	Total      int64          `json:"total"` // Итоговая сумма в копейках
	Currency   string         `json:"currency"`
	Note       string         `json:"note"` // Комментарий покупателя
	CreatedAt  time.Time      `json:"created_at"`
}

// CheckoutUser - данные покупателя, необходимые боту для открытия тикета.
type CheckoutUser struct {
	UID       string `json:"uid"`
	Username  string `json:"username"`
	DiscordID string `json:"discord_id"`
}

// CheckoutItem - одна позиция заявки.
type CheckoutItem struct {
	ProductName string `json:"product_name"`
	ProductType string `json:"product_type"`
	Tier        string `json:"tier"`
	Price       int64  `json:"price"` // Цена позиции в копейках
	Quantity    int    `json:"quantity"`
}

// CheckoutResult - итог пересылки заявки боту. При недоступном боте
// Delivered равен false, а FallbackURL содержит ссылку на сервер поддержки.
type CheckoutResult struct {
	Delivered   bool   `json:"delivered"`
	TicketID    string `json:"ticket_id,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	FallbackURL string `json:"fallback_url,omitempty"`
}

// DummyCheckout используется для приёма заявки на покупку из JSON-запроса.
type DummyCheckout struct {
	Items []DummyCheckoutItem `json:"items" validate:"required,min=1,max=20,dive"`
	Note  string              `json:"note" validate:"max=512"`
}

// DummyCheckoutItem - позиция заявки в запросе.
type DummyCheckoutItem struct {
	ProductName string `json:"product_name" validate:"required,min=2,max=64"`
	ProductType string `json:"product_type" validate:"required,oneof=selfbot tool api"`
	Tier        string `json:"tier" validate:"required,oneof=trial monthly yearly lifetime"`
	Quantity    int    `json:"quantity" validate:"required,gte=1,lte=10"`
}
