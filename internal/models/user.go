// Package models содержит доменную модель пользователя витрины,
// включающую учётные данные, роль, состояние подписки и агрегированную статистику.
// Структура используется в бизнес-логике и при работе с хранилищем.
package models

import (
	"fmt"
	"time"
)

// User представляет зарегистрированного пользователя системы.
// Username, Email и DiscordID уникальны среди активных пользователей.
type User struct {
	UID          string          `json:"uid"`        // Уникальный идентификатор пользователя
	Username     string          `json:"username"`   // Имя пользователя (уникальное)
	Email        string          `json:"email"`      // Электронная почта (уникальная)
	DiscordID    string          `json:"discord_id"` // Идентификатор пользователя на чат-платформе (уникальный)
	PasswordHash string          `json:"-"`          // Хэш пароля, наружу не отдаётся
	Role         Role            `json:"role"`       // Роль: user, premium или admin
	IsActive     bool            `json:"is_active"`  // false после мягкого удаления или блокировки
	Subscription Subscription    `json:"subscription"`
	Stats        UserStats       `json:"stats"`
	Preferences  UserPreferences `json:"preferences"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Subscription описывает оплаченную подписку пользователя на витрину.
// Поля дат равны nil, пока подписка не оформлялась.
type Subscription struct {
	Plan      string     `json:"plan"`   // Название тарифа, совпадает с tier последней покупки
	Status    string     `json:"status"` // none, trial, active, expired или canceled
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// UserStats хранит агрегированные счётчики активности пользователя.
type UserStats struct {
	DownloadCount int        `json:"download_count"` // Количество успешных скачиваний
	TotalSpent    int64      `json:"total_spent"`    // Сумма всех платежей в копейках
	LoginCount    int        `json:"login_count"`    // Количество входов
	LastLogin     *time.Time `json:"last_login"`
}

// UserPreferences — настройки уведомлений пользователя.
type UserPreferences struct {
	NotifyEmail   bool `json:"notify_email"`   // Письма об истечении лицензий
	NotifyDiscord bool `json:"notify_discord"` // Уведомления через чат-платформу
	Newsletter    bool `json:"newsletter"`     // Новостная рассылка
}

// Статусы подписки пользователя.
const (
	SubscriptionNone     = "none"
	SubscriptionTrial    = "trial"
	SubscriptionActive   = "active"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

// Anonymize перезаписывает уникальные поля значениями-надгробиями и
// деактивирует пользователя. Запись остаётся в базе, чтобы не ломать
// ссылки из лицензий и истории скачиваний.
func (u *User) Anonymize(now time.Time) {
	prefix := u.UID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	u.Username = fmt.Sprintf("deleted_%s", prefix)
	u.Email = fmt.Sprintf("deleted_%s@deleted.local", prefix)
	u.DiscordID = fmt.Sprintf("deleted_%s", prefix)
	u.PasswordHash = ""
	u.IsActive = false
	u.Subscription.Status = SubscriptionCanceled
	u.UpdatedAt = now
}

// PublicProfile возвращает проекцию пользователя без служебных полей,
// пригодную для выдачи наружу.
func (u *User) PublicProfile() map[string]any {
	return map[string]any{
		"uid":          u.UID,
		"username":     u.Username,
		"email":        u.Email,
		"discord_id":   u.DiscordID,
		"role":         u.Role,
		"subscription": u.Subscription,
		"created_at":   u.CreatedAt,
	}
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Username  string `json:"username" validate:"required,min=3,max=32,alphanum"` // Имя пользователя
	Email     string `json:"email" validate:"required,email"`                    // Электронная почта
	DiscordID string `json:"discord_id" validate:"required,numeric"`             // Идентификатор на чат-платформе
	Password  string `json:"password" validate:"required,min=8"`                 // Пароль в открытом виде
}

// DummyProfileUpdate используется для приёма изменений профиля.
// Пустые поля не изменяются.
type DummyProfileUpdate struct {
	Email     string `json:"email" validate:"omitempty,email"`
	DiscordID string `json:"discord_id" validate:"omitempty,numeric"`
}
