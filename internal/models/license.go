package models

import (
	"fmt"
	"time"
)

// License представляет выданную лицензию на продукт витрины.
// Ключ уникален, владелец задаётся через UserUID.
type License struct {
	ID           int          `json:"id"`
	LicenseKey   string       `json:"license_key"`  // Формат XXXXX-XXXXX, две группы по 5 символов
	UserUID      string       `json:"user_uid"`     // Владелец лицензии
	ProductName  string       `json:"product_name"` // Человекочитаемое название продукта
	ProductType  string       `json:"product_type"` // selfbot, tool или api
	Tier         string       `json:"tier"`         // trial, monthly, yearly или lifetime
	Status       string       `json:"status"`       // active, expired, revoked или suspended
	ActivatedAt  time.Time    `json:"activated_at"`
	ExpiresAt    time.Time    `json:"expires_at"`
	UsageCount   int          `json:"usage_count"`
	MaxUsage     *int         `json:"max_usage"`    // nil означает отсутствие лимита
	LastUsedAt   *time.Time   `json:"last_used_at"` // nil, пока лицензией не пользовались
	Features     []Feature    `json:"features"`
	Restrictions Restrictions `json:"restrictions"`
	PaymentID    *string      `json:"payment_id"`    // Идентификатор платежа, из которого выдана лицензия
	RevokeReason *string      `json:"revoke_reason"` // Причина отзыва, заполняется при revoke
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Feature описывает одну возможность продукта, включённую в лицензию.
type Feature struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Limit   *int   `json:"limit,omitempty"` // Числовой лимит возможности, nil - без лимита
}

// Restrictions задаёт ограничения на использование лицензии.
type Restrictions struct {
	AllowedIPs  []string `json:"allowed_ips,omitempty"` // Пустой список - проверка по IP не выполняется
	ServerIDs   []string `json:"server_ids,omitempty"`  // Серверы чат-платформы, где разрешён запуск
	MaxSessions int      `json:"max_sessions"`          // 0 - без ограничения одновременных сессий
}

// Статусы лицензии.
const (
	LicenseStatusActive    = "active"
	LicenseStatusExpired   = "expired"
	LicenseStatusRevoked   = "revoked"
	LicenseStatusSuspended = "suspended"
)

// Тарифы лицензии.
const (
	TierTrial    = "trial"
	TierMonthly  = "monthly"
	TierYearly   = "yearly"
	TierLifetime = "lifetime"
)

// Типы продуктов витрины.
const (
	ProductSelfbot = "selfbot"
	ProductTool    = "tool"
	ProductAPI     = "api"
)

// LifetimeExpiry - фиксированная дата окончания пожизненных лицензий.
var LifetimeExpiry = time.Date(2099, time.December, 31, 23, 59, 59, 0, time.UTC)

// ExpiryForTier вычисляет дату окончания лицензии по тарифу относительно
// переданного момента времени. Для lifetime дата фиксированная.
func ExpiryForTier(tier string, now time.Time) (time.Time, error) {
	switch tier {
	case TierTrial:
		return now.AddDate(0, 0, 7), nil
	case TierMonthly:
		return now.AddDate(0, 0, 30), nil
	case TierYearly:
		return now.AddDate(0, 0, 365), nil
	case TierLifetime:
		return LifetimeExpiry, nil
	default:
		return time.Time{}, fmt.Errorf("unknown tier: %s", tier)
	}
}

// DefaultFeatures возвращает стартовый набор возможностей лицензии:
// базовые возможности типа продукта, приоритетная поддержка для всех
// тарифов кроме trial и безлимитное использование для lifetime.
func DefaultFeatures(productType, tier string) []Feature {
	var features []Feature
	switch productType {
	case ProductSelfbot:
		features = append(features,
			Feature{Name: "autoresponder", Enabled: true},
			Feature{Name: "status_rotation", Enabled: true})
	case ProductTool:
		features = append(features,
			Feature{Name: "bulk_actions", Enabled: true})
	case ProductAPI:
		limit := 10000
		features = append(features,
			Feature{Name: "api_requests", Enabled: true, Limit: &limit})
	}
	if tier != TierTrial {
		features = append(features, Feature{Name: "priority_support", Enabled: true})
	}
	if tier == TierLifetime {
		features = append(features, Feature{Name: "unlimited_usage", Enabled: true})
	}
	return features
}

// IsValid сообщает, действует ли лицензия в момент now.
// Лицензия действительна только в статусе active и до даты окончания.
func (l *License) IsValid(now time.Time) bool {
	return l.Status == LicenseStatusActive && now.Before(l.ExpiresAt)
}

// UsageExceeded сообщает, исчерпан ли лимит использований.
func (l *License) UsageExceeded() bool {
	return l.MaxUsage != nil && l.UsageCount >= *l.MaxUsage
}

// DaysRemaining возвращает число полных дней до окончания лицензии.
// Для истёкшей лицензии возвращается 0.
func (l *License) DaysRemaining(now time.Time) int {
	if !now.Before(l.ExpiresAt) {
		return 0
	}
	return int(l.ExpiresAt.Sub(now).Hours() / 24)
}

// HasFeature сообщает, включена ли в лицензии возможность с данным именем.
func (l *License) HasFeature(name string) bool {
	for _, f := range l.Features {
		if f.Name == name {
			return f.Enabled
		}
	}
	return false
}

// LicenseExpiryInfo - данные об истекающей лицензии вместе с контактами владельца.
// Используется планировщиком для постановки напоминаний в очередь.
type LicenseExpiryInfo struct {
	LicenseKey    string    `json:"license_key"`
	ProductName   string    `json:"product_name"`
	Tier          string    `json:"tier"`
	ExpiresAt     time.Time `json:"expires_at"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	DiscordID     string    `json:"discord_id"`
	NotifyEmail   bool      `json:"notify_email"`
	NotifyDiscord bool      `json:"notify_discord"`
	DaysLeft      int       `json:"days_left"`
}

// DummyLicenseIssue используется для приёма запроса на выдачу лицензии.
type DummyLicenseIssue struct {
	UserUID     string    `json:"user_uid" validate:"required,uuid4"`
	ProductName string    `json:"product_name" validate:"required,min=2,max=64"`
	ProductType string    `json:"product_type" validate:"required,oneof=selfbot tool api"`
	Tier        string    `json:"tier" validate:"required,oneof=trial monthly yearly lifetime"`
	MaxUsage    *int      `json:"max_usage" validate:"omitempty,gt=0"`
	Features    []Feature `json:"features" validate:"omitempty,dive"`
}

// DummyLicenseVerify используется для приёма запроса проверки лицензии.
// IP и ServerID передаются клиентом продукта для проверки ограничений.
type DummyLicenseVerify struct {
	LicenseKey string `json:"license_key" validate:"required,len=11"`
	IP         string `json:"ip" validate:"omitempty,ip"`
	ServerID   string `json:"server_id" validate:"omitempty,numeric"`
}

// DummyLicenseExtend используется для приёма запроса продления лицензии.
type DummyLicenseExtend struct {
	Days int `json:"days" validate:"required,gt=0,lte=3650"`
}

// DummyLicenseRevoke используется для приёма запроса отзыва лицензии.
type DummyLicenseRevoke struct {
	Reason string `json:"reason" validate:"required,min=3,max=255"`
}
