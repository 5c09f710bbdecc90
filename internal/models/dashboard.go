package models

import "time"

// DashboardStats - сводные показатели витрины для административной панели.
type DashboardStats struct {
	TotalUsers      int   `json:"total_users"`
	ActiveUsers     int   `json:"active_users"`
	ActiveLicenses  int   `json:"active_licenses"`
	TotalRevenue    int64 `json:"total_revenue"` // Сумма успешных платежей в копейках
	TotalDownloads  int   `json:"total_downloads"`
	PendingPayments int   `json:"pending_payments"`
}

// ActivityItem - одно событие в ленте последних действий.
type ActivityItem struct {
	Type      string    `json:"type"` // registration, payment, download или license
	Username  string    `json:"username"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDashboardSummary - сводка личного кабинета пользователя.
type UserDashboardSummary struct {
	LicensesByStatus map[string]int `json:"licenses_by_status"`
	ValidLicenses    int            `json:"valid_licenses"` // Действующие в данный момент
	DownloadCount    int            `json:"download_count"`
	TotalSpent       int64          `json:"total_spent"` // Сумма всех платежей в копейках
	MemberSince      time.Time      `json:"member_since"`
}

// Notification - уведомление личного кабинета. Уведомления нигде
// не хранятся и вычисляются заново при каждом запросе.
type Notification struct {
	Type    string `json:"type"` // license_expiring, usage_limit или payment_pending
	Message string `json:"message"`
}

// Типы уведомлений личного кабинета.
const (
	NotificationLicenseExpiring = "license_expiring"
	NotificationUsageLimit      = "usage_limit"
	NotificationPaymentPending  = "payment_pending"
)
