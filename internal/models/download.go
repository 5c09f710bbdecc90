package models

import "time"

// Download описывает позицию каталога загрузок: сборку продукта или инструмент.
// Доступ к файлу выдаётся по роли либо по действующей лицензии.
type Download struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"` // Уникальный идентификатор в URL
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Version       string    `json:"version"`
	FileSize      int64     `json:"file_size"` // Размер файла в байтах
	FileURL       string    `json:"file_url"`  // Прямая ссылка на файл
	ProductType   string    `json:"product_type"`
	RequiredRole  Role      `json:"required_role"`  // Минимальная роль для доступа без лицензии
	RequiredTiers []string  `json:"required_tiers"` // Тарифы лицензий, дающие доступ
	DownloadCount int       `json:"download_count"`
	IsActive      bool      `json:"is_active"` // Неактивные позиции скрыты из каталога
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DownloadEvent фиксирует одно успешное скачивание файла пользователем.
type DownloadEvent struct {
	ID         int       `json:"id"`
	DownloadID int       `json:"download_id"`
	UserUID    string    `json:"user_uid"`
	Version    string    `json:"version"` // Версия файла на момент скачивания
	IP         string    `json:"ip"`
	CreatedAt  time.Time `json:"created_at"`
}

// CategorySummary - количество позиций каталога в одной категории.
type CategorySummary struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// DummyDownloadCreate используется для приёма запроса на добавление позиции каталога.
type DummyDownloadCreate struct {
	Name          string   `json:"name" validate:"required,min=2,max=64"`
	Slug          string   `json:"slug" validate:"required,min=2,max=64,lowercase"`
	Description   string   `json:"description" validate:"max=1024"`
	Category      string   `json:"category" validate:"required,min=2,max=32"`
	Version       string   `json:"version" validate:"required,max=32"`
	FileSize      int64    `json:"file_size" validate:"gte=0"`
	FileURL       string   `json:"file_url" validate:"required,url"`
	ProductType   string   `json:"product_type" validate:"required,oneof=selfbot tool api"`
	RequiredRole  string   `json:"required_role" validate:"required,oneof=user premium admin"`
	RequiredTiers []string `json:"required_tiers" validate:"omitempty,dive,oneof=trial monthly yearly lifetime"`
}

// DummyDownloadUpdate используется для приёма частичного обновления позиции.
// Пустые поля не изменяются.
type DummyDownloadUpdate struct {
	Name          string   `json:"name" validate:"omitempty,min=2,max=64"`
	Description   string   `json:"description" validate:"omitempty,max=1024"`
	Category      string   `json:"category" validate:"omitempty,min=2,max=32"`
	Version       string   `json:"version" validate:"omitempty,max=32"`
	FileSize      *int64   `json:"file_size" validate:"omitempty,gte=0"`
	FileURL       string   `json:"file_url" validate:"omitempty,url"`
	RequiredRole  string   `json:"required_role" validate:"omitempty,oneof=user premium admin"`
	RequiredTiers []string `json:"required_tiers" validate:"omitempty,dive,oneof=trial monthly yearly lifetime"`
	IsActive      *bool    `json:"is_active"`
}
