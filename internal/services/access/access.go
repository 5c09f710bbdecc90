// Package access реализует проверку доступа к позициям каталога.
// Решение складывается из двух ворот: минимальная роль и, если позиция
// требует лицензию, действующая лицензия подходящего тарифа или типа
// продукта. Решения не кэшируются: отзыв лицензии действует немедленно.
package access

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// ErrDownloadNotFound возвращается для отсутствующей или скрытой позиции.
var ErrDownloadNotFound = errors.New("download not found")

// Причины отказа в доступе.
const (
	ReasonAccountInactive = "account_inactive"
	ReasonRoleTooLow      = "role_too_low"
	ReasonLicenseRequired = "license_required"
)

// Repository описывает контракт доступа к данным для проверки прав.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	GetDownloadByID(ctx context.Context, id int) (*models.Download, error)
	ListValidLicensesByUser(ctx context.Context, userUID string) ([]*models.License, error)
}

// Service принимает решения о доступе к файлам каталога.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Decision - итог проверки доступа. При Allowed = false поле Reason
// объясняет, какие ворота не пройдены.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Evaluate проверяет, может ли пользователь скачать позицию каталога.
// Сначала проверяется роль, затем лицензионное требование. Позиция
// возвращается вместе с решением, чтобы вызывающий код не ходил
// в хранилище повторно.
func (s *Service) Evaluate(ctx context.Context, userUID string, downloadID int) (*Decision, *models.Download, error) {
	download, err := s.repo.GetDownloadByID(ctx, downloadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrDownloadNotFound
		}
		return nil, nil, err
	}
	// Скрытые позиции недоступны наравне с несуществующими.
	if !download.IsActive {
		return nil, nil, ErrDownloadNotFound
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return &Decision{Allowed: false, Reason: ReasonAccountInactive}, download, nil
	}

	if !user.Role.AtLeast(download.RequiredRole) {
		return &Decision{Allowed: false, Reason: ReasonRoleTooLow}, download, nil
	}

	if len(download.RequiredTiers) == 0 {
		return &Decision{Allowed: true}, download, nil
	}

	licenses, err := s.repo.ListValidLicensesByUser(ctx, userUID)
	if err != nil {
		return nil, nil, err
	}
	for _, l := range licenses {
		if matchesTier(l, download.RequiredTiers) || l.ProductType == download.ProductType {
			return &Decision{Allowed: true}, download, nil
		}
	}

	s.log.Info("access denied",
		slog.String("user_uid", userUID),
		slog.Int("download_id", downloadID),
		slog.String("reason", ReasonLicenseRequired))
	return &Decision{Allowed: false, Reason: ReasonLicenseRequired}, download, nil
}

func matchesTier(license *models.License, tiers []string) bool {
	for _, tier := range tiers {
		if license.Tier == tier {
			return true
		}
	}
	return false
}
