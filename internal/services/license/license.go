// Package license содержит бизнес-логику жизненного цикла лицензий:
// выдачу, проверку, активацию, продление и отзыв.
package license

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/lib/licensekey"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// Ошибки уровня сервиса, по которым обработчики выбирают HTTP-статус.
var (
	ErrLicenseNotFound = errors.New("license not found")
	ErrNotOwner        = errors.New("license belongs to another user")
	ErrCannotActivate  = errors.New("license cannot be activated")
	ErrCannotExtend    = errors.New("license cannot be extended")
)

// Причины отрицательного результата проверки лицензии.
const (
	ReasonNotFound         = "not_found"
	ReasonExpired          = "expired"
	ReasonRevoked          = "revoked"
	ReasonSuspended        = "suspended"
	ReasonUsageLimit       = "usage_limit_exceeded"
	ReasonIPNotAllowed     = "ip_not_allowed"
	ReasonServerNotAllowed = "server_not_allowed"
)

// LicenseRepository описывает контракт для работы с лицензиями в базе данных.
type LicenseRepository interface {
	CreateLicense(ctx context.Context, license models.License) (int, error)
	GetLicenseByKey(ctx context.Context, licenseKey string) (*models.License, error)
	ListLicensesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.License, error)
	ListAllLicenses(ctx context.Context, limit, offset int) ([]*models.License, error)
	ActivateLicense(ctx context.Context, licenseKey string) (int, error)
	ExtendLicense(ctx context.Context, licenseKey string, days int) (int, error)
	RevokeLicense(ctx context.Context, licenseKey, reason string) (int, error)
	RecordLicenseUsage(ctx context.Context, licenseKey string) (int, error)
	FindLicensesExpiringIn(ctx context.Context, days int) ([]*models.LicenseExpiryInfo, error)
	UpdateUserSubscription(ctx context.Context, userUID, plan, status string, startDate, endDate *time.Time) (int, error)
}

// Service реализует операции над лицензиями поверх хранилища.
type Service struct {
	repo LicenseRepository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo LicenseRepository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// VerifyResult - итог проверки лицензионного ключа. При Valid = false
// поле Reason объясняет причину отказа, остальные поля пустые.
type VerifyResult struct {
	Valid       bool             `json:"valid"`
	Reason      string           `json:"reason,omitempty"`
	ProductName string           `json:"product_name,omitempty"`
	ProductType string           `json:"product_type,omitempty"`
	Tier        string           `json:"tier,omitempty"`
	ExpiresAt   *time.Time       `json:"expires_at,omitempty"`
	DaysLeft    int              `json:"days_left,omitempty"`
	Features    []models.Feature `json:"features,omitempty"`
}

// Issue выдает новую лицензию: генерирует ключ, вычисляет дату окончания
// по тарифу и проставляет стартовый набор возможностей, если он не задан
// явно. Лицензия сразу активна, время активации - момент выдачи.
func (s *Service) Issue(ctx context.Context, req models.DummyLicenseIssue) (*models.License, error) {
	now := time.Now()
	expiresAt, err := models.ExpiryForTier(req.Tier, now)
	if err != nil {
		return nil, err
	}

	key, err := licensekey.Generate()
	if err != nil {
		return nil, err
	}

	features := req.Features
	if features == nil {
		features = models.DefaultFeatures(req.ProductType, req.Tier)
	}

	license := models.License{
		LicenseKey:  key,
		UserUID:     req.UserUID,
		ProductName: req.ProductName,
		ProductType: req.ProductType,
		Tier:        req.Tier,
		Status:      models.LicenseStatusActive,
		ActivatedAt: now,
		ExpiresAt:   expiresAt,
		MaxUsage:    req.MaxUsage,
		Features:    features,
	}

	id, err := s.repo.CreateLicense(ctx, license)
	if err != nil {
		return nil, err
	}
	license.ID = id

	// Платный тариф отражается в подписке владельца, пробный - нет.
	if req.Tier != models.TierTrial {
		if _, err := s.repo.UpdateUserSubscription(ctx, req.UserUID,
			req.Tier, models.SubscriptionActive, &now, &expiresAt); err != nil {
			return nil, err
		}
	}

	s.log.Info("issued license",
		slog.Int("id", id),
		slog.String("product", req.ProductName),
		slog.String("tier", req.Tier))

	return &license, nil
}

// CheckValidity проверяет ключ без побочных эффектов: существование,
// статус, срок действия и ограничения по IP и серверу.
func (s *Service) CheckValidity(ctx context.Context, req models.DummyLicenseVerify) (*VerifyResult, error) {
	license, err := s.repo.GetLicenseByKey(ctx, req.LicenseKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &VerifyResult{Valid: false, Reason: ReasonNotFound}, nil
		}
		return nil, err
	}

	now := time.Now()
	if !license.IsValid(now) {
		return &VerifyResult{Valid: false, Reason: invalidityReason(license)}, nil
	}

	if len(license.Restrictions.AllowedIPs) > 0 && !contains(license.Restrictions.AllowedIPs, req.IP) {
		return &VerifyResult{Valid: false, Reason: ReasonIPNotAllowed}, nil
	}
	if len(license.Restrictions.ServerIDs) > 0 && !contains(license.Restrictions.ServerIDs, req.ServerID) {
		return &VerifyResult{Valid: false, Reason: ReasonServerNotAllowed}, nil
	}
	if license.UsageExceeded() {
		return &VerifyResult{Valid: false, Reason: ReasonUsageLimit}, nil
	}

	return &VerifyResult{
		Valid:       true,
		ProductName: license.ProductName,
		ProductType: license.ProductType,
		Tier:        license.Tier,
		ExpiresAt:   &license.ExpiresAt,
		DaysLeft:    license.DaysRemaining(now),
		Features:    license.Features,
	}, nil
}

// Verify выполняет полную проверку ключа и фиксирует использование
// действительной лицензии. Недействительная лицензия не изменяется.
func (s *Service) Verify(ctx context.Context, req models.DummyLicenseVerify) (*VerifyResult, error) {
	result, err := s.CheckValidity(ctx, req)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return result, nil
	}

	affected, err := s.repo.RecordLicenseUsage(ctx, req.LicenseKey)
	if err != nil {
		return nil, err
	}
	// Лимит мог исчерпаться между проверкой и записью использования.
	if affected == 0 {
		return &VerifyResult{Valid: false, Reason: ReasonUsageLimit}, nil
	}
	return result, nil
}

// Activate переводит лицензию в статус active.
// Активировать можно только собственную лицензию, администратор - любую.
// Уже активную или отозванную лицензию активировать нельзя, как и лицензию
// с прошедшим сроком действия.
func (s *Service) Activate(ctx context.Context, licenseKey, userUID string, role models.Role) (*models.License, error) {
	license, err := s.getByKey(ctx, licenseKey)
	if err != nil {
		return nil, err
	}
	if license.UserUID != userUID && !role.AtLeast(models.RoleAdmin) {
		return nil, ErrNotOwner
	}

	affected, err := s.repo.ActivateLicense(ctx, licenseKey)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrCannotActivate
	}

	s.log.Info("activated license", slog.String("key", licenseKey))
	return s.getByKey(ctx, licenseKey)
}

// Extend продлевает лицензию на заданное число дней от текущей даты
// окончания. Меняется только срок действия, статус остаётся прежним.
// Отозванная лицензия не продлевается.
func (s *Service) Extend(ctx context.Context, licenseKey string, days int) (*models.License, error) {
	affected, err := s.repo.ExtendLicense(ctx, licenseKey, days)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		if _, err := s.getByKey(ctx, licenseKey); err != nil {
			return nil, err
		}
		return nil, ErrCannotExtend
	}

	s.log.Info("extended license", slog.String("key", licenseKey), slog.Int("days", days))
	return s.getByKey(ctx, licenseKey)
}

// Revoke отзывает лицензию с указанием причины. Повторный отзыв
// уже отозванной лицензии не считается ошибкой.
func (s *Service) Revoke(ctx context.Context, licenseKey, reason string) error {
	affected, err := s.repo.RevokeLicense(ctx, licenseKey, reason)
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.getByKey(ctx, licenseKey); err != nil {
			return err
		}
		return nil
	}

	s.log.Info("revoked license", slog.String("key", licenseKey), slog.String("reason", reason))
	return nil
}

// GetForUser возвращает лицензию по ключу с проверкой владельца.
// Администратор видит любую лицензию.
func (s *Service) GetForUser(ctx context.Context, licenseKey, userUID string, role models.Role) (*models.License, error) {
	license, err := s.getByKey(ctx, licenseKey)
	if err != nil {
		return nil, err
	}
	if license.UserUID != userUID && !role.AtLeast(models.RoleAdmin) {
		return nil, ErrNotOwner
	}
	return license, nil
}

// ListByUser возвращает лицензии пользователя с пагинацией.
func (s *Service) ListByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.License, error) {
	return s.repo.ListLicensesByUser(ctx, userUID, limit, offset)
}

// ListAll возвращает все лицензии с пагинацией.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*models.License, error) {
	return s.repo.ListAllLicenses(ctx, limit, offset)
}

// ListExpiring возвращает активные лицензии, истекающие через заданное
// число дней, вместе с контактами владельцев.
func (s *Service) ListExpiring(ctx context.Context, days int) ([]*models.LicenseExpiryInfo, error) {
	return s.repo.FindLicensesExpiringIn(ctx, days)
}

func (s *Service) getByKey(ctx context.Context, licenseKey string) (*models.License, error) {
	license, err := s.repo.GetLicenseByKey(ctx, licenseKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLicenseNotFound
		}
		return nil, err
	}
	return license, nil
}

func invalidityReason(license *models.License) string {
	switch license.Status {
	case models.LicenseStatusRevoked:
		return ReasonRevoked
	case models.LicenseStatusSuspended:
		return ReasonSuspended
	default:
		return ReasonExpired
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
