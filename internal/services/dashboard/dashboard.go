// Package dashboard собирает данные личного кабинета пользователя:
// сводку по лицензиям и тратам, ленту последних событий и производные
// уведомления, а также сводные показатели витрины для административной панели.
package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// ErrUserNotFound возвращается, когда пользователь с таким UID не существует.
var ErrUserNotFound = errors.New("user not found")

// Лицензии, истекающие в ближайшие expiringSoonDays дней, попадают в уведомления.
const expiringSoonDays = 7

// Число лицензий пользователя, учитываемых в сводке. Больше у одного
// пользователя на практике не бывает.
const summaryLicenseLimit = 200

// Repository описывает методы хранилища, необходимые личному кабинету.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListLicensesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.License, error)
	ListValidLicensesByUser(ctx context.Context, userUID string) ([]*models.License, error)
	ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error)
	ListUserActivity(ctx context.Context, userUID string, limit int) ([]*models.ActivityItem, error)
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	ListRecentActivity(ctx context.Context, limit int) ([]*models.ActivityItem, error)
}

// Service реализует бизнес-логику личного кабинета.
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

// Summary возвращает сводку личного кабинета: количество лицензий
// по статусам, счётчики скачиваний и трат, дату регистрации.
func (s *Service) Summary(ctx context.Context, userUID string) (*models.UserDashboardSummary, error) {
	const op = "services.dashboard.Summary"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	licenses, err := s.repo.ListLicensesByUser(ctx, userUID, summaryLicenseLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	byStatus := make(map[string]int)
	valid := 0
	for _, license := range licenses {
		byStatus[license.Status]++
		if license.IsValid(now) {
			valid++
		}
	}

	return &models.UserDashboardSummary{
		LicensesByStatus: byStatus,
		ValidLicenses:    valid,
		DownloadCount:    user.Stats.DownloadCount,
		TotalSpent:       user.Stats.TotalSpent,
		MemberSince:      user.CreatedAt,
	}, nil
}

// Activity возвращает ленту последних событий пользователя:
// скачивания, платежи и выданные лицензии, новые первыми.
func (s *Service) Activity(ctx context.Context, userUID string, limit int) ([]*models.ActivityItem, error) {
	const op = "services.dashboard.Activity"

	items, err := s.repo.ListUserActivity(ctx, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// Notifications вычисляет уведомления личного кабинета: лицензии,
// истекающие в ближайшую неделю, почти исчерпанные лимиты использований
// и неоплаченные платежи. Уведомления нигде не хранятся.
func (s *Service) Notifications(ctx context.Context, userUID string) ([]*models.Notification, error) {
	const op = "services.dashboard.Notifications"

	licenses, err := s.repo.ListValidLicensesByUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	notifications := []*models.Notification{}
	for _, license := range licenses {
		if license.Tier != models.TierLifetime {
			if days := license.DaysRemaining(now); days <= expiringSoonDays {
				notifications = append(notifications, &models.Notification{
					Type:    models.NotificationLicenseExpiring,
					Message: fmt.Sprintf("%s (%s) expires in %d days", license.ProductName, license.Tier, days),
				})
			}
		}
		if license.MaxUsage != nil && *license.MaxUsage > 0 {
			// Порог 90% без плавающей точки.
			if license.UsageCount*10 >= *license.MaxUsage*9 {
				notifications = append(notifications, &models.Notification{
					Type: models.NotificationUsageLimit,
					Message: fmt.Sprintf("%s: %d of %d uses spent",
						license.ProductName, license.UsageCount, *license.MaxUsage),
				})
			}
		}
	}

	payments, err := s.repo.ListPaymentsByUser(ctx, userUID, summaryLicenseLimit, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, payment := range payments {
		if payment.Status == models.PaymentStatusPending {
			notifications = append(notifications, &models.Notification{
				Type:    models.NotificationPaymentPending,
				Message: fmt.Sprintf("payment for %s (%s) is awaiting confirmation", payment.ProductName, payment.Tier),
			})
		}
	}

	return notifications, nil
}

// AdminStats возвращает сводные показатели витрины. Доступно только администраторам.
func (s *Service) AdminStats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "services.dashboard.AdminStats"

	stats, err := s.repo.GetDashboardStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// AdminActivity возвращает последние события витрины целиком.
// Доступно только администраторам.
func (s *Service) AdminActivity(ctx context.Context, limit int) ([]*models.ActivityItem, error) {
	const op = "services.dashboard.AdminActivity"

	items, err := s.repo.ListRecentActivity(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}
