// Package user реализует работу с профилем пользователя: чтение и изменение
// профиля, настройки уведомлений, статистику и мягкое удаление учётной записи,
// а также административные операции над пользователями.
package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// Ошибки уровня бизнес-логики, которые обработчики переводят в HTTP-статусы.
var (
	// ErrUserNotFound возвращается, когда пользователь с таким UID не существует.
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateField возвращается при попытке занять чужую почту или discord id.
	ErrDuplicateField = errors.New("email or discord id already in use")
	// ErrInvalidRole возвращается при попытке назначить неизвестную роль.
	ErrInvalidRole = errors.New("invalid role")
)

// Причина отзыва, записываемая в лицензии при удалении учётной записи.
const revokeReasonAccountDeleted = "account_deleted"

// Repository описывает методы хранилища, необходимые сервису пользователей.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	UpdateUserProfile(ctx context.Context, userUID, email, discordID string) (int, error)
	UpdateUserPreferences(ctx context.Context, userUID string, prefs models.UserPreferences) (int, error)
	UpdateUserRole(ctx context.Context, userUID string, role models.Role) (int, error)
	UpdateUserStatus(ctx context.Context, userUID string, isActive bool) (int, error)
	AnonymizeUser(ctx context.Context, user *models.User) (int, error)
	RevokeLicensesByUser(ctx context.Context, userUID, reason string) (int, error)
}

// Service реализует бизнес-логику работы с пользователями.
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

// Profile возвращает профиль пользователя по его UID.
func (s *Service) Profile(ctx context.Context, userUID string) (*models.User, error) {
	const op = "services.user.Profile"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// UpdateProfile изменяет почту и/или идентификатор чат-платформы.
// Пустые поля не изменяются. Возвращает обновлённый профиль.
func (s *Service) UpdateProfile(ctx context.Context, userUID string, upd models.DummyProfileUpdate) (*models.User, error) {
	const op = "services.user.UpdateProfile"

	affected, err := s.repo.UpdateUserProfile(ctx, userUID, upd.Email, upd.DiscordID)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, fmt.Errorf("%s: %w", op, ErrDuplicateField)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user profile updated", "user_uid", userUID)
	return user, nil
}

// UpdatePreferences сохраняет настройки уведомлений пользователя.
func (s *Service) UpdatePreferences(ctx context.Context, userUID string, prefs models.UserPreferences) error {
	const op = "services.user.UpdatePreferences"

	affected, err := s.repo.UpdateUserPreferences(ctx, userUID, prefs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// Stats возвращает агрегированные счётчики активности пользователя.
func (s *Service) Stats(ctx context.Context, userUID string) (*models.UserStats, error) {
	const op = "services.user.Stats"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &user.Stats, nil
}

// DeleteAccount выполняет мягкое удаление: уникальные поля перезаписываются
// значениями-надгробиями, учётная запись деактивируется, все лицензии
// пользователя отзываются. Запись в базе сохраняется ради ссылочной целостности.
func (s *Service) DeleteAccount(ctx context.Context, userUID string) error {
	const op = "services.user.DeleteAccount"

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	user.Anonymize(time.Now().UTC())
	affected, err := s.repo.AnonymizeUser(ctx, user)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	revoked, err := s.repo.RevokeLicensesByUser(ctx, userUID, revokeReasonAccountDeleted)
	if err != nil {
		// Учётная запись уже обезличена, отзыв можно повторить: операция идемпотентна.
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user account deleted",
		"user_uid", userUID,
		"licenses_revoked", revoked)
	return nil
}

// List возвращает страницу пользователей. Доступно только администраторам.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "services.user.List"

	users, err := s.repo.ListUsers(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// SetRole назначает пользователю роль. Неизвестная роль отклоняется.
func (s *Service) SetRole(ctx context.Context, userUID, roleStr string) error {
	const op = "services.user.SetRole"

	role, err := models.ParseRole(roleStr)
	if err != nil {
		return fmt.Errorf("%s: %w: %q", op, ErrInvalidRole, roleStr)
	}

	affected, err := s.repo.UpdateUserRole(ctx, userUID, role)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	s.log.Info("user role changed", "user_uid", userUID, "role", role)
	return nil
}

// SetStatus включает или блокирует учётную запись пользователя.
func (s *Service) SetStatus(ctx context.Context, userUID string, isActive bool) error {
	const op = "services.user.SetStatus"

	affected, err := s.repo.UpdateUserStatus(ctx, userUID, isActive)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}

	s.log.Info("user status changed", "user_uid", userUID, "is_active", isActive)
	return nil
}
