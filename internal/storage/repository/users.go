package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

const userColumns = `uid, username, email, discord_id, password_hash, role, is_active,
	subscription_plan, subscription_status, subscription_start_date, subscription_end_date,
	download_count, total_spent, login_count, last_login,
	notify_email, notify_discord, newsletter, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var subStart, subEnd, lastLogin sql.NullTime
	if err := row.Scan(&u.UID, &u.Username, &u.Email, &u.DiscordID, &u.PasswordHash,
		&u.Role, &u.IsActive,
		&u.Subscription.Plan, &u.Subscription.Status, &subStart, &subEnd,
		&u.Stats.DownloadCount, &u.Stats.TotalSpent, &u.Stats.LoginCount, &lastLogin,
		&u.Preferences.NotifyEmail, &u.Preferences.NotifyDiscord, &u.Preferences.Newsletter,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}

	if subStart.Valid {
		u.Subscription.StartDate = &subStart.Time
	}
	if subEnd.Valid {
		u.Subscription.EndDate = &subEnd.Time
	}
	if lastLogin.Valid {
		u.Stats.LastLogin = &lastLogin.Time
	}
	return u, nil
}

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (username, email, discord_id, password_hash, role,
			      subscription_plan, subscription_status, subscription_start_date,
			      subscription_end_date)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Username, user.Email, user.DiscordID, user.PasswordHash, user.Role,
		user.Subscription.Plan, user.Subscription.Status,
		user.Subscription.StartDate, user.Subscription.EndDate).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE username = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByDiscordID возвращает пользователя по идентификатору на чат-платформе.
func (s *Storage) GetUserByDiscordID(ctx context.Context, discordID string) (*models.User, error) {
	const op = "storage.GetUserByDiscordID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE discord_id = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, discordID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает список пользователей с пагинацией.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateUserProfile обновляет почту и идентификатор чат-платформы пользователя.
// Пустые значения не изменяют соответствующие колонки.
func (s *Storage) UpdateUserProfile(ctx context.Context, userUID, email, discordID string) (int, error) {
	const op = "storage.UpdateUserProfile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET email = COALESCE(NULLIF($1, ''), email),
			      discord_id = COALESCE(NULLIF($2, ''), discord_id),
			      updated_at = NOW()
			  WHERE uid = $3`
	result, err := s.DB.ExecContext(ctx, query, email, discordID, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateUserRole назначает пользователю новую роль.
func (s *Storage) UpdateUserRole(ctx context.Context, userUID string, role models.Role) (int, error) {
	const op = "storage.UpdateUserRole"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET role = $1,
			      updated_at = NOW()
			  WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, role, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateUserStatus включает или блокирует учётную запись пользователя.
func (s *Storage) UpdateUserStatus(ctx context.Context, userUID string, isActive bool) (int, error) {
	const op = "storage.UpdateUserStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET is_active = $1,
			      updated_at = NOW()
			  WHERE uid = $2`
	result, err := s.DB.ExecContext(ctx, query, isActive, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateUserPreferences сохраняет настройки уведомлений пользователя.
func (s *Storage) UpdateUserPreferences(ctx context.Context, userUID string, prefs models.UserPreferences) (int, error) {
	const op = "storage.UpdateUserPreferences"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET notify_email = $1,
			      notify_discord = $2,
			      newsletter = $3,
			      updated_at = NOW()
			  WHERE uid = $4`
	result, err := s.DB.ExecContext(ctx, query,
		prefs.NotifyEmail, prefs.NotifyDiscord, prefs.Newsletter, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// UpdateUserSubscription обновляет состояние подписки пользователя.
func (s *Storage) UpdateUserSubscription(ctx context.Context, userUID, plan, status string, startDate, endDate *time.Time) (int, error) {
	const op = "storage.UpdateUserSubscription"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_plan = $1,
			      subscription_status = $2,
			      subscription_start_date = $3,
			      subscription_end_date = $4,
			      updated_at = NOW()
			  WHERE uid = $5`
	result, err := s.DB.ExecContext(ctx, query, plan, status, startDate, endDate, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RecordUserLogin увеличивает счётчик входов и фиксирует время входа.
func (s *Storage) RecordUserLogin(ctx context.Context, userUID string) error {
	const op = "storage.RecordUserLogin"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET login_count = login_count + 1,
			      last_login = NOW()
			  WHERE uid = $1`
	_, err := s.DB.ExecContext(ctx, query, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AnonymizeUser перезаписывает уникальные поля пользователя значениями-надгробиями
// и деактивирует его. Лицензии и история скачиваний сохраняют ссылки на запись.
func (s *Storage) AnonymizeUser(ctx context.Context, user *models.User) (int, error) {
	const op = "storage.AnonymizeUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET username = $1,
			      email = $2,
			      discord_id = $3,
			      password_hash = '',
			      is_active = FALSE,
			      subscription_status = $4,
			      updated_at = NOW()
			  WHERE uid = $5`
	result, err := s.DB.ExecContext(ctx, query,
		user.Username, user.Email, user.DiscordID, user.Subscription.Status, user.UID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
