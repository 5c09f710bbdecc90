package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

const licenseColumns = `id, license_key, user_uid, product_name, product_type, tier, status,
	activated_at, expires_at, usage_count, max_usage, last_used_at,
	features, restrictions, payment_id, revoke_reason, created_at, updated_at`

func scanLicense(row rowScanner) (*models.License, error) {
	l := &models.License{}
	var maxUsage sql.NullInt64
	var lastUsedAt sql.NullTime
	var paymentID, revokeReason sql.NullString
	var featuresRaw, restrictionsRaw []byte

	if err := row.Scan(&l.ID, &l.LicenseKey, &l.UserUID, &l.ProductName, &l.ProductType,
		&l.Tier, &l.Status, &l.ActivatedAt, &l.ExpiresAt, &l.UsageCount, &maxUsage,
		&lastUsedAt, &featuresRaw, &restrictionsRaw, &paymentID, &revokeReason,
		&l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}

	if maxUsage.Valid {
		v := int(maxUsage.Int64)
		l.MaxUsage = &v
	}
	if lastUsedAt.Valid {
		l.LastUsedAt = &lastUsedAt.Time
	}
	if paymentID.Valid {
		l.PaymentID = &paymentID.String
	}
	if revokeReason.Valid {
		l.RevokeReason = &revokeReason.String
	}
	if err := json.Unmarshal(featuresRaw, &l.Features); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(restrictionsRaw, &l.Restrictions); err != nil {
		return nil, err
	}
	return l, nil
}

// CreateLicense вставляет новую лицензию и возвращает её ID.
func (s *Storage) CreateLicense(ctx context.Context, license models.License) (int, error) {
	const op = "storage.CreateLicense"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	featuresRaw, err := json.Marshal(license.Features)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	restrictionsRaw, err := json.Marshal(license.Restrictions)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO licenses (license_key, user_uid, product_name, product_type, tier,
			      status, activated_at, expires_at, max_usage, features, restrictions, payment_id)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		license.LicenseKey, license.UserUID, license.ProductName, license.ProductType,
		license.Tier, license.Status, license.ActivatedAt, license.ExpiresAt,
		license.MaxUsage, featuresRaw, restrictionsRaw, license.PaymentID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLicenseByKey возвращает лицензию по её ключу.
func (s *Storage) GetLicenseByKey(ctx context.Context, licenseKey string) (*models.License, error) {
	const op = "storage.GetLicenseByKey"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + licenseColumns + `
			  FROM licenses
			  WHERE license_key = $1`
	l, err := scanLicense(s.DB.QueryRowContext(ctx, query, licenseKey))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// GetLicenseByID возвращает лицензию по её ID.
func (s *Storage) GetLicenseByID(ctx context.Context, id int) (*models.License, error) {
	const op = "storage.GetLicenseByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + licenseColumns + `
			  FROM licenses
			  WHERE id = $1`
	l, err := scanLicense(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

// ListLicensesByUser возвращает список лицензий пользователя с пагинацией.
func (s *Storage) ListLicensesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.License, error) {
	const op = "storage.ListLicensesByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + licenseColumns + `
			  FROM licenses
			  WHERE user_uid = $1
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllLicenses возвращает список всех лицензий с пагинацией.
func (s *Storage) ListAllLicenses(ctx context.Context, limit, offset int) ([]*models.License, error) {
	const op = "storage.ListAllLicenses"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + licenseColumns + `
			  FROM licenses
			  ORDER BY id
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListValidLicensesByUser возвращает действующие лицензии пользователя:
// статус active и дата окончания в будущем.
func (s *Storage) ListValidLicensesByUser(ctx context.Context, userUID string) ([]*models.License, error) {
	const op = "storage.ListValidLicensesByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + licenseColumns + `
			  FROM licenses
			  WHERE user_uid = $1
			    AND status = 'active'
			    AND expires_at > NOW()
			  ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ActivateLicense переводит лицензию в статус active и обновляет время активации.
// Уже активную или отозванную лицензию активировать нельзя, как и лицензию
// с прошедшим сроком действия. Лицензия со статусом expired и продлённым
// сроком активируется заново.
func (s *Storage) ActivateLicense(ctx context.Context, licenseKey string) (int, error) {
	const op = "storage.ActivateLicense"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE licenses
			  SET status = 'active',
			      activated_at = NOW(),
			      updated_at = NOW()
			  WHERE license_key = $1
			    AND status NOT IN ('active', 'revoked')
			    AND expires_at > NOW()`
	result, err := s.DB.ExecContext(ctx, query, licenseKey)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ExtendLicense продлевает лицензию на заданное число дней.
// Отозванные лицензии не продлеваются.
func (s *Storage) ExtendLicense(ctx context.Context, licenseKey string, days int) (int, error) {
	const op = "storage.ExtendLicense"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	// Интервал в часах: прибавление суток в postgres зависит от
	// часового пояса сессии, сдвиг должен быть ровно days*24h.
	query := `UPDATE licenses
			  SET expires_at = expires_at + $2 * interval '24 hours',
			      updated_at = NOW()
			  WHERE license_key = $1
			    AND status <> 'revoked'`
	result, err := s.DB.ExecContext(ctx, query, licenseKey, days)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RevokeLicense отзывает лицензию с указанием причины.
func (s *Storage) RevokeLicense(ctx context.Context, licenseKey, reason string) (int, error) {
	const op = "storage.RevokeLicense"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE licenses
			  SET status = 'revoked',
			      revoke_reason = $2,
			      updated_at = NOW()
			  WHERE license_key = $1
			    AND status <> 'revoked'`
	result, err := s.DB.ExecContext(ctx, query, licenseKey, reason)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RevokeLicenseByID отзывает лицензию по внутреннему идентификатору.
// Используется при возврате платежа, где известен только license_id.
func (s *Storage) RevokeLicenseByID(ctx context.Context, licenseID int, reason string) (int, error) {
	const op = "storage.RevokeLicenseByID"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE licenses
			  SET status = 'revoked',
			      revoke_reason = $2,
			      updated_at = NOW()
			  WHERE id = $1
			    AND status <> 'revoked'`
	result, err := s.DB.ExecContext(ctx, query, licenseID, reason)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RevokeLicensesByUser отзывает все неотозванные лицензии пользователя.
// Используется при удалении учётной записи.
func (s *Storage) RevokeLicensesByUser(ctx context.Context, userUID, reason string) (int, error) {
	const op = "storage.RevokeLicensesByUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE licenses
			  SET status = 'revoked',
			      revoke_reason = $2,
			      updated_at = NOW()
			  WHERE user_uid = $1
			    AND status <> 'revoked'`
	result, err := s.DB.ExecContext(ctx, query, userUID, reason)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RecordLicenseUsage увеличивает счётчик использований и фиксирует время обращения.
// Возвращает 0, если лимит использований уже исчерпан.
func (s *Storage) RecordLicenseUsage(ctx context.Context, licenseKey string) (int, error) {
	const op = "storage.RecordLicenseUsage"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE licenses
			  SET usage_count = usage_count + 1,
			      last_used_at = NOW()
			  WHERE license_key = $1
			    AND (max_usage IS NULL OR usage_count < max_usage)`
	result, err := s.DB.ExecContext(ctx, query, licenseKey)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// FindLicensesExpiringIn находит активные лицензии, истекающие ровно через
// заданное число дней, вместе с контактами владельцев.
func (s *Storage) FindLicensesExpiringIn(ctx context.Context, days int) ([]*models.LicenseExpiryInfo, error) {
	const op = "storage.FindLicensesExpiringIn"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      l.license_key,
			      l.product_name,
			      l.tier,
			      l.expires_at,
			      u.username,
			      u.email,
			      u.discord_id,
			      u.notify_email,
			      u.notify_discord
			  FROM licenses l
			  JOIN users u ON l.user_uid = u.uid
			  WHERE l.status = 'active'
			    AND l.tier <> 'lifetime'
			    AND l.expires_at::DATE = CURRENT_DATE + $1::int;`
	rows, err := s.DB.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.LicenseExpiryInfo
	for rows.Next() {
		var info models.LicenseExpiryInfo
		if err = rows.Scan(&info.LicenseKey, &info.ProductName, &info.Tier, &info.ExpiresAt,
			&info.Username, &info.Email, &info.DiscordID,
			&info.NotifyEmail, &info.NotifyDiscord); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		info.DaysLeft = days
		result = append(result, &info)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// MarkExpiredLicenses переводит просроченные активные лицензии в статус expired.
// Возвращает количество обновлённых записей.
func (s *Storage) MarkExpiredLicenses(ctx context.Context) (int, error) {
	const op = "storage.MarkExpiredLicenses"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE licenses
			  SET status = 'expired',
			      updated_at = NOW()
			  WHERE status = 'active'
			    AND expires_at < NOW()`
	result, err := s.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}
