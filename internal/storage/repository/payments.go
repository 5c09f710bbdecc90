package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

const paymentColumns = `id, user_uid, amount, currency, status, description,
	product_name, product_type, tier, license_id, confirmed_at, created_at, updated_at`

func scanPayment(row rowScanner) (*models.Payment, error) {
	p := &models.Payment{}
	var licenseID sql.NullInt64
	var confirmedAt sql.NullTime
	if err := row.Scan(&p.ID, &p.UserUID, &p.Amount, &p.Currency, &p.Status,
		&p.Description, &p.ProductName, &p.ProductType, &p.Tier,
		&licenseID, &confirmedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if licenseID.Valid {
		v := int(licenseID.Int64)
		p.LicenseID = &v
	}
	if confirmedAt.Valid {
		p.ConfirmedAt = &confirmedAt.Time
	}
	return p, nil
}

// CreatePayment сохраняет созданный у провайдера платёж.
func (s *Storage) CreatePayment(ctx context.Context, payment models.Payment) error {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (id, user_uid, amount, currency, status, description,
			      product_name, product_type, tier, idempotence_key)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.DB.ExecContext(ctx, query,
		payment.ID, payment.UserUID, payment.Amount, payment.Currency, payment.Status,
		payment.Description, payment.ProductName, payment.ProductType, payment.Tier,
		payment.IdempotenceKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetPayment возвращает платёж по его идентификатору.
func (s *Storage) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	const op = "storage.GetPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE id = $1`
	p, err := scanPayment(s.DB.QueryRowContext(ctx, query, paymentID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// UpdatePaymentStatus обновляет статус платежа.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, paymentID, status string) (int, error) {
	const op = "storage.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE payments
			  SET status = $1,
			      updated_at = NOW()
			  WHERE id = $2`
	result, err := s.DB.ExecContext(ctx, query, status, paymentID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// ListPaymentsByUser возвращает платежи пользователя с пагинацией.
func (s *Storage) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListPaymentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  WHERE user_uid = $1
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListAllPayments возвращает все платежи с пагинацией.
func (s *Storage) ListAllPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	const op = "storage.ListAllPayments"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + paymentColumns + `
			  FROM payments
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ConfirmPayment подтверждает платёж и выдаёт лицензию в одной транзакции:
// платёж переводится в статус succeeded, создаётся лицензия, к сумме трат
// пользователя прибавляется сумма платежа и обновляется его подписка.
// Повторное подтверждение уже завершённого платежа возвращает выданную ранее
// лицензию без изменений в базе.
func (s *Storage) ConfirmPayment(ctx context.Context, paymentID string, license models.License) (*models.License, error) {
	const op = "storage.ConfirmPayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var status string
	var amount int64
	var userUID string
	var licenseID sql.NullInt64
	query := `SELECT status, amount, user_uid, license_id
			  FROM payments
			  WHERE id = $1
			  FOR UPDATE`
	if err = tx.QueryRowContext(ctx, query, paymentID).Scan(&status, &amount, &userUID, &licenseID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Повторное уведомление провайдера о том же платеже.
	if status == models.PaymentStatusSucceeded && licenseID.Valid {
		existing, err := scanLicense(tx.QueryRowContext(ctx,
			`SELECT `+licenseColumns+` FROM licenses WHERE id = $1`, licenseID.Int64))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err = tx.Commit(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return existing, nil
	}

	query = `UPDATE payments
			 SET status = $1,
			     confirmed_at = NOW(),
			     updated_at = NOW()
			 WHERE id = $2`
	if _, err = tx.ExecContext(ctx, query, models.PaymentStatusSucceeded, paymentID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	featuresRaw, err := json.Marshal(license.Features)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	restrictionsRaw, err := json.Marshal(license.Restrictions)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var newLicenseID int
	query = `INSERT INTO licenses (license_key, user_uid, product_name, product_type, tier,
			     status, activated_at, expires_at, max_usage, features, restrictions, payment_id)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 RETURNING id`
	if err = tx.QueryRowContext(ctx, query,
		license.LicenseKey, license.UserUID, license.ProductName, license.ProductType,
		license.Tier, license.Status, license.ActivatedAt, license.ExpiresAt,
		license.MaxUsage, featuresRaw, restrictionsRaw, paymentID).Scan(&newLicenseID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query = `UPDATE payments
			 SET license_id = $1
			 WHERE id = $2`
	if _, err = tx.ExecContext(ctx, query, newLicenseID, paymentID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query = `UPDATE users
			 SET total_spent = total_spent + $1,
			     subscription_plan = $2,
			     subscription_status = $3,
			     subscription_start_date = NOW(),
			     subscription_end_date = $4,
			     updated_at = NOW()
			 WHERE uid = $5`
	if _, err = tx.ExecContext(ctx, query,
		amount, license.Tier, models.SubscriptionActive, license.ExpiresAt, userUID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	license.ID = newLicenseID
	pid := paymentID
	license.PaymentID = &pid
	return &license, nil
}
