package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// GetDashboardStats собирает сводные показатели витрины одним запросом.
func (s *Storage) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	const op = "storage.GetDashboardStats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      (SELECT COUNT(*) FROM users),
			      (SELECT COUNT(*) FROM users WHERE is_active = true),
			      (SELECT COUNT(*) FROM licenses WHERE status = 'active' AND expires_at > NOW()),
			      (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'succeeded'),
			      (SELECT COALESCE(SUM(download_count), 0) FROM downloads),
			      (SELECT COUNT(*) FROM payments WHERE status = 'pending')`
	stats := &models.DashboardStats{}
	err := s.DB.QueryRowContext(ctx, query).Scan(
		&stats.TotalUsers, &stats.ActiveUsers, &stats.ActiveLicenses,
		&stats.TotalRevenue, &stats.TotalDownloads, &stats.PendingPayments)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stats, nil
}

// ListRecentActivity возвращает последние события витрины:
// регистрации, успешные платежи и скачивания.
func (s *Storage) ListRecentActivity(ctx context.Context, limit int) ([]*models.ActivityItem, error) {
	const op = "storage.ListRecentActivity"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT type, username, detail, created_at FROM (
			      SELECT 'registration' AS type, username, '' AS detail, created_at
			      FROM users
			      UNION ALL
			      SELECT 'payment' AS type, u.username, p.product_name || ' (' || p.tier || ')' AS detail, p.confirmed_at AS created_at
			      FROM payments p
			      JOIN users u ON p.user_uid = u.uid
			      WHERE p.status = 'succeeded' AND p.confirmed_at IS NOT NULL
			      UNION ALL
			      SELECT 'download' AS type, u.username, d.name AS detail, e.created_at
			      FROM download_events e
			      JOIN users u ON e.user_uid = u.uid
			      JOIN downloads d ON e.download_id = d.id
			  ) activity
			  ORDER BY created_at DESC
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ActivityItem
	for rows.Next() {
		var item models.ActivityItem
		if err := rows.Scan(&item.Type, &item.Username, &item.Detail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUserActivity возвращает последние события одного пользователя:
// скачивания, платежи и выданные лицензии.
func (s *Storage) ListUserActivity(ctx context.Context, userUID string, limit int) ([]*models.ActivityItem, error) {
	const op = "storage.ListUserActivity"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT type, username, detail, created_at FROM (
			      SELECT 'download' AS type, u.username, d.name || ' v' || e.version AS detail, e.created_at
			      FROM download_events e
			      JOIN users u ON e.user_uid = u.uid
			      JOIN downloads d ON e.download_id = d.id
			      WHERE e.user_uid = $1
			      UNION ALL
			      SELECT 'payment' AS type, u.username, p.product_name || ' (' || p.tier || ', ' || p.status || ')' AS detail, p.created_at
			      FROM payments p
			      JOIN users u ON p.user_uid = u.uid
			      WHERE p.user_uid = $1
			      UNION ALL
			      SELECT 'license' AS type, u.username, l.product_name || ' (' || l.tier || ')' AS detail, l.created_at
			      FROM licenses l
			      JOIN users u ON l.user_uid = u.uid
			      WHERE l.user_uid = $1
			  ) activity
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.ActivityItem
	for rows.Next() {
		var item models.ActivityItem
		if err := rows.Scan(&item.Type, &item.Username, &item.Detail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
