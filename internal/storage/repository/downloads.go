package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

const downloadColumns = `id, name, slug, description, category, version, file_size, file_url,
	product_type, required_role, required_tiers, download_count, is_active, created_at, updated_at`

func scanDownload(row rowScanner) (*models.Download, error) {
	d := &models.Download{}
	var tiersRaw []byte
	if err := row.Scan(&d.ID, &d.Name, &d.Slug, &d.Description, &d.Category, &d.Version,
		&d.FileSize, &d.FileURL, &d.ProductType, &d.RequiredRole, &tiersRaw,
		&d.DownloadCount, &d.IsActive, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(tiersRaw, &d.RequiredTiers); err != nil {
		return nil, err
	}
	return d, nil
}

// CreateDownload вставляет новую позицию каталога и возвращает её ID.
func (s *Storage) CreateDownload(ctx context.Context, download models.Download) (int, error) {
	const op = "storage.CreateDownload"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tiersRaw, err := json.Marshal(download.RequiredTiers)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO downloads (name, slug, description, category, version, file_size,
			      file_url, product_type, required_role, required_tiers)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	var newID int
	err = s.DB.QueryRowContext(ctx, query,
		download.Name, download.Slug, download.Description, download.Category,
		download.Version, download.FileSize, download.FileURL, download.ProductType,
		download.RequiredRole, tiersRaw).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetDownloadBySlug возвращает позицию каталога по её slug.
func (s *Storage) GetDownloadBySlug(ctx context.Context, slug string) (*models.Download, error) {
	const op = "storage.GetDownloadBySlug"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + downloadColumns + `
			  FROM downloads
			  WHERE slug = $1`
	d, err := scanDownload(s.DB.QueryRowContext(ctx, query, slug))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// GetDownloadByID возвращает позицию каталога по её ID.
func (s *Storage) GetDownloadByID(ctx context.Context, id int) (*models.Download, error) {
	const op = "storage.GetDownloadByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + downloadColumns + `
			  FROM downloads
			  WHERE id = $1`
	d, err := scanDownload(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return d, nil
}

// ListDownloads возвращает активные позиции каталога с пагинацией.
// Пустая категория означает выборку по всем категориям.
func (s *Storage) ListDownloads(ctx context.Context, category string, limit, offset int) ([]*models.Download, error) {
	const op = "storage.ListDownloads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + downloadColumns + `
			  FROM downloads
			  WHERE is_active = true
			    AND ($1::text = '' OR category = $1)
			  ORDER BY id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListCategories возвращает категории каталога с количеством активных позиций.
func (s *Storage) ListCategories(ctx context.Context) ([]*models.CategorySummary, error) {
	const op = "storage.ListCategories"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT category, COUNT(*)
			  FROM downloads
			  WHERE is_active = true
			  GROUP BY category
			  ORDER BY category`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CategorySummary
	for rows.Next() {
		var item models.CategorySummary
		if err := rows.Scan(&item.Category, &item.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPopularDownloads возвращает активные позиции каталога,
// отсортированные по количеству скачиваний.
func (s *Storage) ListPopularDownloads(ctx context.Context, limit int) ([]*models.Download, error) {
	const op = "storage.ListPopularDownloads"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + downloadColumns + `
			  FROM downloads
			  WHERE is_active = true
			  ORDER BY download_count DESC, id
			  LIMIT $1`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Download
	for rows.Next() {
		d, err := scanDownload(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateDownload частично обновляет позицию каталога.
// Пустые строки и nil-указатели не изменяют соответствующие колонки.
func (s *Storage) UpdateDownload(ctx context.Context, id int, upd models.DummyDownloadUpdate) (int, error) {
	const op = "storage.UpdateDownload"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var tiersRaw any
	if upd.RequiredTiers != nil {
		raw, err := json.Marshal(upd.RequiredTiers)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		tiersRaw = raw
	}

	query := `UPDATE downloads
			  SET name = COALESCE(NULLIF($1, ''), name),
			      description = COALESCE(NULLIF($2, ''), description),
			      category = COALESCE(NULLIF($3, ''), category),
			      version = COALESCE(NULLIF($4, ''), version),
			      file_size = COALESCE($5, file_size),
			      file_url = COALESCE(NULLIF($6, ''), file_url),
			      required_role = COALESCE(NULLIF($7, ''), required_role),
			      required_tiers = COALESCE($8::jsonb, required_tiers),
			      is_active = COALESCE($9, is_active),
			      updated_at = NOW()
			  WHERE id = $10`
	result, err := s.DB.ExecContext(ctx, query,
		upd.Name, upd.Description, upd.Category, upd.Version, upd.FileSize,
		upd.FileURL, upd.RequiredRole, tiersRaw, upd.IsActive, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// DeactivateDownload скрывает позицию каталога. Запись и история скачиваний сохраняются.
func (s *Storage) DeactivateDownload(ctx context.Context, id int) (int, error) {
	const op = "storage.DeactivateDownload"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE downloads
			  SET is_active = false,
			      updated_at = NOW()
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(rowsAffected), nil
}

// RegisterDownload фиксирует успешное скачивание: добавляет событие и
// увеличивает счётчики позиции каталога и пользователя в одной транзакции.
func (s *Storage) RegisterDownload(ctx context.Context, downloadID int, userUID, version, ip string) (int, error) {
	const op = "storage.RegisterDownload"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var eventID int
	query := `INSERT INTO download_events (download_id, user_uid, version, ip)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	if err = tx.QueryRowContext(ctx, query, downloadID, userUID, version, ip).Scan(&eventID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query = `UPDATE downloads
			 SET download_count = download_count + 1
			 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, query, downloadID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query = `UPDATE users
			 SET download_count = download_count + 1
			 WHERE uid = $1`
	if _, err = tx.ExecContext(ctx, query, userUID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return eventID, nil
}

// ListDownloadEventsByUser возвращает историю скачиваний пользователя с пагинацией.
func (s *Storage) ListDownloadEventsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.DownloadEvent, error) {
	const op = "storage.ListDownloadEventsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, download_id, user_uid, version, ip, created_at
			  FROM download_events
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

	var result []*models.DownloadEvent
	for rows.Next() {
		var item models.DownloadEvent
		if err := rows.Scan(&item.ID, &item.DownloadID, &item.UserUID, &item.Version,
			&item.IP, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
