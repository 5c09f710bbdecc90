// Package download содержит бизнес-логику каталога загрузок: выдачу
// списка и карточек, регистрацию скачиваний через проверку доступа
// и административное управление позициями.
package download

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/services/access"
)

// Ошибки уровня сервиса, по которым обработчики выбирают HTTP-статус.
var (
	ErrDownloadNotFound = errors.New("download not found")
	ErrSlugTaken        = errors.New("download with this slug already exists")
)

// Repository описывает контракт для работы с каталогом в базе данных.
type Repository interface {
	CreateDownload(ctx context.Context, download models.Download) (int, error)
	GetDownloadBySlug(ctx context.Context, slug string) (*models.Download, error)
	GetDownloadByID(ctx context.Context, id int) (*models.Download, error)
	ListDownloads(ctx context.Context, category string, limit, offset int) ([]*models.Download, error)
	ListCategories(ctx context.Context) ([]*models.CategorySummary, error)
	ListPopularDownloads(ctx context.Context, limit int) ([]*models.Download, error)
	UpdateDownload(ctx context.Context, id int, upd models.DummyDownloadUpdate) (int, error)
	DeactivateDownload(ctx context.Context, id int) (int, error)
	RegisterDownload(ctx context.Context, downloadID int, userUID, version, ip string) (int, error)
	ListDownloadEventsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.DownloadEvent, error)
}

// Gate описывает контракт проверки доступа к позиции каталога.
type Gate interface {
	Evaluate(ctx context.Context, userUID string, downloadID int) (*access.Decision, *models.Download, error)
}

// Cache описывает контракт кэша карточек и списка категорий.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

const categoriesCacheKey = "downloads:categories"

// Service реализует операции каталога поверх хранилища и кэша.
type Service struct {
	repo  Repository
	gate  Gate
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, gate Gate, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		gate:  gate,
		cache: cache,
		log:   log,
	}
}

// List возвращает активные позиции каталога с пагинацией.
// Пустая категория означает выборку по всем категориям.
func (s *Service) List(ctx context.Context, category string, limit, offset int) ([]*models.Download, error) {
	return s.repo.ListDownloads(ctx, category, limit, offset)
}

// Fetch возвращает карточку позиции по slug, используя кэш.
func (s *Service) Fetch(ctx context.Context, slug string) (*models.Download, error) {
	var result *models.Download
	cacheKey := fmt.Sprintf("downloads:slug:%s", slug)
	found, err := s.cache.Get(cacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read download from cache", slog.String("key", cacheKey), slog.Any("err", err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.GetDownloadBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDownloadNotFound
		}
		return nil, err
	}

	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache download", slog.String("key", cacheKey), slog.Any("err", err))
	}
	return result, nil
}

// Categories возвращает категории каталога с количеством позиций, используя кэш.
func (s *Service) Categories(ctx context.Context) ([]*models.CategorySummary, error) {
	var result []*models.CategorySummary
	found, err := s.cache.Get(categoriesCacheKey, &result)
	if err != nil {
		s.log.Warn("failed to read categories from cache", slog.Any("err", err))
	}
	if found {
		return result, nil
	}

	result, err = s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(categoriesCacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache categories", slog.Any("err", err))
	}
	return result, nil
}

// Popular возвращает позиции каталога с наибольшим числом скачиваний.
// Порядок меняется после каждого скачивания, поэтому список не кэшируется.
func (s *Service) Popular(ctx context.Context, limit int) ([]*models.Download, error) {
	return s.repo.ListPopularDownloads(ctx, limit)
}

// History возвращает историю скачиваний пользователя с пагинацией.
func (s *Service) History(ctx context.Context, userUID string, limit, offset int) ([]*models.DownloadEvent, error) {
	return s.repo.ListDownloadEventsByUser(ctx, userUID, limit, offset)
}

// Register проверяет доступ и фиксирует скачивание файла. При отказе
// возвращается решение с причиной, сама позиция не возвращается.
func (s *Service) Register(ctx context.Context, userUID string, downloadID int, ip string) (*models.Download, *access.Decision, error) {
	decision, download, err := s.gate.Evaluate(ctx, userUID, downloadID)
	if err != nil {
		return nil, nil, err
	}
	if !decision.Allowed {
		return nil, decision, nil
	}

	if _, err := s.repo.RegisterDownload(ctx, downloadID, userUID, download.Version, ip); err != nil {
		return nil, nil, err
	}
	download.DownloadCount++

	s.log.Info("registered download",
		slog.Int("download_id", downloadID),
		slog.String("user_uid", userUID))

	s.invalidate(fmt.Sprintf("downloads:slug:%s", download.Slug))
	return download, decision, nil
}

// Create добавляет новую позицию каталога.
func (s *Service) Create(ctx context.Context, req models.DummyDownloadCreate) (*models.Download, error) {
	tiers := req.RequiredTiers
	if tiers == nil {
		tiers = []string{}
	}
	download := models.Download{
		Name:          req.Name,
		Slug:          req.Slug,
		Description:   req.Description,
		Category:      req.Category,
		Version:       req.Version,
		FileSize:      req.FileSize,
		FileURL:       req.FileURL,
		ProductType:   req.ProductType,
		RequiredRole:  models.Role(req.RequiredRole),
		RequiredTiers: tiers,
		IsActive:      true,
	}

	id, err := s.repo.CreateDownload(ctx, download)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	download.ID = id

	s.log.Info("created download", slog.Int("id", id), slog.String("slug", req.Slug))

	s.invalidate(categoriesCacheKey)
	return &download, nil
}

// Update частично обновляет позицию каталога и возвращает её новое состояние.
func (s *Service) Update(ctx context.Context, id int, req models.DummyDownloadUpdate) (*models.Download, error) {
	existing, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.UpdateDownload(ctx, id, req); err != nil {
		return nil, err
	}

	s.log.Info("updated download", slog.Int("id", id))

	s.invalidate(fmt.Sprintf("downloads:slug:%s", existing.Slug))
	s.invalidate(categoriesCacheKey)
	return s.getByID(ctx, id)
}

// Deactivate скрывает позицию каталога. История скачиваний сохраняется.
func (s *Service) Deactivate(ctx context.Context, id int) error {
	existing, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := s.repo.DeactivateDownload(ctx, id); err != nil {
		return err
	}

	s.log.Info("deactivated download", slog.Int("id", id))

	s.invalidate(fmt.Sprintf("downloads:slug:%s", existing.Slug))
	s.invalidate(categoriesCacheKey)
	return nil
}

func (s *Service) getByID(ctx context.Context, id int) (*models.Download, error) {
	download, err := s.repo.GetDownloadByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDownloadNotFound
		}
		return nil, err
	}
	return download, nil
}

func (s *Service) invalidate(key string) {
	if err := s.cache.Invalidate(key); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", key), slog.Any("err", err))
	}
}
