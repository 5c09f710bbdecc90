package download

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/services/access"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateDownload(ctx context.Context, download models.Download) (int, error) {
	args := m.Called(ctx, download)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) GetDownloadBySlug(ctx context.Context, slug string) (*models.Download, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Download), args.Error(1)
}

func (m *RepoMock) GetDownloadByID(ctx context.Context, id int) (*models.Download, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Download), args.Error(1)
}

func (m *RepoMock) ListDownloads(ctx context.Context, category string, limit, offset int) ([]*models.Download, error) {
	args := m.Called(ctx, category, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Download), args.Error(1)
}

func (m *RepoMock) ListCategories(ctx context.Context) ([]*models.CategorySummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CategorySummary), args.Error(1)
}

func (m *RepoMock) ListPopularDownloads(ctx context.Context, limit int) ([]*models.Download, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Download), args.Error(1)
}

func (m *RepoMock) UpdateDownload(ctx context.Context, id int, upd models.DummyDownloadUpdate) (int, error) {
	args := m.Called(ctx, id, upd)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) DeactivateDownload(ctx context.Context, id int) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) RegisterDownload(ctx context.Context, downloadID int, userUID, version, ip string) (int, error) {
	args := m.Called(ctx, downloadID, userUID, version, ip)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListDownloadEventsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.DownloadEvent, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DownloadEvent), args.Error(1)
}

type GateMock struct{ mock.Mock }

func (m *GateMock) Evaluate(ctx context.Context, userUID string, downloadID int) (*access.Decision, *models.Download, error) {
	args := m.Called(ctx, userUID, downloadID)
	var decision *access.Decision
	var download *models.Download
	if args.Get(0) != nil {
		decision = args.Get(0).(*access.Decision)
	}
	if args.Get(1) != nil {
		download = args.Get(1).(*models.Download)
	}
	return decision, download, args.Error(2)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	return m.Called(key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	return m.Called(key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

// notFoundErr имитирует обёрнутую ошибку хранилища для отсутствующей записи.
func notFoundErr() error {
	return fmt.Errorf("storage.GetDownload: %w", sql.ErrNoRows)
}

const userUID = "11111111-2222-3333-4444-555555555555"

func catalogEntry() *models.Download {
	return &models.Download{
		ID:            7,
		Name:          "Shadow Selfbot Build",
		Slug:          "shadow-selfbot",
		Category:      "selfbots",
		Version:       "2.4.1",
		FileURL:       "https://files.example.com/shadow-selfbot-2.4.1.zip",
		ProductType:   models.ProductSelfbot,
		RequiredRole:  models.RoleUser,
		RequiredTiers: []string{models.TierMonthly},
		DownloadCount: 10,
		IsActive:      true,
	}
}

func TestService_Fetch(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(repo *RepoMock, cache *CacheMock)
		wantErr    error
	}{
		{
			name: "cache hit skips repository",
			setupMocks: func(_ *RepoMock, cache *CacheMock) {
				cache.On("Get", "downloads:slug:shadow-selfbot", mock.Anything).
					Run(func(args mock.Arguments) {
						ptr := args.Get(1).(**models.Download)
						*ptr = catalogEntry()
					}).Return(true, nil).Once()
			},
		},
		{
			name: "cache miss reads repository and fills cache",
			setupMocks: func(repo *RepoMock, cache *CacheMock) {
				cache.On("Get", "downloads:slug:shadow-selfbot", mock.Anything).Return(false, nil).Once()
				repo.On("GetDownloadBySlug", mock.Anything, "shadow-selfbot").Return(catalogEntry(), nil).Once()
				cache.On("Set", "downloads:slug:shadow-selfbot", mock.Anything, time.Hour).Return(nil).Once()
			},
		},
		{
			name: "unknown slug",
			setupMocks: func(repo *RepoMock, cache *CacheMock) {
				cache.On("Get", "downloads:slug:shadow-selfbot", mock.Anything).Return(false, nil).Once()
				repo.On("GetDownloadBySlug", mock.Anything, "shadow-selfbot").Return(nil, notFoundErr()).Once()
			},
			wantErr: ErrDownloadNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gate := new(GateMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := New(repo, gate, cache, newNoopLogger())

			got, err := svc.Fetch(context.Background(), "shadow-selfbot")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "shadow-selfbot", got.Slug)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(repo *RepoMock, gate *GateMock, cache *CacheMock)
		wantAllowed bool
		wantErr     bool
	}{
		{
			name: "allowed download is registered",
			setupMocks: func(repo *RepoMock, gate *GateMock, cache *CacheMock) {
				gate.On("Evaluate", mock.Anything, userUID, 7).
					Return(&access.Decision{Allowed: true}, catalogEntry(), nil).Once()
				repo.On("RegisterDownload", mock.Anything, 7, userUID, "2.4.1", "10.0.0.1").
					Return(101, nil).Once()
				cache.On("Invalidate", "downloads:slug:shadow-selfbot").Return(nil).Once()
			},
			wantAllowed: true,
		},
		{
			name: "denied download is not registered",
			setupMocks: func(_ *RepoMock, gate *GateMock, _ *CacheMock) {
				gate.On("Evaluate", mock.Anything, userUID, 7).
					Return(&access.Decision{Allowed: false, Reason: access.ReasonLicenseRequired}, catalogEntry(), nil).Once()
				// RegisterDownload не вызывается при отказе
			},
			wantAllowed: false,
		},
		{
			name: "gate error",
			setupMocks: func(_ *RepoMock, gate *GateMock, _ *CacheMock) {
				gate.On("Evaluate", mock.Anything, userUID, 7).
					Return(nil, nil, errors.New("db error")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gate := new(GateMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, gate, cache)
			svc := New(repo, gate, cache, newNoopLogger())

			download, decision, err := svc.Register(context.Background(), userUID, 7, "10.0.0.1")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantAllowed, decision.Allowed)
				if tt.wantAllowed {
					assert.Equal(t, 11, download.DownloadCount)
				} else {
					assert.Nil(t, download)
				}
			}

			repo.AssertExpectations(t)
			gate.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestService_Create(t *testing.T) {
	req := models.DummyDownloadCreate{
		Name:         "Shadow Selfbot Build",
		Slug:         "shadow-selfbot",
		Category:     "selfbots",
		Version:      "2.4.1",
		FileURL:      "https://files.example.com/shadow-selfbot-2.4.1.zip",
		ProductType:  models.ProductSelfbot,
		RequiredRole: "premium",
	}

	repo := new(RepoMock)
	gate := new(GateMock)
	cache := new(CacheMock)
	repo.On("CreateDownload", mock.Anything, mock.MatchedBy(func(d models.Download) bool {
		return d.IsActive &&
			d.RequiredRole == models.RolePremium &&
			d.RequiredTiers != nil && len(d.RequiredTiers) == 0
	})).Return(9, nil).Once()
	cache.On("Invalidate", categoriesCacheKey).Return(nil).Once()

	svc := New(repo, gate, cache, newNoopLogger())
	got, err := svc.Create(context.Background(), req)

	assert.NoError(t, err)
	assert.Equal(t, 9, got.ID)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestService_Create_SlugTaken(t *testing.T) {
	repo := new(RepoMock)
	gate := new(GateMock)
	cache := new(CacheMock)
	repo.On("CreateDownload", mock.Anything, mock.Anything).
		Return(0, errors.New(`pq: duplicate key value violates unique constraint "downloads_slug_key"`)).Once()

	svc := New(repo, gate, cache, newNoopLogger())
	_, err := svc.Create(context.Background(), models.DummyDownloadCreate{
		Name:         "Shadow Selfbot Build",
		Slug:         "shadow-selfbot",
		Category:     "selfbots",
		Version:      "2.4.1",
		FileURL:      "https://files.example.com/shadow-selfbot-2.4.1.zip",
		ProductType:  models.ProductSelfbot,
		RequiredRole: "premium",
	})

	assert.ErrorIs(t, err, ErrSlugTaken)
	repo.AssertExpectations(t)
}

func TestService_Deactivate(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(repo *RepoMock, cache *CacheMock)
		wantErr    error
	}{
		{
			name: "success",
			setupMocks: func(repo *RepoMock, cache *CacheMock) {
				repo.On("GetDownloadByID", mock.Anything, 7).Return(catalogEntry(), nil).Once()
				repo.On("DeactivateDownload", mock.Anything, 7).Return(1, nil).Once()
				cache.On("Invalidate", "downloads:slug:shadow-selfbot").Return(nil).Once()
				cache.On("Invalidate", categoriesCacheKey).Return(nil).Once()
			},
		},
		{
			name: "unknown id",
			setupMocks: func(repo *RepoMock, _ *CacheMock) {
				repo.On("GetDownloadByID", mock.Anything, 7).Return(nil, notFoundErr()).Once()
			},
			wantErr: ErrDownloadNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			gate := new(GateMock)
			cache := new(CacheMock)
			tt.setupMocks(repo, cache)
			svc := New(repo, gate, cache, newNoopLogger())

			err := svc.Deactivate(context.Background(), 7)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}
