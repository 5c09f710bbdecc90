package dashboard

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) ListLicensesByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.License, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.License), args.Error(1)
}

func (m *RepoMock) ListValidLicensesByUser(ctx context.Context, userUID string) ([]*models.License, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.License), args.Error(1)
}

func (m *RepoMock) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *RepoMock) ListUserActivity(ctx context.Context, userUID string, limit int) ([]*models.ActivityItem, error) {
	args := m.Called(ctx, userUID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityItem), args.Error(1)
}

func (m *RepoMock) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *RepoMock) ListRecentActivity(ctx context.Context, limit int) ([]*models.ActivityItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityItem), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const userUID = "11111111-2222-3333-4444-555555555555"

func intPtr(v int) *int { return &v }

func TestService_Summary(t *testing.T) {
	now := time.Now().UTC()

	repo := new(RepoMock)
	repo.On("GetUser", mock.Anything, userUID).Return(&models.User{
		UID: userUID,
		Stats: models.UserStats{
			DownloadCount: 8,
			TotalSpent:    349800,
		},
		CreatedAt: now.AddDate(-1, 0, 0),
	}, nil).Once()
	repo.On("ListLicensesByUser", mock.Anything, userUID, summaryLicenseLimit, 0).Return([]*models.License{
		{Status: models.LicenseStatusActive, ExpiresAt: now.AddDate(0, 0, 20)},
		{Status: models.LicenseStatusActive, ExpiresAt: now.AddDate(0, 0, -1)}, // просрочена, но ещё не помечена
		{Status: models.LicenseStatusExpired, ExpiresAt: now.AddDate(0, 0, -40)},
		{Status: models.LicenseStatusRevoked, ExpiresAt: now.AddDate(0, 0, 100)},
	}, nil).Once()

	svc := New(repo, newNoopLogger())
	summary, err := svc.Summary(context.Background(), userUID)

	assert.NoError(t, err)
	assert.Equal(t, 2, summary.LicensesByStatus[models.LicenseStatusActive])
	assert.Equal(t, 1, summary.LicensesByStatus[models.LicenseStatusExpired])
	assert.Equal(t, 1, summary.LicensesByStatus[models.LicenseStatusRevoked])
	assert.Equal(t, 1, summary.ValidLicenses)
	assert.Equal(t, 8, summary.DownloadCount)
	assert.Equal(t, int64(349800), summary.TotalSpent)
	repo.AssertExpectations(t)
}

func TestService_Notifications(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		check      func(t *testing.T, notifications []*models.Notification)
	}{
		{
			name: "license expiring within a week",
			setupMocks: func(r *RepoMock) {
				r.On("ListValidLicensesByUser", mock.Anything, userUID).Return([]*models.License{
					{ProductName: "Shadow Selfbot", Tier: models.TierMonthly, Status: models.LicenseStatusActive,
						ExpiresAt: now.AddDate(0, 0, 3)},
				}, nil).Once()
				r.On("ListPaymentsByUser", mock.Anything, userUID, summaryLicenseLimit, 0).
					Return([]*models.Payment{}, nil).Once()
			},
			check: func(t *testing.T, notifications []*models.Notification) {
				assert.Len(t, notifications, 1)
				assert.Equal(t, models.NotificationLicenseExpiring, notifications[0].Type)
				assert.Contains(t, notifications[0].Message, "Shadow Selfbot")
			},
		},
		{
			name: "lifetime license never expires",
			setupMocks: func(r *RepoMock) {
				r.On("ListValidLicensesByUser", mock.Anything, userUID).Return([]*models.License{
					{ProductName: "Shadow Selfbot", Tier: models.TierLifetime, Status: models.LicenseStatusActive,
						ExpiresAt: models.LifetimeExpiry},
				}, nil).Once()
				r.On("ListPaymentsByUser", mock.Anything, userUID, summaryLicenseLimit, 0).
					Return([]*models.Payment{}, nil).Once()
			},
			check: func(t *testing.T, notifications []*models.Notification) {
				assert.Empty(t, notifications)
			},
		},
		{
			name: "usage cap nearly exhausted",
			setupMocks: func(r *RepoMock) {
				r.On("ListValidLicensesByUser", mock.Anything, userUID).Return([]*models.License{
					{ProductName: "Shadow API", Tier: models.TierYearly, Status: models.LicenseStatusActive,
						ExpiresAt: now.AddDate(0, 0, 200), UsageCount: 95, MaxUsage: intPtr(100)},
				}, nil).Once()
				r.On("ListPaymentsByUser", mock.Anything, userUID, summaryLicenseLimit, 0).
					Return([]*models.Payment{}, nil).Once()
			},
			check: func(t *testing.T, notifications []*models.Notification) {
				assert.Len(t, notifications, 1)
				assert.Equal(t, models.NotificationUsageLimit, notifications[0].Type)
				assert.Contains(t, notifications[0].Message, "95 of 100")
			},
		},
		{
			name: "usage far from the cap",
			setupMocks: func(r *RepoMock) {
				r.On("ListValidLicensesByUser", mock.Anything, userUID).Return([]*models.License{
					{ProductName: "Shadow API", Tier: models.TierYearly, Status: models.LicenseStatusActive,
						ExpiresAt: now.AddDate(0, 0, 200), UsageCount: 10, MaxUsage: intPtr(100)},
				}, nil).Once()
				r.On("ListPaymentsByUser", mock.Anything, userUID, summaryLicenseLimit, 0).
					Return([]*models.Payment{}, nil).Once()
			},
			check: func(t *testing.T, notifications []*models.Notification) {
				assert.Empty(t, notifications)
			},
		},
		{
			name: "pending payment",
			setupMocks: func(r *RepoMock) {
				r.On("ListValidLicensesByUser", mock.Anything, userUID).Return([]*models.License{}, nil).Once()
				r.On("ListPaymentsByUser", mock.Anything, userUID, summaryLicenseLimit, 0).Return([]*models.Payment{
					{ProductName: "Shadow Selfbot", Tier: models.TierMonthly, Status: models.PaymentStatusPending},
					{ProductName: "Shadow Selfbot", Tier: models.TierLifetime, Status: models.PaymentStatusSucceeded},
				}, nil).Once()
			},
			check: func(t *testing.T, notifications []*models.Notification) {
				assert.Len(t, notifications, 1)
				assert.Equal(t, models.NotificationPaymentPending, notifications[0].Type)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := New(repo, newNoopLogger())

			notifications, err := svc.Notifications(context.Background(), userUID)

			assert.NoError(t, err)
			tt.check(t, notifications)
			repo.AssertExpectations(t)
		})
	}
}

func TestService_AdminStats(t *testing.T) {
	repo := new(RepoMock)
	repo.On("GetDashboardStats", mock.Anything).Return(&models.DashboardStats{
		TotalUsers:     150,
		ActiveLicenses: 42,
		TotalRevenue:   1049000,
	}, nil).Once()

	svc := New(repo, newNoopLogger())
	stats, err := svc.AdminStats(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 150, stats.TotalUsers)
	assert.Equal(t, int64(1049000), stats.TotalRevenue)
	repo.AssertExpectations(t)
}

func TestService_Activity(t *testing.T) {
	now := time.Now().UTC()

	repo := new(RepoMock)
	repo.On("ListUserActivity", mock.Anything, userUID, 20).Return([]*models.ActivityItem{
		{Type: "download", Username: "testuser", Detail: "Shadow Selfbot v2.4.1", CreatedAt: now},
		{Type: "payment", Username: "testuser", Detail: "Shadow Selfbot (monthly, succeeded)", CreatedAt: now.Add(-time.Hour)},
	}, nil).Once()

	svc := New(repo, newNoopLogger())
	items, err := svc.Activity(context.Background(), userUID, 20)

	assert.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, "download", items[0].Type)
	repo.AssertExpectations(t)
}
