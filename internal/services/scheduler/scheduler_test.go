package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindLicensesExpiringIn(ctx context.Context, days int) ([]*models.LicenseExpiryInfo, error) {
	args := m.Called(ctx, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LicenseExpiryInfo), args.Error(1)
}

func (m *MockRepository) MarkExpiredLicenses(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testConfig() config.Scheduler {
	return config.Scheduler{
		CheckInterval:   12 * time.Hour,
		RemindBeforeDay: 3,
	}
}

func expiryInfo(key string, daysLeft int) *models.LicenseExpiryInfo {
	return &models.LicenseExpiryInfo{
		LicenseKey:  key,
		ProductName: "Shadow Selfbot",
		Tier:        models.TierMonthly,
		ExpiresAt:   time.Now().UTC().AddDate(0, 0, daysLeft),
		Username:    "testuser",
		Email:       "test@example.com",
		DiscordID:   "123456789",
		NotifyEmail: true,
		DaysLeft:    daysLeft,
	}
}

func TestService_runNotifyExpiringSoon(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *MockRepository, ch *MockChannel)
	}{
		{
			name: "success - found expiring licenses",
			setupMocks: func(r *MockRepository, ch *MockChannel) {
				r.On("FindLicensesExpiringIn", mock.Anything, 3).
					Return([]*models.LicenseExpiryInfo{expiryInfo("AAAAA-BBBBB", 3)}, nil).Once()
				ch.On("Publish", "notifications", "license.expiring", false, false,
					mock.MatchedBy(func(msg amqp.Publishing) bool {
						return msg.ContentType == "application/json" &&
							strings.Contains(string(msg.Body), "AAAAA-BBBBB")
					})).Return(nil).Once()
			},
		},
		{
			name: "success - no expiring licenses",
			setupMocks: func(r *MockRepository, _ *MockChannel) {
				r.On("FindLicensesExpiringIn", mock.Anything, 3).
					Return([]*models.LicenseExpiryInfo{}, nil).Once()
			},
		},
		{
			name: "repository error",
			setupMocks: func(r *MockRepository, _ *MockChannel) {
				r.On("FindLicensesExpiringIn", mock.Anything, 3).
					Return(nil, errors.New("db error")).Once()
			},
		},
		{
			name: "publish error is logged, remaining messages still published",
			setupMocks: func(r *MockRepository, ch *MockChannel) {
				r.On("FindLicensesExpiringIn", mock.Anything, 3).
					Return([]*models.LicenseExpiryInfo{
						expiryInfo("AAAAA-BBBBB", 3),
						expiryInfo("CCCCC-DDDDD", 3),
					}, nil).Once()
				ch.On("Publish", "notifications", "license.expiring", false, false, mock.Anything).
					Return(errors.New("channel closed")).Once()
				ch.On("Publish", "notifications", "license.expiring", false, false, mock.Anything).
					Return(nil).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			channel := new(MockChannel)
			service := New(repo, testConfig(), newNoopLogger())

			tt.setupMocks(repo, channel)

			// Метод не возвращает ошибку, только логирует.
			service.runNotifyExpiringSoon(context.Background(), channel)

			repo.AssertExpectations(t)
			channel.AssertExpectations(t)
		})
	}
}

func TestService_runNotifyExpiredToday(t *testing.T) {
	repo := new(MockRepository)
	channel := new(MockChannel)
	service := New(repo, testConfig(), newNoopLogger())

	repo.On("FindLicensesExpiringIn", mock.Anything, 0).
		Return([]*models.LicenseExpiryInfo{expiryInfo("AAAAA-BBBBB", 0)}, nil).Once()
	channel.On("Publish", "notifications", "license.expired", false, false, mock.Anything).
		Return(nil).Once()

	service.runNotifyExpiredToday(context.Background(), channel)

	repo.AssertExpectations(t)
	channel.AssertExpectations(t)
}

func TestService_runMarkExpired(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(r *MockRepository)
	}{
		{
			name: "success - licenses marked",
			setupMocks: func(r *MockRepository) {
				r.On("MarkExpiredLicenses", mock.Anything).Return(4, nil).Once()
			},
		},
		{
			name: "repository error",
			setupMocks: func(r *MockRepository) {
				r.On("MarkExpiredLicenses", mock.Anything).Return(0, errors.New("db error")).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			service := New(repo, testConfig(), newNoopLogger())

			tt.setupMocks(repo)

			service.runMarkExpired(context.Background())

			repo.AssertExpectations(t)
		})
	}
}

func TestService_sweep_OrderMatters(t *testing.T) {
	// Уведомления об истекающих сегодня лицензиях публикуются до пометки:
	// после MarkExpiredLicenses выборка по статусу active их уже не вернёт.
	repo := new(MockRepository)
	channel := new(MockChannel)
	service := New(repo, testConfig(), newNoopLogger())

	markCalled := false
	repo.On("FindLicensesExpiringIn", mock.Anything, 0).
		Run(func(_ mock.Arguments) {
			assert.False(t, markCalled, "expired-today lookup must run before marking")
		}).
		Return([]*models.LicenseExpiryInfo{expiryInfo("AAAAA-BBBBB", 0)}, nil).Once()
	repo.On("MarkExpiredLicenses", mock.Anything).
		Run(func(_ mock.Arguments) { markCalled = true }).
		Return(1, nil).Once()
	repo.On("FindLicensesExpiringIn", mock.Anything, 3).
		Return([]*models.LicenseExpiryInfo{}, nil).Once()
	channel.On("Publish", "notifications", "license.expired", false, false, mock.Anything).
		Return(nil).Once()

	service.sweep(context.Background(), channel)

	repo.AssertExpectations(t)
	channel.AssertExpectations(t)
}

func TestService_New(t *testing.T) {
	repo := new(MockRepository)
	logger := newNoopLogger()

	service := New(repo, testConfig(), logger)

	assert.NotNil(t, service)
	assert.Equal(t, 12*time.Hour, service.interval)
	assert.Equal(t, 3, service.remindBefore)
}
