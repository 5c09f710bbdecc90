package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiryForTier(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tier    string
		want    time.Time
		wantErr bool
	}{
		{
			name: "Пробный период на 7 дней",
			tier: TierTrial,
			want: now.AddDate(0, 0, 7),
		},
		{
			name: "Месячный тариф на 30 дней",
			tier: TierMonthly,
			want: now.AddDate(0, 0, 30),
		},
		{
			name: "Годовой тариф на 365 дней",
			tier: TierYearly,
			want: now.AddDate(0, 0, 365),
		},
		{
			name: "Пожизненный тариф с фиксированной датой",
			tier: TierLifetime,
			want: time.Date(2099, time.December, 31, 23, 59, 59, 0, time.UTC),
		},
		{
			name:    "Неизвестный тариф",
			tier:    "weekly",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpiryForTier(tt.tier, now)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLicense_IsValid(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		license License
		want    bool
	}{
		{
			name: "Активная лицензия до даты окончания",
			license: License{
				Status:    LicenseStatusActive,
				ExpiresAt: now.AddDate(0, 1, 0),
			},
			want: true,
		},
		{
			name: "Активная лицензия с прошедшей датой",
			license: License{
				Status:    LicenseStatusActive,
				ExpiresAt: now.AddDate(0, 0, -1),
			},
			want: false,
		},
		{
			name: "Отозванная лицензия с будущей датой",
			license: License{
				Status:    LicenseStatusRevoked,
				ExpiresAt: now.AddDate(0, 1, 0),
			},
			want: false,
		},
		{
			name: "Приостановленная лицензия",
			license: License{
				Status:    LicenseStatusSuspended,
				ExpiresAt: now.AddDate(0, 1, 0),
			},
			want: false,
		},
		{
			name: "Дата окончания равна текущему моменту",
			license: License{
				Status:    LicenseStatusActive,
				ExpiresAt: now,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.license.IsValid(now))
		})
	}
}

func TestLicense_UsageExceeded(t *testing.T) {
	limit := 3

	tests := []struct {
		name    string
		license License
		want    bool
	}{
		{
			name:    "Без лимита использований",
			license: License{UsageCount: 1000},
			want:    false,
		},
		{
			name:    "Лимит не достигнут",
			license: License{UsageCount: 2, MaxUsage: &limit},
			want:    false,
		},
		{
			name:    "Лимит достигнут",
			license: License{UsageCount: 3, MaxUsage: &limit},
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.license.UsageExceeded())
		})
	}
}

func TestLicense_DaysRemaining(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

	l := License{ExpiresAt: now.AddDate(0, 0, 10)}
	assert.Equal(t, 10, l.DaysRemaining(now))

	expired := License{ExpiresAt: now.AddDate(0, 0, -5)}
	assert.Equal(t, 0, expired.DaysRemaining(now))
}

func TestDefaultFeatures(t *testing.T) {
	names := func(features []Feature) []string {
		out := make([]string, 0, len(features))
		for _, f := range features {
			out = append(out, f.Name)
		}
		return out
	}

	tests := []struct {
		name        string
		productType string
		tier        string
		want        []string
	}{
		{
			name:        "Пробный тариф без приоритетной поддержки",
			productType: ProductSelfbot,
			tier:        TierTrial,
			want:        []string{"autoresponder", "status_rotation"},
		},
		{
			name:        "Месячный тариф с приоритетной поддержкой",
			productType: ProductTool,
			tier:        TierMonthly,
			want:        []string{"bulk_actions", "priority_support"},
		},
		{
			name:        "Пожизненный тариф с безлимитом",
			productType: ProductAPI,
			tier:        TierLifetime,
			want:        []string{"api_requests", "priority_support", "unlimited_usage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(DefaultFeatures(tt.productType, tt.tier)))
		})
	}
}

func TestLicense_HasFeature(t *testing.T) {
	l := License{
		Features: []Feature{
			{Name: "auto_reply", Enabled: true},
			{Name: "priority_queue", Enabled: false},
		},
	}

	assert.True(t, l.HasFeature("auto_reply"))
	assert.False(t, l.HasFeature("priority_queue"))
	assert.False(t, l.HasFeature("unknown"))
}

func TestUser_Anonymize(t *testing.T) {
	now := time.Now()
	u := User{
		UID:          "3f2a1b9c-0000-4000-8000-000000000000",
		Username:     "buyer",
		Email:        "buyer@example.com",
		DiscordID:    "123456789012345678",
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		IsActive:     true,
	}

	u.Anonymize(now)

	assert.Equal(t, "deleted_3f2a1b9c", u.Username)
	assert.Equal(t, "deleted_3f2a1b9c@deleted.local", u.Email)
	assert.Equal(t, "deleted_3f2a1b9c", u.DiscordID)
	assert.Empty(t, u.PasswordHash)
	assert.False(t, u.IsActive)
	assert.Equal(t, SubscriptionCanceled, u.Subscription.Status)
}
