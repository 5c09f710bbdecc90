package repository

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-storefront/internal/models"
)

func TestStorage_RegisterUser_GetUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	user := models.User{
		Username:     "buyer",
		Email:        "buyer@example.com",
		DiscordID:    "123456789012345678",
		PasswordHash: "hashedpassword",
		Role:         models.RoleUser,
		Subscription: models.Subscription{Status: models.SubscriptionNone},
	}

	uid, err := storage.RegisterUser(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, uid)

	got, err := storage.GetUser(context.Background(), uid)
	require.NoError(t, err)
	assert.Equal(t, "buyer", got.Username)
	assert.Equal(t, "buyer@example.com", got.Email)
	assert.Equal(t, models.RoleUser, got.Role)
	assert.True(t, got.IsActive)
	assert.Equal(t, models.SubscriptionNone, got.Subscription.Status)

	byName, err := storage.GetUserByUsername(context.Background(), "buyer")
	require.NoError(t, err)
	assert.Equal(t, uid, byName.UID)

	byDiscord, err := storage.GetUserByDiscordID(context.Background(), "123456789012345678")
	require.NoError(t, err)
	assert.Equal(t, uid, byDiscord.UID)
}

func TestStorage_CreateLicense_GetLicenseByKey(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userData := GetTestUserData()
	factory.CreateUser(t, userData.UID, userData.Username, userData.Email, userData.DiscordID,
		userData.PasswordHash, userData.Role)

	maxUsage := 100
	license := models.License{
		LicenseKey:  "R7PQM-2XKJD",
		UserUID:     userData.UID,
		ProductName: "nebula",
		ProductType: models.ProductSelfbot,
		Tier:        models.TierMonthly,
		Status:      models.LicenseStatusActive,
		ActivatedAt: time.Now(),
		ExpiresAt:   time.Now().AddDate(0, 0, 30),
		MaxUsage:    &maxUsage,
		Features: []models.Feature{
			{Name: "auto_reply", Enabled: true},
		},
		Restrictions: models.Restrictions{
			ServerIDs:   []string{"111111111111111111"},
			MaxSessions: 2,
		},
	}

	id, err := storage.CreateLicense(context.Background(), license)
	require.NoError(t, err)
	assert.Greater(t, id, 0)

	got, err := storage.GetLicenseByKey(context.Background(), "R7PQM-2XKJD")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, userData.UID, got.UserUID)
	assert.Equal(t, models.TierMonthly, got.Tier)
	require.NotNil(t, got.MaxUsage)
	assert.Equal(t, 100, *got.MaxUsage)
	require.Len(t, got.Features, 1)
	assert.Equal(t, "auto_reply", got.Features[0].Name)
	assert.Equal(t, []string{"111111111111111111"}, got.Restrictions.ServerIDs)
	assert.Equal(t, 2, got.Restrictions.MaxSessions)
}

func TestStorage_RecordLicenseUsage_RespectsLimit(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)
	userData := GetTestUserData()
	factory.CreateUser(t, userData.UID, userData.Username, userData.Email, userData.DiscordID,
		userData.PasswordHash, userData.Role)
	factory.CreateLicenseWithLimit(t, "AAAAA-BBBBB", userData.UID, "nebula", "selfbot", "monthly",
		time.Now().AddDate(0, 0, 30), 2)

	for i := 1; i <= 2; i++ {
		affected, err := storage.RecordLicenseUsage(context.Background(), "AAAAA-BBBBB")
		require.NoError(t, err)
		assert.Equal(t, 1, affected, "usage %d should be recorded", i)
	}
	verification.VerifyLicenseUsageCount(t, "AAAAA-BBBBB", 2)

	// Лимит исчерпан, третье использование не записывается
	affected, err := storage.RecordLicenseUsage(context.Background(), "AAAAA-BBBBB")
	require.NoError(t, err)
	assert.Equal(t, 0, affected)
	verification.VerifyLicenseUsageCount(t, "AAAAA-BBBBB", 2)
}

func TestStorage_LicenseLifecycle(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)
	userData := GetTestUserData()
	factory.CreateUser(t, userData.UID, userData.Username, userData.Email, userData.DiscordID,
		userData.PasswordHash, userData.Role)

	tests := []struct {
		name  string
		setup func(t *testing.T) string
		check func(t *testing.T, licenseKey string)
	}{
		{
			name: "продление сдвигает дату окончания",
			setup: func(t *testing.T) string {
				factory.CreateLicense(t, "EXTEN-DABLE", userData.UID, "nebula", "selfbot", "monthly",
					"active", time.Now().AddDate(0, 0, 10))
				return "EXTEN-DABLE"
			},
			check: func(t *testing.T, licenseKey string) {
				before, err := storage.GetLicenseByKey(context.Background(), licenseKey)
				require.NoError(t, err)

				affected, err := storage.ExtendLicense(context.Background(), licenseKey, 30)
				require.NoError(t, err)
				assert.Equal(t, 1, affected)

				after, err := storage.GetLicenseByKey(context.Background(), licenseKey)
				require.NoError(t, err)
				assert.WithinDuration(t, before.ExpiresAt.AddDate(0, 0, 30), after.ExpiresAt, time.Second)
			},
		},
		{
			name: "отзыв сохраняет причину",
			setup: func(t *testing.T) string {
				factory.CreateLicense(t, "REVOK-EABLE", userData.UID, "nebula", "selfbot", "monthly",
					"active", time.Now().AddDate(0, 0, 10))
				return "REVOK-EABLE"
			},
			check: func(t *testing.T, licenseKey string) {
				affected, err := storage.RevokeLicense(context.Background(), licenseKey, "chargeback")
				require.NoError(t, err)
				assert.Equal(t, 1, affected)

				got, err := storage.GetLicenseByKey(context.Background(), licenseKey)
				require.NoError(t, err)
				assert.Equal(t, models.LicenseStatusRevoked, got.Status)
				require.NotNil(t, got.RevokeReason)
				assert.Equal(t, "chargeback", *got.RevokeReason)
			},
		},
		{
			name: "отозванная лицензия не продлевается",
			setup: func(t *testing.T) string {
				factory.CreateLicense(t, "DEADL-ICENS", userData.UID, "nebula", "selfbot", "monthly",
					"revoked", time.Now().AddDate(0, 0, 10))
				return "DEADL-ICENS"
			},
			check: func(t *testing.T, licenseKey string) {
				affected, err := storage.ExtendLicense(context.Background(), licenseKey, 30)
				require.NoError(t, err)
				assert.Equal(t, 0, affected)
				verification.VerifyLicenseStatus(t, licenseKey, "revoked")
			},
		},
		{
			name: "активация не трогает отозванную лицензию",
			setup: func(t *testing.T) string {
				factory.CreateLicense(t, "NOACT-IVATE", userData.UID, "nebula", "selfbot", "monthly",
					"revoked", time.Now().AddDate(0, 0, 10))
				return "NOACT-IVATE"
			},
			check: func(t *testing.T, licenseKey string) {
				affected, err := storage.ActivateLicense(context.Background(), licenseKey)
				require.NoError(t, err)
				assert.Equal(t, 0, affected)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			licenseKey := tt.setup(t)
			tt.check(t, licenseKey)
		})
	}
}

func TestStorage_ListValidLicensesByUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	userData := GetTestUserData()
	factory.CreateUser(t, userData.UID, userData.Username, userData.Email, userData.DiscordID,
		userData.PasswordHash, userData.Role)

	factory.CreateLicense(t, "VALID-00001", userData.UID, "nebula", "selfbot", "monthly",
		"active", time.Now().AddDate(0, 0, 30))
	factory.CreateLicense(t, "EXPIR-00001", userData.UID, "nebula", "selfbot", "monthly",
		"active", time.Now().AddDate(0, 0, -1))
	factory.CreateLicense(t, "REVOK-00001", userData.UID, "nebula", "selfbot", "monthly",
		"revoked", time.Now().AddDate(0, 0, 30))

	got, err := storage.ListValidLicensesByUser(context.Background(), userData.UID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "VALID-00001", got[0].LicenseKey)
}

func TestStorage_MarkExpiredLicenses(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)
	userData := GetTestUserData()
	factory.CreateUser(t, userData.UID, userData.Username, userData.Email, userData.DiscordID,
		userData.PasswordHash, userData.Role)

	factory.CreateLicense(t, "STALE-00001", userData.UID, "nebula", "selfbot", "monthly",
		"active", time.Now().AddDate(0, 0, -2))
	factory.CreateLicense(t, "FRESH-00001", userData.UID, "nebula", "selfbot", "monthly",
		"active", time.Now().AddDate(0, 0, 30))

	count, err := storage.MarkExpiredLicenses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	verification.VerifyLicenseStatus(t, "STALE-00001", "expired")
	verification.VerifyLicenseStatus(t, "FRESH-00001", "active")
}

func TestStorage_RegisterDownload(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)
	userData := GetTestUserData()
	factory.CreateUser(t, userData.UID, userData.Username, userData.Email, userData.DiscordID,
		userData.PasswordHash, userData.Role)
	downloadID := factory.CreateDownload(t, "Nebula Selfbot", "nebula-selfbot", "selfbots",
		"selfbot", "user", `["monthly","yearly","lifetime"]`)

	eventID, err := storage.RegisterDownload(context.Background(), downloadID, userData.UID, "1.0.0", "203.0.113.7")
	require.NoError(t, err)
	assert.Greater(t, eventID, 0)

	verification.VerifyDownloadCount(t, downloadID, 1)

	user, err := storage.GetUser(context.Background(), userData.UID)
	require.NoError(t, err)
	assert.Equal(t, 1, user.Stats.DownloadCount)

	events, err := storage.ListDownloadEventsByUser(context.Background(), userData.UID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, downloadID, events[0].DownloadID)
	assert.Equal(t, "203.0.113.7", events[0].IP)
}

func TestStorage_ConfirmPayment(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	verification := NewTestVerification(storage)
	userData := GetTestUserData()
	factory.CreateUser(t, userData.UID, userData.Username, userData.Email, userData.DiscordID,
		userData.PasswordHash, userData.Role)

	paymentID := uuid.New().String()
	factory.CreatePayment(t, paymentID, userData.UID, 49900, "pending", "nebula", "selfbot", "monthly")

	license := models.License{
		LicenseKey:  "PAYED-00001",
		UserUID:     userData.UID,
		ProductName: "nebula",
		ProductType: models.ProductSelfbot,
		Tier:        models.TierMonthly,
		Status:      models.LicenseStatusActive,
		ActivatedAt: time.Now(),
		ExpiresAt:   time.Now().AddDate(0, 0, 30),
	}

	issued, err := storage.ConfirmPayment(context.Background(), paymentID, license)
	require.NoError(t, err)
	require.NotNil(t, issued)
	assert.Greater(t, issued.ID, 0)

	verification.VerifyPaymentStatus(t, paymentID, "succeeded")
	verification.VerifyLicenseStatus(t, "PAYED-00001", "active")
	verification.VerifyUserTotalSpent(t, userData.UID, 49900)

	user, err := storage.GetUser(context.Background(), userData.UID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionActive, user.Subscription.Status)
	assert.Equal(t, models.TierMonthly, user.Subscription.Plan)

	// Повторное уведомление не создает вторую лицензию и не удваивает траты
	again, err := storage.ConfirmPayment(context.Background(), paymentID, license)
	require.NoError(t, err)
	assert.Equal(t, issued.ID, again.ID)
	verification.VerifyUserTotalSpent(t, userData.UID, 49900)

	var licenseCount int
	err = storage.DB.QueryRow("SELECT COUNT(*) FROM licenses WHERE user_uid = $1", userData.UID).Scan(&licenseCount)
	require.NoError(t, err)
	assert.Equal(t, 1, licenseCount)
}

func TestStorage_ListUsers_Pagination(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()

	factory := NewTestDataFactory(storage)
	for i := 0; i < 5; i++ {
		uid := uuid.New().String()
		factory.CreateUser(t, uid, "user"+strconv.Itoa(i), "user"+strconv.Itoa(i)+"@example.com",
			"10000000000000000"+strconv.Itoa(i), "hashedpassword", "user")
	}

	page, err := storage.ListUsers(context.Background(), 3, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)

	rest, err := storage.ListUsers(context.Background(), 3, 3)
	require.NoError(t, err)
	assert.Len(t, rest, 2)
}
