package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTMaker_GenerateAndParseToken_ValidCases(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	accessTTL := 15 * time.Minute
	refreshTTL := 720 * time.Hour
	maker := NewJWTMaker(secretKey, accessTTL, refreshTTL)

	tests := []struct {
		name     string
		username string
		role     string
		userUID  string
	}{
		{
			name:     "admin user",
			username: "admin_user",
			role:     "admin",
			userUID:  "11111111-1111-4111-8111-111111111111",
		},
		{
			name:     "regular user",
			username: "regular_user",
			role:     "user",
			userUID:  "22222222-2222-4222-8222-222222222222",
		},
		{
			name:     "premium user",
			username: "premium_user",
			role:     "premium",
			userUID:  "33333333-3333-4333-8333-333333333333",
		},
		{
			name:     "user with numbers in username",
			username: "user123",
			role:     "admin",
			userUID:  "44444444-4444-4444-8444-444444444444",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := maker.GenerateToken(tt.username, tt.role, tt.userUID)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			claims, err := maker.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.username, claims.Username)
			assert.Equal(t, tt.role, claims.Role)
			assert.Equal(t, tt.userUID, claims.UserUID)
			assert.Equal(t, TokenTypeAccess, claims.TokenType)
			assert.NotEmpty(t, claims.ID)
			assert.WithinDuration(t, time.Now(), claims.IssuedAt.Time, time.Second)
			assert.WithinDuration(t, time.Now().Add(accessTTL), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTMaker_GenerateRefreshToken(t *testing.T) {
	secretKey := "test_secret_key_1234567890"
	accessTTL := 15 * time.Minute
	refreshTTL := 720 * time.Hour
	maker := NewJWTMaker(secretKey, accessTTL, refreshTTL)

	token, err := maker.GenerateRefreshToken("buyer", "user", "55555555-5555-4555-8555-555555555555")
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)

	assert.Equal(t, TokenTypeRefresh, claims.TokenType)
	assert.WithinDuration(t, time.Now().Add(refreshTTL), claims.ExpiresAt.Time, time.Second)
}

func TestJWTMaker_UniqueTokenIDs(t *testing.T) {
	maker := NewJWTMaker("test_secret_key_1234567890", 15*time.Minute, 720*time.Hour)

	first, err := maker.GenerateToken("buyer", "user", "55555555-5555-4555-8555-555555555555")
	require.NoError(t, err)
	second, err := maker.GenerateToken("buyer", "user", "55555555-5555-4555-8555-555555555555")
	require.NoError(t, err)

	firstClaims, err := maker.ParseToken(first)
	require.NoError(t, err)
	secondClaims, err := maker.ParseToken(second)
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.ID, secondClaims.ID)
}

func TestJWTMaker_ParseToken_InvalidTokens(t *testing.T) {
	maker := NewJWTMaker("test_secret_key_1234567890", 15*time.Minute, 720*time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{
			name:  "empty token",
			token: "",
		},
		{
			name:  "garbage token",
			token: "not.a.token",
		},
		{
			name:  "token signed with another key",
			token: mustGenerateWithKey(t, "another_secret_key_0987654321"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := maker.ParseToken(tt.token)
			require.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTMaker_ParseToken_ExpiredToken(t *testing.T) {
	maker := NewJWTMaker("test_secret_key_1234567890", -time.Minute, 720*time.Hour)

	token, err := maker.GenerateToken("buyer", "user", "55555555-5555-4555-8555-555555555555")
	require.NoError(t, err)

	claims, err := maker.ParseToken(token)
	require.Error(t, err)
	assert.Nil(t, claims)
}

func mustGenerateWithKey(t *testing.T, key string) string {
	t.Helper()
	other := NewJWTMaker(key, 15*time.Minute, 720*time.Hour)
	token, err := other.GenerateToken("buyer", "user", "55555555-5555-4555-8555-555555555555")
	require.NoError(t, err)
	return token
}
