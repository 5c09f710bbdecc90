// Package auth содержит бизнес-логику регистрации, входа и работы
// с парой JWT-токенов: выдачу, ротацию refresh-токена и отзыв.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/lib/jwt"
	"github.com/magabrotheeeer/license-storefront/internal/lib/password"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// Ошибки уровня сервиса, по которым обработчики выбирают HTTP-статус.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	RegisterUser(ctx context.Context, user models.User) (string, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	RecordUserLogin(ctx context.Context, userUID string) error
}

// Cache описывает контракт хранилища refresh-токенов и отозванных jti.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует аутентификацию поверх хранилища, кэша и JWT.
type Service struct {
	users    UserRepository
	cache    Cache
	jwtMaker jwt.Maker
	cfg      config.JWTToken
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, cache Cache, jwtMaker jwt.Maker, cfg config.JWTToken, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		cache:    cache,
		jwtMaker: jwtMaker,
		cfg:      cfg,
		log:      log,
	}
}

// TokenPair - пара токенов, выдаваемая при входе и обновлении.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register создает нового пользователя с ролью user и пробной подпиской
// на тот же срок, что и пробная лицензия. Возвращает UID пользователя.
func (s *Service) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", err
	}

	now := time.Now()
	trialEnd, err := models.ExpiryForTier(models.TierTrial, now)
	if err != nil {
		return "", err
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		DiscordID:    req.DiscordID,
		PasswordHash: hashed,
		Role:         models.RoleUser,
		IsActive:     true,
		Subscription: models.Subscription{
			Plan:      models.TierTrial,
			Status:    models.SubscriptionTrial,
			StartDate: &now,
			EndDate:   &trialEnd,
		},
	}

	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return "", ErrUserExists
		}
		return "", err
	}

	s.log.Info("registered user", slog.String("username", req.Username))
	return uid, nil
}

// Login проверяет учётные данные и выдает пару токенов. В кэше остаётся
// jti refresh-токена: старый refresh перестаёт действовать.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (*TokenPair, *models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.RecordUserLogin(ctx, user.UID); err != nil {
		s.log.Warn("failed to record login", slog.String("user_uid", user.UID), slog.Any("err", err))
	}

	s.log.Info("user logged in", slog.String("username", username))
	return pair, user, nil
}

// Refresh обменивает действующий refresh-токен на новую пару.
// Токен сверяется с сохранённым jti, после обмена старый недействителен.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtMaker.ParseToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidToken
	}

	var storedJTI string
	found, err := s.cache.Get(fmt.Sprintf("refresh:%s", claims.UserUID), &storedJTI)
	if err != nil {
		return nil, err
	}
	if !found || storedJTI != claims.ID {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUserByUsername(ctx, claims.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issuePair(user)
}

// Logout отзывает пару токенов: jti токена доступа попадает в денилист
// до конца его срока жизни, сохранённый refresh-jti удаляется.
func (s *Service) Logout(_ context.Context, claims *jwt.CustomClaims) error {
	if claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if ttl > 0 {
			if err := s.cache.Set(fmt.Sprintf("denylist:%s", claims.ID), true, ttl); err != nil {
				return err
			}
		}
	}
	if err := s.cache.Invalidate(fmt.Sprintf("refresh:%s", claims.UserUID)); err != nil {
		s.log.Warn("failed to drop refresh token", slog.String("user_uid", claims.UserUID), slog.Any("err", err))
	}

	s.log.Info("user logged out", slog.String("username", claims.Username))
	return nil
}

// Me возвращает пользователя по имени из токена.
func (s *Service) Me(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// issuePair выдает пару токенов и запоминает jti refresh-токена.
func (s *Service) issuePair(user *models.User) (*TokenPair, error) {
	access, err := s.jwtMaker.GenerateToken(user.Username, user.Role.String(), user.UID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtMaker.GenerateRefreshToken(user.Username, user.Role.String(), user.UID)
	if err != nil {
		return nil, err
	}

	refreshClaims, err := s.jwtMaker.ParseToken(refresh)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(fmt.Sprintf("refresh:%s", user.UID), refreshClaims.ID, s.cfg.RefreshTokenTTL); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
