// Package jwt реализует генерацию и парсинг JWT токенов с пользовательскими claim полями.
//
// CustomClaims расширяет стандартные claims JWT, добавляя username, роль и uid пользователя.
//
// Методы GenerateToken, GenerateRefreshToken и ParseToken реализуют создание
// и валидацию JWT токена с заданными claims.
package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Типы токенов, хранящиеся в claim token_type.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// CustomClaims описывает пользовательские данные, хранящиеся в JWT.
type CustomClaims struct {
	Username             string `json:"username"`   // Имя пользователя
	Role                 string `json:"role"`       // Роль пользователя
	UserUID              string `json:"user_uid"`   // Уникальный идентификатор пользователя
	TokenType            string `json:"token_type"` // access или refresh
	jwt.RegisteredClaims        // Встроенные стандартные claims JWT (ExpiresAt, IssuedAt, ID и пр.)
}

// GenerateToken создает токен доступа с заданными username, role и userUID,
// подписывая его секретным ключом. Claim ID заполняется уникальным jti,
// по которому токен можно отозвать до истечения срока.
//
// Время жизни токена определяется полем accessTTL.
func (j *MakerImpl) GenerateToken(username, role, userUID string) (string, error) {
	return j.generate(username, role, userUID, TokenTypeAccess, j.accessTTL)
}

// GenerateRefreshToken создает токен обновления с теми же claims,
// но с временем жизни refreshTTL.
func (j *MakerImpl) GenerateRefreshToken(username, role, userUID string) (string, error) {
	return j.generate(username, role, userUID, TokenTypeRefresh, j.refreshTTL)
}

func (j *MakerImpl) generate(username, role, userUID, tokenType string, ttl time.Duration) (string, error) {
	claims := CustomClaims{
		Username:  username,
		Role:      role,
		UserUID:   userUID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет его подпись и валидность,
// возвращает CustomClaims с данными, если токен корректен.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	return claims, nil
}
