// Package middlewarectx содержит HTTP middleware витрины: проверку JWT токенов,
// требование минимальной роли, ограничение частоты запросов по IP и CORS.
//
// Middleware складывают данные аутентифицированного пользователя в контекст
// запроса под ключами User, Role и UserUID для дальнейшего использования
// в обработчиках.
package middlewarectx

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// User — ключ для имени пользователя в контексте
	User Key = "username"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// UserUID — ключ для уникального идентификатора пользователя в контексте
	UserUID Key = "user_uid"
)
