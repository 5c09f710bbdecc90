// Package models содержит доменные структуры витрины лицензий:
// пользователей, лицензии, файлы каталога и платежи,
// а также вспомогательные типы для приёма данных из JSON-запросов.
package models

import "fmt"

// Role представляет роль пользователя с полным порядком привилегий:
// user < premium < admin. Сравнение рангов — основная операция
// при проверке минимальной роли.
type Role string

const (
	// RoleUser — обычный пользователь, роль по умолчанию при регистрации.
	RoleUser Role = "user"
	// RolePremium — пользователь с расширенным доступом к каталогу.
	RolePremium Role = "premium"
	// RoleAdmin — администратор, доступ к admin-маршрутам.
	RoleAdmin Role = "admin"
)

// roleRanks задаёт полный порядок ролей. Не использовать напрямую,
// сравнивать через Rank и AtLeast.
var roleRanks = map[Role]int{
	RoleUser:    0,
	RolePremium: 1,
	RoleAdmin:   2,
}

// Rank возвращает числовой ранг роли. Неизвестная роль имеет ранг -1
// и проигрывает любой корректной роли.
func (r Role) Rank() int {
	rank, ok := roleRanks[r]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast сообщает, достаточно ли привилегий роли r для минимальной роли other.
func (r Role) AtLeast(other Role) bool {
	return r.Rank() >= other.Rank()
}

// IsValid проверяет, что роль входит в список известных.
func (r Role) IsValid() bool {
	_, ok := roleRanks[r]
	return ok
}

func (r Role) String() string {
	return string(r)
}

// ParseRole преобразует строку в Role или возвращает ошибку для неизвестной роли.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.IsValid() {
		return "", fmt.Errorf("unknown role: %q", s)
	}
	return role, nil
}
