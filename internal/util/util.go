// Package util содержит мелкие вспомогательные функции HTTP-обработчиков.
package util

import (
	"net/url"
	"strconv"
)

// ParseLimitOffset разбирает параметры пагинации limit и offset из строки
// запроса. Некорректные и выходящие за границы значения заменяются
// значениями по умолчанию, опечатка в параметре не превращается в отказ.
func ParseLimitOffset(q url.Values, defaultLimit, maxLimit int) (int, int) {
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}

	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ParseLimit разбирает одиночный параметр limit из строки запроса
// по тем же правилам, что и ParseLimitOffset.
func ParseLimit(q url.Values, defaultLimit, maxLimit int) int {
	limit, _ := ParseLimitOffset(q, defaultLimit, maxLimit)
	return limit
}
