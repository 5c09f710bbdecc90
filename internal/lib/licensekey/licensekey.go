// Package licensekey реализует генерацию и проверку формата лицензионных ключей.
//
// Generate создает новый ключ из двух групп по пять символов, например R7PQM-2XKJD.
// IsWellFormed проверяет, что строка соответствует формату ключа.
package licensekey

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Алфавит ключа: латиница и цифры без похожих символов 0, 1, 8 и 9.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

const (
	segmentLen = 5
	segments   = 2
)

// Generate возвращает новый лицензионный ключ формата XXXXX-XXXXX.
//
// Символы берутся из криптографически стойкого источника случайности.
func Generate() (string, error) {
	const op = "licensekey.Generate"

	buf := make([]byte, segmentLen*segments)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var sb strings.Builder
	for i, b := range buf {
		if i > 0 && i%segmentLen == 0 {
			sb.WriteByte('-')
		}
		// Длина алфавита равна 32, поэтому остаток от деления не даёт перекоса.
		sb.WriteByte(alphabet[int(b)%len(alphabet)])
	}
	return sb.String(), nil
}

// IsWellFormed проверяет, что строка имеет формат лицензионного ключа:
// две группы по пять символов алфавита, разделённые дефисом.
func IsWellFormed(key string) bool {
	parts := strings.Split(key, "-")
	if len(parts) != segments {
		return false
	}
	for _, part := range parts {
		if len(part) != segmentLen {
			return false
		}
		for i := 0; i < len(part); i++ {
			if !strings.ContainsRune(alphabet, rune(part[i])) {
				return false
			}
		}
	}
	return true
}
