package paymentprovider

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// VerifySignature проверяет подпись webhook-уведомления из заголовка
// X-Api-Signature: HMAC-SHA256 от тела запроса на общем секрете
// в base64. Сравнение выполняется за постоянное время.
func VerifySignature(body []byte, signature, secret string) bool {
	return hmac.Equal([]byte(Sign(body, secret)), []byte(signature))
}

// Sign возвращает подпись тела запроса на общем секрете.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
