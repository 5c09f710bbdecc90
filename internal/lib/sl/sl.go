// Package sl содержит помощники для структурированных полей slog.
package sl

import "log/slog"

// Err возвращает атрибут с ключом "error" и текстом ошибки.
// Вызов с nil безопасен и даёт пустой текст.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
