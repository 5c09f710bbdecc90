// Package smtp реализует почтовый транспорт воркера уведомлений
// поверх net/smtp со STARTTLS.
package smtp

import "io"

// Client описывает SMTP-сессию отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface описывает транспорт, открывающий SMTP-сессии.
type TransportInterface interface {
	Connect() (Client, error)
	GetFrom() string
}
