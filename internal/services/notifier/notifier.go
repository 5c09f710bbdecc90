// Package notifier реализует воркер уведомлений: потребляет сообщения
// об истекающих и истёкших лицензиях и доставляет их владельцам
// по электронной почте и личным сообщением на чат-платформе,
// учитывая настройки уведомлений пользователя.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/license-storefront/internal/chatplatform"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/license-storefront/internal/lib/smtp"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// Messenger описывает доставку личных сообщений на чат-платформе.
type Messenger interface {
	CreateDMChannel(ctx context.Context, recipientID string) (*chatplatform.Channel, error)
	PostMessage(ctx context.Context, channelID, content string) (*chatplatform.Message, error)
}

// Service реализует доставку уведомлений о лицензиях.
type Service struct {
	transport smtp.TransportInterface
	messenger Messenger
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, messenger Messenger, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		messenger: messenger,
		log:       log,
	}
}

// SendExpiryReminder доставляет напоминание о скором окончании лицензии.
// Ошибка отправки письма возвращает сообщение в очередь; сбой доставки
// на чат-платформе только логируется, чтобы не дублировать письма.
func (s *Service) SendExpiryReminder(ctx context.Context, body []byte) error {
	const op = "services.notifier.SendExpiryReminder"

	var info models.LicenseExpiryInfo
	if err := json.Unmarshal(body, &info); err != nil {
		s.log.Error("failed to unmarshal expiry reminder", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	subject := "Ваша лицензия скоро истечёт"
	text := fmt.Sprintf(`Здравствуйте, %s!

Ваша лицензия %s на продукт %s (тариф %s) истекает через %d дн.

Продлите её в личном кабинете, чтобы не потерять доступ.`,
		info.Username, info.LicenseKey, info.ProductName, info.Tier, info.DaysLeft)
	dm := fmt.Sprintf("Лицензия %s на %s истекает через %d дн. Продлите её в личном кабинете.",
		info.LicenseKey, info.ProductName, info.DaysLeft)

	return s.deliver(ctx, op, &info, subject, text, dm)
}

// SendExpiredNotice доставляет уведомление об истёкшей сегодня лицензии.
func (s *Service) SendExpiredNotice(ctx context.Context, body []byte) error {
	const op = "services.notifier.SendExpiredNotice"

	var info models.LicenseExpiryInfo
	if err := json.Unmarshal(body, &info); err != nil {
		s.log.Error("failed to unmarshal expired notice", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	subject := "Срок действия лицензии истёк"
	text := fmt.Sprintf(`Здравствуйте, %s!

Срок действия вашей лицензии %s на продукт %s (тариф %s) истёк сегодня.

Чтобы восстановить доступ, оформите продление в личном кабинете.`,
		info.Username, info.LicenseKey, info.ProductName, info.Tier)
	dm := fmt.Sprintf("Лицензия %s на %s истекла. Оформите продление в личном кабинете.",
		info.LicenseKey, info.ProductName)

	return s.deliver(ctx, op, &info, subject, text, dm)
}

func (s *Service) deliver(ctx context.Context, op string, info *models.LicenseExpiryInfo, subject, text, dm string) error {
	if !info.NotifyEmail && !info.NotifyDiscord {
		s.log.Info("user disabled all notifications, skipping",
			slog.String("license_key", info.LicenseKey))
		return nil
	}

	if info.NotifyEmail {
		if err := s.sendEmail(info.Email, subject, text); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if info.NotifyDiscord && info.DiscordID != "" {
		if err := s.sendDirectMessage(ctx, info.DiscordID, dm); err != nil {
			// Письмо уже отправлено, возврат в очередь продублировал бы его.
			s.log.Warn("failed to deliver chat notification",
				slog.String("discord_id", info.DiscordID), sl.Err(err))
		}
	}

	s.log.Info("license notification delivered",
		slog.String("license_key", info.LicenseKey),
		slog.String("username", info.Username))
	return nil
}

func (s *Service) sendEmail(to, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetFrom(),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetFrom()); err != nil {
		s.log.Error("failed to set MAIL FROM", "from", s.transport.GetFrom(), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", "recipient", to, sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", "to", to)
	return nil
}

func (s *Service) sendDirectMessage(ctx context.Context, discordID, content string) error {
	channel, err := s.messenger.CreateDMChannel(ctx, discordID)
	if err != nil {
		return err
	}
	if _, err := s.messenger.PostMessage(ctx, channel.ID, content); err != nil {
		return err
	}
	return nil
}
