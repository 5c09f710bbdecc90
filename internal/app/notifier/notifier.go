// Package notifier собирает воркер уведомлений: потребление сообщений
// о лицензиях из брокера и доставку владельцам по почте и в личные сообщения.
package notifier

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/license-storefront/internal/chatplatform"
	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/license-storefront/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/license-storefront/internal/services/notifier"
)

// App представляет воркер уведомлений.
type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	notifierService *notifierservice.Service
	logger          *slog.Logger
}

// New создает новый экземпляр воркера уведомлений.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.AmqpConnectionString, cfg.ConnectRetries, cfg.ConnectDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	chatClient := chatplatform.NewClient(cfg.ChatPlatform)
	notifierService := notifierservice.New(transport, chatClient, logger)

	return &App{
		conn:            conn,
		ch:              ch,
		notifierService: notifierService,
		logger:          logger,
	}, nil
}

// Run запускает потребителей очередей и блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.license_expiring", a.logger, func(body []byte) error {
		return a.notifierService.SendExpiryReminder(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start license_expiring consumer", slog.Any("err", err))
		return err
	}

	err = rabbitmq.ConsumerMessage(ctx, a.ch, "notifications.license_expired", a.logger, func(body []byte) error {
		return a.notifierService.SendExpiredNotice(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start license_expired consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("notifier service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
