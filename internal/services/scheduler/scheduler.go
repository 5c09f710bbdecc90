// Package scheduler реализует периодический обход лицензий: рассылку
// напоминаний об истекающих лицензиях, уведомлений об истёкших и перевод
// просроченных лицензий в статус expired.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// LicenseRepository описывает методы хранилища, необходимые планировщику.
type LicenseRepository interface {
	FindLicensesExpiringIn(ctx context.Context, days int) ([]*models.LicenseExpiryInfo, error)
	MarkExpiredLicenses(ctx context.Context) (int, error)
}

// Service реализует периодический обход лицензий.
type Service struct {
	repo         LicenseRepository
	interval     time.Duration
	remindBefore int
	log          *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo LicenseRepository, cfg config.Scheduler, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		interval:     cfg.CheckInterval,
		remindBefore: cfg.RemindBeforeDay,
		log:          log,
	}
}

// Run выполняет обход сразу при старте и далее с настроенным интервалом,
// пока контекст не будет отменён.
func (s *Service) Run(ctx context.Context, channel rabbitmq.Channel) {
	s.sweep(ctx, channel)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx, channel)
		case <-ctx.Done():
			return
		}
	}
}

// sweep - один обход: уведомления об истекающих сегодня лицензиях
// публикуются до пометки, иначе выборка их уже не увидит.
func (s *Service) sweep(ctx context.Context, channel rabbitmq.Channel) {
	s.runNotifyExpiredToday(ctx, channel)
	s.runMarkExpired(ctx)
	s.runNotifyExpiringSoon(ctx, channel)
}

func (s *Service) runNotifyExpiredToday(ctx context.Context, channel rabbitmq.Channel) {
	s.log.Info("looking for licenses expiring today")
	infos, err := s.repo.FindLicensesExpiringIn(ctx, 0)
	if err != nil {
		s.log.Error("failed to find licenses expiring today", sl.Err(err))
		return
	}
	if len(infos) == 0 {
		s.log.Info("no licenses expiring today")
		return
	}
	s.log.Info("found licenses expiring today", "count", len(infos))
	for _, info := range infos {
		err = rabbitmq.PublishMessage(channel, rabbitmq.Exchange, rabbitmq.RoutingKeyLicenseExpired, info)
		if err != nil {
			s.log.Error("failed to publish expired notification",
				slog.String("license_key", info.LicenseKey), sl.Err(err))
		}
	}
}

func (s *Service) runMarkExpired(ctx context.Context) {
	marked, err := s.repo.MarkExpiredLicenses(ctx)
	if err != nil {
		s.log.Error("failed to mark expired licenses", sl.Err(err))
		return
	}
	if marked > 0 {
		s.log.Info("marked expired licenses", "count", marked)
	}
}

func (s *Service) runNotifyExpiringSoon(ctx context.Context, channel rabbitmq.Channel) {
	s.log.Info("looking for licenses expiring soon", "days", s.remindBefore)
	infos, err := s.repo.FindLicensesExpiringIn(ctx, s.remindBefore)
	if err != nil {
		s.log.Error("failed to find expiring licenses", sl.Err(err))
		return
	}
	if len(infos) == 0 {
		s.log.Info("no expiring licenses found")
		return
	}
	s.log.Info("found expiring licenses", "count", len(infos))
	for _, info := range infos {
		err = rabbitmq.PublishMessage(channel, rabbitmq.Exchange, rabbitmq.RoutingKeyLicenseExpiring, info)
		if err != nil {
			s.log.Error("failed to publish expiry reminder",
				slog.String("license_key", info.LicenseKey), sl.Err(err))
		}
	}
}
