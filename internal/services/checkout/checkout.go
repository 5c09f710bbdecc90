// Package checkout реализует пересылку заявки на покупку боту тикетов.
// Заявка никогда не падает из-за недоступного бота: в этом случае покупатель
// получает ссылку-приглашение на сервер поддержки.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-storefront/internal/botclient"
	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// ErrUnknownProduct возвращается, если позиция заявки отсутствует в прайс-листе.
var ErrUnknownProduct = errors.New("unknown product")

// Relay описывает клиент бота тикетов.
type Relay interface {
	SubmitCheckout(ctx context.Context, checkout models.CheckoutRequest) (*botclient.CheckoutResponse, error)
}

// Service реализует бизнес-логику оформления заявки.
type Service struct {
	relay  Relay
	prices config.PaymentProvider
	bot    config.TicketBot
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(relay Relay, prices config.PaymentProvider, bot config.TicketBot, log *slog.Logger) *Service {
	return &Service{
		relay:  relay,
		prices: prices,
		bot:    bot,
		log:    log,
	}
}

// Submit собирает заявку из позиций прайс-листа и пересылает её боту.
// Недоступный бот не считается ошибкой: возвращается результат с Delivered=false
// и ссылкой на сервер поддержки.
func (s *Service) Submit(ctx context.Context, user *models.User, req models.DummyCheckout) (*models.CheckoutResult, error) {
	const op = "services.checkout.Submit"

	items := make([]models.CheckoutItem, 0, len(req.Items))
	var total int64
	currency := ""
	for _, item := range req.Items {
		price := s.priceFor(item.ProductName, item.ProductType, item.Tier)
		if price == nil {
			return nil, fmt.Errorf("%s: %w: %s (%s, %s)",
				op, ErrUnknownProduct, item.ProductName, item.ProductType, item.Tier)
		}
		items = append(items, models.CheckoutItem{
			ProductName: price.ProductName,
			ProductType: price.ProductType,
			Tier:        price.Tier,
			Price:       price.Amount,
			Quantity:    item.Quantity,
		})
		total += price.Amount * int64(item.Quantity)
		currency = price.Currency
	}

	checkout := models.CheckoutRequest{
		CheckoutID: uuid.NewString(),
		User: models.CheckoutUser{
			UID:       user.UID,
			Username:  user.Username,
			DiscordID: user.DiscordID,
		},
		Items:     items,
		Total:     total,
		Currency:  currency,
		Note:      req.Note,
		CreatedAt: time.Now().UTC(),
	}

	resp, err := s.relay.SubmitCheckout(ctx, checkout)
	if err != nil {
		s.log.Warn("ticket bot unreachable, falling back to invite link",
			slog.String("checkout_id", checkout.CheckoutID),
			slog.Any("err", err))
		return &models.CheckoutResult{
			Delivered:   false,
			FallbackURL: s.bot.SupportInviteURL,
		}, nil
	}

	s.log.Info("checkout relayed to ticket bot",
		slog.String("checkout_id", checkout.CheckoutID),
		slog.String("ticket_id", resp.TicketID))
	return &models.CheckoutResult{
		Delivered: true,
		TicketID:  resp.TicketID,
		ChannelID: resp.ChannelID,
	}, nil
}

// priceFor ищет позицию прайс-листа по названию, типу продукта и тарифу.
func (s *Service) priceFor(productName, productType, tier string) *config.Price {
	for i := range s.prices.Prices {
		p := &s.prices.Prices[i]
		if p.ProductName == productName && p.ProductType == productType && p.Tier == tier {
			return p
		}
	}
	return nil
}
