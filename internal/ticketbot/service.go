package ticketbot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/chatplatform"
	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// ErrTicketNotFound возвращается для канала без открытого тикета.
var ErrTicketNotFound = errors.New("ticket not found")

// ChatClient описывает операции чат-платформы, нужные боту.
type ChatClient interface {
	CreateChannel(ctx context.Context, params chatplatform.CreateChannelParams) (*chatplatform.Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error
	PostMessage(ctx context.Context, channelID, content string) (*chatplatform.Message, error)
	CreateInvite(ctx context.Context, channelID string, params chatplatform.CreateInviteParams) (*chatplatform.Invite, error)
}

// Service реализует логику бота тикетов поверх клиента чат-платформы.
type Service struct {
	log   *slog.Logger
	chat  ChatClient
	store *TicketStore
	cfg   config.ChatPlatform
}

// New создаёт сервис бота с переданным хранилищем тикетов.
func New(log *slog.Logger, chat ChatClient, store *TicketStore, cfg config.ChatPlatform) *Service {
	return &Service{
		log:   log,
		chat:  chat,
		store: store,
		cfg:   cfg,
	}
}

// Store возвращает хранилище тикетов сервиса.
func (s *Service) Store() *TicketStore {
	return s.store
}

func (s *Service) ticketOverwrites(memberID string) []chatplatform.PermissionOverwrite {
	return []chatplatform.PermissionOverwrite{
		{ID: s.cfg.GuildID, Type: chatplatform.OverwriteTypeRole, Deny: chatplatform.PermissionViewChannel},
		{ID: memberID, Type: chatplatform.OverwriteTypeMember, Allow: chatplatform.PermissionViewAndWrite},
		{ID: s.cfg.StaffRoleID, Type: chatplatform.OverwriteTypeRole, Allow: chatplatform.PermissionViewAndWrite},
	}
}

func (s *Service) openTicket(ctx context.Context, userUID, username, discordID, subject, summary, checkoutID string) (*Ticket, error) {
	const op = "ticketbot.openTicket"

	id := s.store.NextID()

	channel, err := s.chat.CreateChannel(ctx, chatplatform.CreateChannelParams{
		Name:                 id,
		Type:                 chatplatform.ChannelTypeGuildText,
		ParentID:             s.cfg.TicketCategoryID,
		Topic:                subject,
		PermissionOverwrites: s.ticketOverwrites(discordID),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.chat.PostMessage(ctx, channel.ID, summary); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()
	ticket := Ticket{
		ID:         id,
		ChannelID:  channel.ID,
		CheckoutID: checkoutID,
		UserUID:    userUID,
		Username:   username,
		DiscordID:  discordID,
		Subject:    subject,
		Status:     TicketStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.store.Put(ticket)

	// Уведомление в лог-канал не критично, ошибка не отменяет тикет.
	if s.cfg.LogChannelID != "" {
		logLine := fmt.Sprintf("Opened %s for %s: %s", id, username, subject)
		if _, err := s.chat.PostMessage(ctx, s.cfg.LogChannelID, logLine); err != nil {
			s.log.Error("failed to post to log channel", sl.Err(err))
		}
	}

	s.log.Info("ticket opened",
		slog.String("ticket_id", id),
		slog.String("channel_id", channel.ID),
		slog.String("username", username))
	return &ticket, nil
}

// OpenCheckoutTicket открывает тикет по заявке на покупку, пересланной витриной.
func (s *Service) OpenCheckoutTicket(ctx context.Context, checkout models.CheckoutRequest) (*Ticket, error) {
	subject := fmt.Sprintf("Checkout %s from %s", checkout.CheckoutID, checkout.User.Username)
	summary := formatCheckoutSummary(checkout)
	return s.openTicket(ctx, checkout.User.UID, checkout.User.Username, checkout.User.DiscordID,
		subject, summary, checkout.CheckoutID)
}

// OpenManualTicket открывает тикет по команде пользователя в чате.
func (s *Service) OpenManualTicket(ctx context.Context, discordID, username, reason string) (*Ticket, error) {
	if reason == "" {
		reason = "no reason given"
	}
	subject := fmt.Sprintf("Ticket from %s: %s", username, reason)
	summary := fmt.Sprintf("%s opened a ticket.\nReason: %s", username, reason)
	return s.openTicket(ctx, "", username, discordID, subject, summary, "")
}

// CloseTicket закрывает тикет канала. Неудачное удаление канала логируется,
// но тикет всё равно считается закрытым и убирается из хранилища.
func (s *Service) CloseTicket(ctx context.Context, channelID string) error {
	const op = "ticketbot.CloseTicket"

	ticket, ok := s.store.Get(channelID)
	if !ok {
		return fmt.Errorf("%s: %w", op, ErrTicketNotFound)
	}

	if err := s.chat.DeleteChannel(ctx, channelID); err != nil {
		s.log.Error("failed to delete ticket channel", sl.Err(err),
			slog.String("ticket_id", ticket.ID),
			slog.String("channel_id", channelID))
	}
	s.store.Delete(channelID)

	s.log.Info("ticket closed", slog.String("ticket_id", ticket.ID))
	return nil
}

// ClaimTicket помечает тикет взятым в работу сотрудником.
func (s *Service) ClaimTicket(channelID, staffID string) error {
	const op = "ticketbot.ClaimTicket"
	if !s.store.Claim(channelID, staffID) {
		return fmt.Errorf("%s: %w", op, ErrTicketNotFound)
	}
	return nil
}

// TicketStatus возвращает тикет канала.
func (s *Service) TicketStatus(channelID string) (Ticket, bool) {
	return s.store.Get(channelID)
}

func formatCheckoutSummary(checkout models.CheckoutRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New checkout %s from %s (discord %s)\n",
		checkout.CheckoutID, checkout.User.Username, checkout.User.DiscordID)
	for _, item := range checkout.Items {
		fmt.Fprintf(&b, "- %s %s %s x%d: %s %s\n",
			item.ProductName, item.ProductType, item.Tier, item.Quantity,
			formatKopecks(item.Price*int64(item.Quantity)), checkout.Currency)
	}
	fmt.Fprintf(&b, "Total: %s %s", formatKopecks(checkout.Total), checkout.Currency)
	if checkout.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", checkout.Note)
	}
	return b.String()
}

func formatKopecks(kopecks int64) string {
	return fmt.Sprintf("%d.%02d", kopecks/100, kopecks%100)
}
