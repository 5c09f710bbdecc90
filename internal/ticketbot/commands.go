package ticketbot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
)

// HandleCommand разбирает префиксную команду из сообщения чата и возвращает
// текст ответа. Пустой ответ означает, что сообщение не является командой.
// Ошибки чат-платформы не прерывают обработку, бот отвечает и продолжает работать.
func (s *Service) HandleCommand(ctx context.Context, channelID, authorID, authorName, content string) string {
	prefix := s.cfg.CommandPrefix
	if prefix == "" {
		prefix = "!"
	}
	if !strings.HasPrefix(content, prefix) {
		return ""
	}

	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return ""
	}
	command, args := fields[0], fields[1:]

	switch command {
	case "help":
		return strings.Join([]string{
			"Available commands:",
			prefix + "create-ticket [reason] - open a support ticket",
			prefix + "close-ticket - close the current ticket",
			prefix + "status - show the current ticket status",
		}, "\n")

	case "create-ticket":
		reason := strings.Join(args, " ")
		ticket, err := s.OpenManualTicket(ctx, authorID, authorName, reason)
		if err != nil {
			s.log.Error("failed to open manual ticket", sl.Err(err))
			return "Failed to open a ticket, try again later."
		}
		return fmt.Sprintf("Ticket %s opened: <#%s>", ticket.ID, ticket.ChannelID)

	case "close-ticket":
		if err := s.CloseTicket(ctx, channelID); err != nil {
			if errors.Is(err, ErrTicketNotFound) {
				return "This channel is not a ticket."
			}
			s.log.Error("failed to close ticket", sl.Err(err))
			return "Failed to close the ticket."
		}
		return "Ticket closed."

	case "status":
		ticket, ok := s.TicketStatus(channelID)
		if !ok {
			return "This channel is not a ticket."
		}
		reply := fmt.Sprintf("Ticket %s: %s", ticket.ID, ticket.Status)
		if ticket.ClaimedBy != "" {
			reply += ", claimed by <@" + ticket.ClaimedBy + ">"
		}
		return reply

	default:
		return "Unknown command. Use " + prefix + "help."
	}
}
