package ticketbot

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-storefront/internal/lib/sl"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// Идентификаторы кнопок тикета.
const (
	InteractionClaim = "ticket_claim"
	InteractionClose = "ticket_close"
)

// MessageEvent представляет событие нового сообщения, которое чат-платформа
// доставляет боту на callback-адрес.
type MessageEvent struct {
	ChannelID  string `json:"channel_id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Bot        bool   `json:"bot"` // Сообщения ботов не обрабатываются
}

// Interaction представляет нажатие кнопки в канале тикета.
type Interaction struct {
	ChannelID string `json:"channel_id"`
	MemberID  string `json:"member_id"`
	CustomID  string `json:"custom_id"`
}

// checkoutReply повторяет формат ответа, который ожидает клиент витрины.
type checkoutReply struct {
	Success   bool   `json:"success"`
	TicketID  string `json:"ticketId,omitempty"`
	ChannelID string `json:"channelId,omitempty"`
}

// Shim принимает HTTP-запросы витрины и callback-события чат-платформы.
type Shim struct {
	log     *slog.Logger
	service *Service
	chat    ChatClient
}

// NewShim создает новый экземпляр Shim.
func NewShim(log *slog.Logger, service *Service, chat ChatClient) *Shim {
	return &Shim{
		log:     log,
		service: service,
		chat:    chat,
	}
}

// Routes собирает маршруты бота.
func (s *Shim) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)
	r.Get("/health", s.HandleHealth)
	r.Post("/checkout", s.HandleCheckout)
	r.Post("/events", s.HandleEvent)
	r.Post("/interactions", s.HandleInteraction)
	return r
}

// HandleHealth отвечает на проверку доступности бота.
func (s *Shim) HandleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// HandleCheckout открывает тикет по заявке на покупку, пересланной витриной.
func (s *Shim) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "ticketbot.shim.HandleCheckout"

	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var checkout models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&checkout); err != nil {
		log.Error("failed to decode checkout request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, checkoutReply{Success: false})
		return
	}

	ticket, err := s.service.OpenCheckoutTicket(r.Context(), checkout)
	if err != nil {
		log.Error("failed to open checkout ticket", sl.Err(err),
			slog.String("checkout_id", checkout.CheckoutID))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, checkoutReply{Success: false})
		return
	}

	render.JSON(w, r, checkoutReply{
		Success:   true,
		TicketID:  ticket.ID,
		ChannelID: ticket.ChannelID,
	})
}

// HandleEvent обрабатывает событие сообщения: разбирает префиксную команду
// и отвечает в канал. Ответ в канал не критичен, его сбой только логируется.
func (s *Shim) HandleEvent(w http.ResponseWriter, r *http.Request) {
	const op = "ticketbot.shim.HandleEvent"

	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var event MessageEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Error("failed to decode message event", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if event.Bot {
		w.WriteHeader(http.StatusOK)
		return
	}

	reply := s.service.HandleCommand(r.Context(), event.ChannelID, event.AuthorID, event.AuthorName, event.Content)
	if reply != "" {
		if _, err := s.chat.PostMessage(r.Context(), event.ChannelID, reply); err != nil {
			log.Error("failed to post command reply", sl.Err(err),
				slog.String("channel_id", event.ChannelID))
		}
	}
	w.WriteHeader(http.StatusOK)
}

// HandleInteraction обрабатывает нажатия кнопок управления тикетом.
func (s *Shim) HandleInteraction(w http.ResponseWriter, r *http.Request) {
	const op = "ticketbot.shim.HandleInteraction"

	log := s.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var interaction Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		log.Error("failed to decode interaction", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var content string
	switch interaction.CustomID {
	case InteractionClaim:
		if err := s.service.ClaimTicket(interaction.ChannelID, interaction.MemberID); err != nil {
			content = "This channel is not a ticket."
		} else {
			content = "Ticket claimed by <@" + interaction.MemberID + ">."
		}
	case InteractionClose:
		if err := s.service.CloseTicket(r.Context(), interaction.ChannelID); err != nil {
			content = "This channel is not a ticket."
		} else {
			content = "Ticket closed."
		}
	default:
		log.Warn("unknown interaction", slog.String("custom_id", interaction.CustomID))
		content = "Unknown action."
	}

	render.JSON(w, r, map[string]string{"content": content})
}
