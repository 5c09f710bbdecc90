// Package ticketbot реализует логику бота тикетов: хранение открытых тикетов,
// открытие канала по заявке на покупку и обработку префиксных команд.
package ticketbot

import (
	"fmt"
	"sync"
	"time"
)

// Статусы тикета.
const (
	TicketStatusOpen    = "open"
	TicketStatusClaimed = "claimed"
	TicketStatusClosed  = "closed"
)

// Ticket описывает один открытый тикет. Ключом служит идентификатор канала.
type Ticket struct {
	ID         string
	ChannelID  string
	CheckoutID string
	UserUID    string
	Username   string
	DiscordID  string
	Subject    string
	Status     string
	ClaimedBy  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TicketStore хранит тикеты в памяти под мьютексом. Хранилище принадлежит
// сервису бота и передаётся обработчикам явно. После перезапуска процесса
// оно начинается пустым, тикеты эфемерны.
type TicketStore struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
	counter int
}

// NewTicketStore создаёт пустое хранилище тикетов.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets: make(map[string]Ticket),
	}
}

// NextID возвращает следующий порядковый идентификатор тикета вида ticket-0001.
func (s *TicketStore) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("ticket-%04d", s.counter)
}

// Put сохраняет тикет по идентификатору канала.
func (s *TicketStore) Put(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[t.ChannelID] = t
}

// Get возвращает копию тикета по идентификатору канала.
func (s *TicketStore) Get(channelID string) (Ticket, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tickets[channelID]
	return t, ok
}

// Delete удаляет тикет по идентификатору канала.
func (s *TicketStore) Delete(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tickets, channelID)
}

// Claim помечает тикет взятым в работу указанным сотрудником.
func (s *TicketStore) Claim(channelID, staffID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[channelID]
	if !ok {
		return false
	}
	t.Status = TicketStatusClaimed
	t.ClaimedBy = staffID
	t.UpdatedAt = time.Now()
	s.tickets[channelID] = t
	return true
}

// List возвращает копии всех открытых тикетов.
func (s *TicketStore) List() []Ticket {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		result = append(result, t)
	}
	return result
}

// Len возвращает число тикетов в хранилище.
func (s *TicketStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tickets)
}
