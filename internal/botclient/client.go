// Package botclient содержит HTTP-клиент витрины для обращения к боту тикетов.
package botclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

// CheckoutResponse представляет ответ бота на пересланную заявку.
type CheckoutResponse struct {
	Success   bool   `json:"success"`
	TicketID  string `json:"ticketId"`
	ChannelID string `json:"channelId"`
}

type Client struct {
	addr       string
	httpClient *http.Client
}

// New создаёт клиент бота. Таймаут ограничивает весь запрос,
// недоступный бот не должен задерживать ответ витрины дольше таймаута.
func New(cfg config.TicketBot) *Client {
	return &Client{
		addr:       cfg.AddressBot,
		httpClient: &http.Client{Timeout: cfg.BotTimeout},
	}
}

// Health проверяет доступность бота.
func (c *Client) Health(ctx context.Context) error {
	const op = "botclient.Health"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.addr+"/health", nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}
	return nil
}

// SubmitCheckout пересылает заявку на покупку боту тикетов.
func (c *Client) SubmitCheckout(ctx context.Context, checkout models.CheckoutRequest) (*CheckoutResponse, error) {
	const op = "botclient.SubmitCheckout"

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(checkout); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr+"/checkout", &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var botResp CheckoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&botResp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !botResp.Success {
		return nil, fmt.Errorf("%s: %w", op, errors.New("bot rejected checkout"))
	}
	return &botResp, nil
}
