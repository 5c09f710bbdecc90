// Package chatplatform содержит REST-клиент чат-платформы для бота тикетов.
package chatplatform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/config"
)

type Client struct {
	baseURL    string
	token      string
	guildID    string
	httpClient *http.Client
}

// NewClient создаёт клиент чат-платформы с токеном бота.
func NewClient(cfg config.ChatPlatform) *Client {
	return &Client{
		baseURL:    cfg.ChatAPIBaseURL,
		token:      cfg.BotToken,
		guildID:    cfg.GuildID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}
	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// CreateChannel создаёт текстовый канал на сервере.
func (c *Client) CreateChannel(ctx context.Context, params CreateChannelParams) (*Channel, error) {
	const op = "chatplatform.CreateChannel"

	req, err := c.newRequest(ctx, http.MethodPost, "/guilds/"+c.guildID+"/channels", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var channel Channel
	if err := c.do(req, &channel); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &channel, nil
}

// DeleteChannel удаляет канал.
func (c *Client) DeleteChannel(ctx context.Context, channelID string) error {
	const op = "chatplatform.DeleteChannel"

	req, err := c.newRequest(ctx, http.MethodDelete, "/channels/"+channelID, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// PostMessage отправляет сообщение в канал.
func (c *Client) PostMessage(ctx context.Context, channelID, content string) (*Message, error) {
	const op = "chatplatform.PostMessage"

	req, err := c.newRequest(ctx, http.MethodPost, "/channels/"+channelID+"/messages", map[string]string{
		"content": content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var message Message
	if err := c.do(req, &message); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &message, nil
}

// CreateDMChannel открывает личный канал с пользователем платформы.
// Повторный вызов для того же пользователя возвращает уже существующий канал.
func (c *Client) CreateDMChannel(ctx context.Context, recipientID string) (*Channel, error) {
	const op = "chatplatform.CreateDMChannel"

	req, err := c.newRequest(ctx, http.MethodPost, "/users/@me/channels", map[string]string{
		"recipient_id": recipientID,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var channel Channel
	if err := c.do(req, &channel); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &channel, nil
}

// CreateInvite создаёт одноразовое приглашение в канал.
func (c *Client) CreateInvite(ctx context.Context, channelID string, params CreateInviteParams) (*Invite, error) {
	const op = "chatplatform.CreateInvite"

	req, err := c.newRequest(ctx, http.MethodPost, "/channels/"+channelID+"/invites", params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var invite Invite
	if err := c.do(req, &invite); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &invite, nil
}
