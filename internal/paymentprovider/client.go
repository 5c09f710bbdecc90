// Package paymentprovider содержит REST-клиент платёжного провайдера.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/magabrotheeeer/license-storefront/internal/config"
)

type Client struct {
	shopID     string
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент платёжного провайдера.
func NewClient(cfg config.PaymentProvider) *Client {
	return &Client{
		shopID:     cfg.ShopID,
		secretKey:  cfg.ShopSecretKey,
		apiURL:     cfg.PaymentAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path, idempotenceKey string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte(c.shopID + ":" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/json")
	if idempotenceKey != "" {
		req.Header.Set("Idempotence-Key", idempotenceKey)
	}
	return req, nil
}

// CreatePayment отправляет запрос на создание платежа.
// Повторный вызов с тем же idempotenceKey вернёт уже созданный платёж.
func (c *Client) CreatePayment(ctx context.Context, idempotenceKey string, reqParams CreatePaymentRequest) (*PaymentResponse, error) {
	req, err := c.newRequest(ctx, "POST", "/payments", idempotenceKey, reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var paymentResp PaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, err
	}
	return &paymentResp, nil
}

// GetPayment запрашивает текущее состояние платежа у провайдера.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*PaymentResponse, error) {
	req, err := c.newRequest(ctx, "GET", "/payments/"+paymentID, "", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var paymentResp PaymentResponse
	if err := json.NewDecoder(resp.Body).Decode(&paymentResp); err != nil {
		return nil, err
	}
	return &paymentResp, nil
}
