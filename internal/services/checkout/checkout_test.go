package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/botclient"
	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

type RelayMock struct{ mock.Mock }

func (m *RelayMock) SubmitCheckout(ctx context.Context, checkout models.CheckoutRequest) (*botclient.CheckoutResponse, error) {
	args := m.Called(ctx, checkout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*botclient.CheckoutResponse), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func testPrices() config.PaymentProvider {
	return config.PaymentProvider{
		Prices: []config.Price{
			{ProductName: "Shadow Selfbot", ProductType: "selfbot", Tier: "monthly", Amount: 49900, Currency: "RUB"},
			{ProductName: "Shadow Selfbot", ProductType: "selfbot", Tier: "lifetime", Amount: 299900, Currency: "RUB"},
		},
	}
}

func testBot() config.TicketBot {
	return config.TicketBot{SupportInviteURL: "https://discord.gg/shadow"}
}

func buyer() *models.User {
	return &models.User{
		UID:       "11111111-2222-3333-4444-555555555555",
		Username:  "testuser",
		DiscordID: "123456789",
	}
}

func TestService_Submit(t *testing.T) {
	req := models.DummyCheckout{
		Items: []models.DummyCheckoutItem{
			{ProductName: "Shadow Selfbot", ProductType: "selfbot", Tier: "monthly", Quantity: 2},
		},
		Note: "побыстрее пожалуйста",
	}

	tests := []struct {
		name       string
		req        models.DummyCheckout
		setupMocks func(r *RelayMock)
		check      func(t *testing.T, result *models.CheckoutResult, err error)
	}{
		{
			name: "success - bot opened a ticket",
			req:  req,
			setupMocks: func(r *RelayMock) {
				r.On("SubmitCheckout", mock.Anything, mock.MatchedBy(func(c models.CheckoutRequest) bool {
					return c.CheckoutID != "" &&
						c.User.UID == buyer().UID &&
						len(c.Items) == 1 &&
						c.Items[0].Price == 49900 &&
						c.Total == 99800 &&
						c.Currency == "RUB" &&
						c.Note == "побыстрее пожалуйста"
				})).Return(&botclient.CheckoutResponse{
					Success:   true,
					TicketID:  "ticket-1",
					ChannelID: "chan-1",
				}, nil).Once()
			},
			check: func(t *testing.T, result *models.CheckoutResult, err error) {
				assert.NoError(t, err)
				assert.True(t, result.Delivered)
				assert.Equal(t, "ticket-1", result.TicketID)
				assert.Equal(t, "chan-1", result.ChannelID)
				assert.Empty(t, result.FallbackURL)
			},
		},
		{
			name: "bot unreachable - checkout still succeeds with fallback link",
			req:  req,
			setupMocks: func(r *RelayMock) {
				r.On("SubmitCheckout", mock.Anything, mock.Anything).
					Return(nil, errors.New("botclient.SubmitCheckout: context deadline exceeded")).Once()
			},
			check: func(t *testing.T, result *models.CheckoutResult, err error) {
				assert.NoError(t, err)
				assert.False(t, result.Delivered)
				assert.Empty(t, result.TicketID)
				assert.Equal(t, "https://discord.gg/shadow", result.FallbackURL)
			},
		},
		{
			name: "unknown product - rejected before relay",
			req: models.DummyCheckout{
				Items: []models.DummyCheckoutItem{
					{ProductName: "Unknown Tool", ProductType: "tool", Tier: "monthly", Quantity: 1},
				},
			},
			setupMocks: func(_ *RelayMock) {
				// До бота дело не доходит.
			},
			check: func(t *testing.T, result *models.CheckoutResult, err error) {
				assert.ErrorIs(t, err, ErrUnknownProduct)
				assert.Nil(t, result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := new(RelayMock)
			tt.setupMocks(relay)
			svc := New(relay, testPrices(), testBot(), newNoopLogger())

			result, err := svc.Submit(context.Background(), buyer(), tt.req)
			tt.check(t, result, err)

			relay.AssertExpectations(t)
		})
	}
}
