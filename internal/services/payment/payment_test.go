package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/paymentprovider"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreatePayment(ctx context.Context, payment models.Payment) error {
	return m.Called(ctx, payment).Error(0)
}

func (m *RepoMock) GetPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Payment), args.Error(1)
}

func (m *RepoMock) UpdatePaymentStatus(ctx context.Context, paymentID, status string) (int, error) {
	args := m.Called(ctx, paymentID, status)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, userUID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *RepoMock) ListAllPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Payment), args.Error(1)
}

func (m *RepoMock) ConfirmPayment(ctx context.Context, paymentID string, license models.License) (*models.License, error) {
	args := m.Called(ctx, paymentID, license)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.License), args.Error(1)
}

func (m *RepoMock) RevokeLicenseByID(ctx context.Context, licenseID int, reason string) (int, error) {
	args := m.Called(ctx, licenseID, reason)
	return args.Int(0), args.Error(1)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) CreatePayment(ctx context.Context, idempotenceKey string, req paymentprovider.CreatePaymentRequest) (*paymentprovider.PaymentResponse, error) {
	args := m.Called(ctx, idempotenceKey, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PaymentResponse), args.Error(1)
}

func (m *ProviderMock) GetPayment(ctx context.Context, paymentID string) (*paymentprovider.PaymentResponse, error) {
	args := m.Called(ctx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.PaymentResponse), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const userUID = "11111111-2222-3333-4444-555555555555"

func testConfig() config.PaymentProvider {
	return config.PaymentProvider{
		ReturnURL: "https://shop.example.com/payments/result",
		Prices: []config.Price{
			{ProductName: "Shadow Selfbot", ProductType: "selfbot", Tier: "monthly", Amount: 49900, Currency: "RUB"},
			{ProductName: "Shadow Selfbot", ProductType: "selfbot", Tier: "lifetime", Amount: 299900, Currency: "RUB"},
		},
	}
}

func pendingPayment() *models.Payment {
	return &models.Payment{
		ID:          "pay-1",
		UserUID:     userUID,
		Amount:      49900,
		Currency:    "RUB",
		Status:      models.PaymentStatusPending,
		ProductName: "Shadow Selfbot",
		ProductType: models.ProductSelfbot,
		Tier:        models.TierMonthly,
	}
}

func issuedLicense() *models.License {
	return &models.License{
		ID:         5,
		LicenseKey: "ABCDE-FGHIJ",
		UserUID:    userUID,
		Tier:       models.TierMonthly,
		Status:     models.LicenseStatusActive,
		ExpiresAt:  time.Now().AddDate(0, 0, 30),
	}
}

func TestService_CreateIntent(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyPaymentCreate
		setupMocks func(repo *RepoMock, provider *ProviderMock)
		wantErr    error
	}{
		{
			name: "success - amount taken from price list",
			req: models.DummyPaymentCreate{
				ProductName: "Shadow Selfbot",
				ProductType: "selfbot",
				Tier:        "monthly",
			},
			setupMocks: func(repo *RepoMock, provider *ProviderMock) {
				provider.On("CreatePayment", mock.Anything, mock.Anything,
					mock.MatchedBy(func(req paymentprovider.CreatePaymentRequest) bool {
						return req.Amount.Value == "499.00" &&
							req.Amount.Currency == "RUB" &&
							req.Metadata["user_uid"] == userUID &&
							req.Confirmation.ReturnURL == "https://shop.example.com/payments/result"
					})).Return(&paymentprovider.PaymentResponse{
					ID:     "pay-1",
					Status: models.PaymentStatusPending,
					Confirmation: paymentprovider.Confirmation{
						ConfirmationURL: "https://pay.example.com/confirm/pay-1",
					},
				}, nil).Once()
				repo.On("CreatePayment", mock.Anything, mock.MatchedBy(func(p models.Payment) bool {
					return p.ID == "pay-1" && p.Amount == 49900 && p.IdempotenceKey != ""
				})).Return(nil).Once()
			},
		},
		{
			name: "unknown product",
			req: models.DummyPaymentCreate{
				ProductName: "Shadow Selfbot",
				ProductType: "selfbot",
				Tier:        "trial",
			},
			setupMocks: func(_ *RepoMock, _ *ProviderMock) {
				// Для неизвестной позиции прайс-листа к провайдеру не обращаемся
			},
			wantErr: ErrUnknownProduct,
		},
		{
			name: "provider error",
			req: models.DummyPaymentCreate{
				ProductName: "Shadow Selfbot",
				ProductType: "selfbot",
				Tier:        "monthly",
			},
			setupMocks: func(_ *RepoMock, provider *ProviderMock) {
				provider.On("CreatePayment", mock.Anything, mock.Anything, mock.Anything).
					Return(nil, errors.New("provider unavailable")).Once()
			},
			wantErr: errors.New("provider unavailable"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			provider := new(ProviderMock)
			tt.setupMocks(repo, provider)
			svc := New(repo, provider, testConfig(), newNoopLogger())

			payment, confirmationURL, err := svc.CreateIntent(context.Background(), userUID, tt.req)
			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "pay-1", payment.ID)
				assert.Equal(t, "https://pay.example.com/confirm/pay-1", confirmationURL)
			}

			repo.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}

func TestService_Confirm(t *testing.T) {
	tests := []struct {
		name       string
		userUID    string
		role       models.Role
		setupMocks func(repo *RepoMock, provider *ProviderMock)
		wantErr    error
	}{
		{
			name:    "success - provider reports succeeded",
			userUID: userUID,
			role:    models.RoleUser,
			setupMocks: func(repo *RepoMock, provider *ProviderMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
				provider.On("GetPayment", mock.Anything, "pay-1").
					Return(&paymentprovider.PaymentResponse{ID: "pay-1", Status: models.PaymentStatusSucceeded}, nil).Once()
				repo.On("ConfirmPayment", mock.Anything, "pay-1", mock.MatchedBy(func(l models.License) bool {
					return l.UserUID == userUID && l.Tier == models.TierMonthly
				})).Return(issuedLicense(), nil).Once()
			},
		},
		{
			name:    "already succeeded skips provider",
			userUID: userUID,
			role:    models.RoleUser,
			setupMocks: func(repo *RepoMock, _ *ProviderMock) {
				p := pendingPayment()
				p.Status = models.PaymentStatusSucceeded
				repo.On("GetPayment", mock.Anything, "pay-1").Return(p, nil).Once()
				repo.On("ConfirmPayment", mock.Anything, "pay-1", mock.Anything).
					Return(issuedLicense(), nil).Once()
			},
		},
		{
			name:    "foreign payment is rejected",
			userUID: "99999999-0000-0000-0000-000000000000",
			role:    models.RoleUser,
			setupMocks: func(repo *RepoMock, _ *ProviderMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
			},
			wantErr: ErrForeignPayment,
		},
		{
			name:    "provider still pending",
			userUID: userUID,
			role:    models.RoleUser,
			setupMocks: func(repo *RepoMock, provider *ProviderMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
				provider.On("GetPayment", mock.Anything, "pay-1").
					Return(&paymentprovider.PaymentResponse{ID: "pay-1", Status: models.PaymentStatusPending}, nil).Once()
				repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentStatusPending).
					Return(1, nil).Once()
			},
			wantErr: ErrPaymentNotPaid,
		},
		{
			name:    "unknown payment",
			userUID: userUID,
			role:    models.RoleUser,
			setupMocks: func(repo *RepoMock, _ *ProviderMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").
					Return(nil, fmt.Errorf("storage.GetPayment: %w", sql.ErrNoRows)).Once()
			},
			wantErr: ErrPaymentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			provider := new(ProviderMock)
			tt.setupMocks(repo, provider)
			svc := New(repo, provider, testConfig(), newNoopLogger())

			license, err := svc.Confirm(context.Background(), tt.userUID, tt.role, "pay-1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 5, license.ID)
			}

			repo.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}

func TestService_ProcessWebhookEvent(t *testing.T) {
	tests := []struct {
		name       string
		payload    *paymentprovider.Payload
		setupMocks func(repo *RepoMock)
		wantErr    error
	}{
		{
			name: "succeeded event issues license",
			payload: &paymentprovider.Payload{
				Event: paymentprovider.EventPaymentSucceeded,
				Object: paymentprovider.PayloadObject{
					ID:       "pay-1",
					Metadata: map[string]string{"user_uid": userUID},
				},
			},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
				repo.On("ConfirmPayment", mock.Anything, "pay-1", mock.Anything).
					Return(issuedLicense(), nil).Once()
			},
		},
		{
			name: "metadata mismatch grants nothing",
			payload: &paymentprovider.Payload{
				Event: paymentprovider.EventPaymentSucceeded,
				Object: paymentprovider.PayloadObject{
					ID:       "pay-1",
					Metadata: map[string]string{"user_uid": "99999999-0000-0000-0000-000000000000"},
				},
			},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
				// ConfirmPayment не вызывается: лицензия не выдаётся
			},
			wantErr: ErrForeignPayment,
		},
		{
			name: "canceled event updates status",
			payload: &paymentprovider.Payload{
				Event:  paymentprovider.EventPaymentCanceled,
				Object: paymentprovider.PayloadObject{ID: "pay-1"},
			},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
				repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentStatusCanceled).
					Return(1, nil).Once()
			},
		},
		{
			name: "refunded event revokes linked license",
			payload: &paymentprovider.Payload{
				Event:  paymentprovider.EventPaymentRefunded,
				Object: paymentprovider.PayloadObject{ID: "pay-1"},
			},
			setupMocks: func(repo *RepoMock) {
				p := pendingPayment()
				p.Status = models.PaymentStatusSucceeded
				licenseID := 5
				p.LicenseID = &licenseID
				repo.On("GetPayment", mock.Anything, "pay-1").Return(p, nil).Once()
				repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentStatusRefunded).
					Return(1, nil).Once()
				repo.On("RevokeLicenseByID", mock.Anything, 5, "payment refunded").
					Return(1, nil).Once()
			},
		},
		{
			name: "refunded event without license only updates status",
			payload: &paymentprovider.Payload{
				Event:  paymentprovider.EventPaymentRefunded,
				Object: paymentprovider.PayloadObject{ID: "pay-1"},
			},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
				repo.On("UpdatePaymentStatus", mock.Anything, "pay-1", models.PaymentStatusRefunded).
					Return(1, nil).Once()
			},
		},
		{
			name: "unknown event is ignored",
			payload: &paymentprovider.Payload{
				Event:  "deal.closed",
				Object: paymentprovider.PayloadObject{ID: "pay-1"},
			},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetPayment", mock.Anything, "pay-1").Return(pendingPayment(), nil).Once()
			},
		},
		{
			name: "unknown payment",
			payload: &paymentprovider.Payload{
				Event:  paymentprovider.EventPaymentSucceeded,
				Object: paymentprovider.PayloadObject{ID: "pay-404"},
			},
			setupMocks: func(repo *RepoMock) {
				repo.On("GetPayment", mock.Anything, "pay-404").
					Return(nil, fmt.Errorf("storage.GetPayment: %w", sql.ErrNoRows)).Once()
			},
			wantErr: ErrPaymentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			provider := new(ProviderMock)
			tt.setupMocks(repo)
			svc := New(repo, provider, testConfig(), newNoopLogger())

			err := svc.ProcessWebhookEvent(context.Background(), tt.payload)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}
