package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/chatplatform"
	"github.com/magabrotheeeer/license-storefront/internal/lib/smtp"
	"github.com/magabrotheeeer/license-storefront/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetFrom() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) CreateDMChannel(ctx context.Context, recipientID string) (*chatplatform.Channel, error) {
	args := m.Called(ctx, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chatplatform.Channel), args.Error(1)
}

func (m *MockMessenger) PostMessage(ctx context.Context, channelID, content string) (*chatplatform.Message, error) {
	args := m.Called(ctx, channelID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chatplatform.Message), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func reminderBody(notifyEmail, notifyDiscord bool) []byte {
	body, _ := json.Marshal(models.LicenseExpiryInfo{
		LicenseKey:    "AAAAA-BBBBB",
		ProductName:   "Shadow Selfbot",
		Tier:          models.TierMonthly,
		ExpiresAt:     time.Now().UTC().AddDate(0, 0, 3),
		Username:      "testuser",
		Email:         "test@example.com",
		DiscordID:     "123456789",
		NotifyEmail:   notifyEmail,
		NotifyDiscord: notifyDiscord,
		DaysLeft:      3,
	})
	return body
}

func setupHappyEmail(transport *MockTransport) {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	transport.On("GetFrom").Return("noreply@shadow.example")
	transport.On("Connect").Return(mockClient, nil).Once()
	mockClient.On("Mail", "noreply@shadow.example").Return(nil).Once()
	mockClient.On("Rcpt", "test@example.com").Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()
}

func TestService_SendExpiryReminder(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport, *MockMessenger)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "success - email and direct message",
			body: reminderBody(true, true),
			setupMocks: func(transport *MockTransport, messenger *MockMessenger) {
				setupHappyEmail(transport)
				messenger.On("CreateDMChannel", mock.Anything, "123456789").
					Return(&chatplatform.Channel{ID: "dm-1"}, nil).Once()
				messenger.On("PostMessage", mock.Anything, "dm-1", mock.MatchedBy(func(content string) bool {
					return len(content) > 0
				})).Return(&chatplatform.Message{ID: "msg-1"}, nil).Once()
			},
		},
		{
			name: "email disabled - only direct message",
			body: reminderBody(false, true),
			setupMocks: func(_ *MockTransport, messenger *MockMessenger) {
				messenger.On("CreateDMChannel", mock.Anything, "123456789").
					Return(&chatplatform.Channel{ID: "dm-1"}, nil).Once()
				messenger.On("PostMessage", mock.Anything, "dm-1", mock.Anything).
					Return(&chatplatform.Message{ID: "msg-1"}, nil).Once()
			},
		},
		{
			name: "all notifications disabled - nothing sent",
			body: reminderBody(false, false),
			setupMocks: func(_ *MockTransport, _ *MockMessenger) {
				// Ни одного обращения к транспортам.
			},
		},
		{
			name: "dm failure does not requeue the message",
			body: reminderBody(true, true),
			setupMocks: func(transport *MockTransport, messenger *MockMessenger) {
				setupHappyEmail(transport)
				messenger.On("CreateDMChannel", mock.Anything, "123456789").
					Return(nil, errors.New("chat api down")).Once()
			},
		},
		{
			name: "smtp failure requeues the message",
			body: reminderBody(true, false),
			setupMocks: func(transport *MockTransport, _ *MockMessenger) {
				transport.On("GetFrom").Return("noreply@shadow.example")
				transport.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
		{
			name: "invalid JSON",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockTransport, _ *MockMessenger) {
			},
			expectedError: true,
			errorMessage:  "invalid character",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			messenger := new(MockMessenger)
			service := New(transport, messenger, newNoopLogger())

			tt.setupMocks(transport, messenger)

			err := service.SendExpiryReminder(context.Background(), tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			transport.AssertExpectations(t)
			messenger.AssertExpectations(t)
		})
	}
}

func TestService_SendExpiredNotice(t *testing.T) {
	transport := new(MockTransport)
	messenger := new(MockMessenger)
	service := New(transport, messenger, newNoopLogger())

	setupHappyEmail(transport)
	messenger.On("CreateDMChannel", mock.Anything, "123456789").
		Return(&chatplatform.Channel{ID: "dm-1"}, nil).Once()
	messenger.On("PostMessage", mock.Anything, "dm-1", mock.Anything).
		Return(&chatplatform.Message{ID: "msg-1"}, nil).Once()

	body, _ := json.Marshal(models.LicenseExpiryInfo{
		LicenseKey:    "AAAAA-BBBBB",
		ProductName:   "Shadow Selfbot",
		Tier:          models.TierMonthly,
		Username:      "testuser",
		Email:         "test@example.com",
		DiscordID:     "123456789",
		NotifyEmail:   true,
		NotifyDiscord: true,
	})

	err := service.SendExpiredNotice(context.Background(), body)

	assert.NoError(t, err)
	transport.AssertExpectations(t)
	messenger.AssertExpectations(t)
}

func TestService_SMTPErrorHandling(t *testing.T) {
	body := reminderBody(true, false)

	tests := []struct {
		name         string
		setupMocks   func(*MockTransport)
		errorMessage string
	}{
		{
			name: "SMTP Mail error",
			setupMocks: func(transport *MockTransport) {
				mockClient := new(MockSMTPClient)

				transport.On("GetFrom").Return("noreply@shadow.example")
				transport.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@shadow.example").Return(errors.New("mail error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "mail error",
		},
		{
			name: "SMTP Rcpt error",
			setupMocks: func(transport *MockTransport) {
				mockClient := new(MockSMTPClient)

				transport.On("GetFrom").Return("noreply@shadow.example")
				transport.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@shadow.example").Return(nil).Once()
				mockClient.On("Rcpt", "test@example.com").Return(errors.New("rcpt error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "rcpt error",
		},
		{
			name: "SMTP Data error",
			setupMocks: func(transport *MockTransport) {
				mockClient := new(MockSMTPClient)

				transport.On("GetFrom").Return("noreply@shadow.example")
				transport.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@shadow.example").Return(nil).Once()
				mockClient.On("Rcpt", "test@example.com").Return(nil).Once()
				mockClient.On("Data").Return(nil, errors.New("data error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "data error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			messenger := new(MockMessenger)
			service := New(transport, messenger, newNoopLogger())

			tt.setupMocks(transport)

			err := service.SendExpiryReminder(context.Background(), body)

			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMessage)

			transport.AssertExpectations(t)
		})
	}
}
