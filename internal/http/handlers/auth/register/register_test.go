package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/models"
	authservice "github.com/magabrotheeeer/license-storefront/internal/services/auth"
)

// Мок сервиса с методом Register
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(ServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockUID        string
		mockErr        error
		wantStatusCode int
		wantData       map[string]any
		wantError      string
		wantStatus     string
	}{
		{
			name: "valid registration",
			requestBody: models.DummyRegister{
				Username:  "user1",
				Email:     "user1@example.com",
				DiscordID: "123456789",
				Password:  "password123",
			},
			mockUID:        "f47ac10b-58cc-4372-a567-0e02b2c3d479",
			mockErr:        nil,
			wantStatusCode: http.StatusOK,
			wantData: map[string]any{
				"user_uid": "f47ac10b-58cc-4372-a567-0e02b2c3d479",
				"username": "user1",
			},
			wantError:  "",
			wantStatus: "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantData:       nil,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name: "validation error - missing password",
			requestBody: models.DummyRegister{
				Username:  "user1",
				Email:     "user1@example.com",
				DiscordID: "123456789",
			},
			wantStatusCode: http.StatusBadRequest,
			wantData:       nil,
			wantError:      "field Password is a required field",
			wantStatus:     "Error",
		},
		{
			name: "duplicate user",
			requestBody: models.DummyRegister{
				Username:  "user1",
				Email:     "user1@example.com",
				DiscordID: "123456789",
				Password:  "password123",
			},
			mockErr:        authservice.ErrUserExists,
			wantStatusCode: http.StatusBadRequest,
			wantData:       nil,
			wantError:      "user with this username, email or discord id already exists",
			wantStatus:     "Error",
		},
		{
			name: "registration service error",
			requestBody: models.DummyRegister{
				Username:  "user1",
				Email:     "user1@example.com",
				DiscordID: "123456789",
				Password:  "password123",
			},
			mockErr:        errors.New("db error"),
			wantStatusCode: http.StatusInternalServerError,
			wantData:       nil,
			wantError:      "failed to register user",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockUID != "" || tt.mockErr != nil {
				serviceMock.On("Register", mock.Anything, tt.requestBody.(models.DummyRegister)).
					Return(tt.mockUID, tt.mockErr).Once()
			}

			var bodyBytes []byte
			var err error
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				bodyBytes, err = json.Marshal(tt.requestBody)
				if err != nil {
					t.Fatal(err)
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))

			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			err = json.NewDecoder(rec.Body).Decode(&got)
			assert.NoError(t, err)

			assert.Equal(t, tt.wantStatus, got["status"])

			if tt.wantError != "" {
				errStr, ok := got["error"].(string)
				assert.True(t, ok)
				assert.Equal(t, tt.wantError, errStr)
			} else {
				assert.Nil(t, got["error"])
			}

			if tt.wantData != nil {
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				for k, v := range tt.wantData {
					assert.Equal(t, v, data[k])
				}
			} else {
				assert.Nil(t, got["data"])
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
