package confirm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/license-storefront/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	paymentservice "github.com/magabrotheeeer/license-storefront/internal/services/payment"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Confirm(ctx context.Context, userUID string, role models.Role, paymentID string) (*models.License, error) {
	args := m.Called(ctx, userUID, role, paymentID)
	license, _ := args.Get(0).(*models.License)
	return license, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestConfirmHandler_ServeHTTP(t *testing.T) {
	const userUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	const paymentID = "2e8f3b9c-000f-5000-9000-1b0dd6dd29c5"

	tests := []struct {
		name           string
		userUID        string
		role           string
		requestBody    interface{}
		setupMock      func(*ServiceMock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешное подтверждение",
			userUID:     userUID,
			role:        "user",
			requestBody: Request{PaymentID: paymentID},
			setupMock: func(m *ServiceMock) {
				m.On("Confirm", mock.Anything, userUID, models.RoleUser, paymentID).
					Return(&models.License{LicenseKey: "AAAAA-BBBBB", Status: models.LicenseStatusActive}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"license_key":"AAAAA-BBBBB"`,
		},
		{
			name:           "нет пользователя в контексте",
			userUID:        "",
			requestBody:    Request{PaymentID: paymentID},
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			// Чужой платёж не подтверждается и лицензия не выдаётся.
			name:        "чужой платёж",
			userUID:     userUID,
			role:        "user",
			requestBody: Request{PaymentID: paymentID},
			setupMock: func(m *ServiceMock) {
				m.On("Confirm", mock.Anything, userUID, models.RoleUser, paymentID).
					Return(nil, paymentservice.ErrForeignPayment)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"payment belongs to another user"`,
		},
		{
			name:        "платёж не найден",
			userUID:     userUID,
			role:        "user",
			requestBody: Request{PaymentID: paymentID},
			setupMock: func(m *ServiceMock) {
				m.On("Confirm", mock.Anything, userUID, models.RoleUser, paymentID).
					Return(nil, paymentservice.ErrPaymentNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"payment not found"`,
		},
		{
			name:        "платёж не оплачен",
			userUID:     userUID,
			role:        "user",
			requestBody: Request{PaymentID: paymentID},
			setupMock: func(m *ServiceMock) {
				m.On("Confirm", mock.Anything, userUID, models.RoleUser, paymentID).
					Return(nil, paymentservice.ErrPaymentNotPaid)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"payment is not succeeded"`,
		},
		{
			name:           "пустой идентификатор платежа",
			userUID:        userUID,
			role:           "user",
			requestBody:    Request{},
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"field PaymentID is a required field"`,
		},
		{
			name:        "ошибка провайдера",
			userUID:     userUID,
			role:        "user",
			requestBody: Request{PaymentID: paymentID},
			setupMock: func(m *ServiceMock) {
				m.On("Confirm", mock.Anything, userUID, models.RoleUser, paymentID).
					Return(nil, errors.New("provider unreachable"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			tt.setupMock(serviceMock)

			handler := New(newNoopLogger(), serviceMock)

			bodyBytes, err := json.Marshal(tt.requestBody)
			if err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodPost, "/payments/confirm", bytes.NewReader(bodyBytes))
			ctx := context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123")
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
				ctx = context.WithValue(ctx, middlewarectx.Role, tt.role)
			}
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			serviceMock.AssertExpectations(t)
		})
	}
}
