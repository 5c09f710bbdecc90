package activate

import (
	"bytes"
	"context"
	"encoding/json"
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
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Activate(ctx context.Context, licenseKey, userUID string, role models.Role) (*models.License, error) {
	args := m.Called(ctx, licenseKey, userUID, role)
	license, _ := args.Get(0).(*models.License)
	return license, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestActivateHandler_ServeHTTP(t *testing.T) {
	const ownerUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

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
			name:        "успешная активация",
			userUID:     ownerUID,
			role:        "user",
			requestBody: Request{LicenseKey: "AAAAA-BBBBB"},
			setupMock: func(m *ServiceMock) {
				m.On("Activate", mock.Anything, "AAAAA-BBBBB", ownerUID, models.RoleUser).
					Return(&models.License{LicenseKey: "AAAAA-BBBBB", Status: models.LicenseStatusActive}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"license_key":"AAAAA-BBBBB"`,
		},
		{
			name:           "нет пользователя в контексте",
			userUID:        "",
			role:           "",
			requestBody:    Request{LicenseKey: "AAAAA-BBBBB"},
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:        "чужая лицензия",
			userUID:     ownerUID,
			role:        "user",
			requestBody: Request{LicenseKey: "AAAAA-BBBBB"},
			setupMock: func(m *ServiceMock) {
				m.On("Activate", mock.Anything, "AAAAA-BBBBB", ownerUID, models.RoleUser).
					Return(nil, licenseservice.ErrNotOwner)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"license belongs to another user"`,
		},
		{
			name:        "лицензия не найдена",
			userUID:     ownerUID,
			role:        "user",
			requestBody: Request{LicenseKey: "AAAAA-BBBBB"},
			setupMock: func(m *ServiceMock) {
				m.On("Activate", mock.Anything, "AAAAA-BBBBB", ownerUID, models.RoleUser).
					Return(nil, licenseservice.ErrLicenseNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"license not found"`,
		},
		{
			name:        "лицензию нельзя активировать",
			userUID:     ownerUID,
			role:        "user",
			requestBody: Request{LicenseKey: "AAAAA-BBBBB"},
			setupMock: func(m *ServiceMock) {
				m.On("Activate", mock.Anything, "AAAAA-BBBBB", ownerUID, models.RoleUser).
					Return(nil, licenseservice.ErrCannotActivate)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"license cannot be activated"`,
		},
		{
			name:           "некорректная длина ключа",
			userUID:        ownerUID,
			role:           "user",
			requestBody:    Request{LicenseKey: "short"},
			setupMock:      func(_ *ServiceMock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"field LicenseKey must have length 11"`,
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

			req := httptest.NewRequest(http.MethodPost, "/licenses/activate", bytes.NewReader(bodyBytes))
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
