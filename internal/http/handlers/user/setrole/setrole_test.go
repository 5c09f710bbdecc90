package setrole

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

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	userservice "github.com/magabrotheeeer/license-storefront/internal/services/user"
)

// MockService реализует интерфейс setrole.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) SetRole(ctx context.Context, userUID, roleStr string) error {
	args := m.Called(ctx, userUID, roleStr)
	return args.Error(0)
}

func TestSetRoleHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))

	const targetUID = "f47ac10b-58cc-4372-a567-0e02b2c3d479"

	tests := []struct {
		name           string
		requestBody    interface{}
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:        "успешное назначение premium",
			requestBody: Request{Role: "premium"},
			setupMock: func(m *MockService) {
				m.On("SetRole", mock.Anything, targetUID, "premium").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "неизвестная роль",
			requestBody:    Request{Role: "owner"},
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"field Role must be one of: user premium admin"`,
		},
		{
			name:        "пользователь не найден",
			requestBody: Request{Role: "premium"},
			setupMock: func(m *MockService) {
				m.On("SetRole", mock.Anything, targetUID, "premium").
					Return(userservice.ErrUserNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"user not found"`,
		},
		{
			name:        "ошибка хранилища",
			requestBody: Request{Role: "premium"},
			setupMock: func(m *MockService) {
				m.On("SetRole", mock.Anything, targetUID, "premium").
					Return(errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			bodyBytes, err := json.Marshal(tt.requestBody)
			if err != nil {
				t.Fatal(err)
			}

			req := httptest.NewRequest(http.MethodPut, "/users/"+targetUID+"/role", bytes.NewReader(bodyBytes))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", targetUID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middleware.RequestIDKey, "reqid123")
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
