package verify

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
	licenseservice "github.com/magabrotheeeer/license-storefront/internal/services/license"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Verify(ctx context.Context, req models.DummyLicenseVerify) (*licenseservice.VerifyResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*licenseservice.VerifyResult)
	return result, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestVerifyHandler_ServeHTTP(t *testing.T) {
	serviceMock := new(ServiceMock)
	logger := newNoopLogger()

	handler := New(logger, serviceMock)

	tests := []struct {
		name           string
		requestBody    interface{}
		mockResult     *licenseservice.VerifyResult
		mockErr        error
		wantStatusCode int
		wantValid      *bool
		wantReason     string
		wantError      string
		wantStatus     string
	}{
		{
			name:        "valid license",
			requestBody: models.DummyLicenseVerify{LicenseKey: "AAAAA-BBBBB"},
			mockResult: &licenseservice.VerifyResult{
				Valid:       true,
				ProductName: "ghost-selfbot",
				ProductType: models.ProductSelfbot,
				Tier:        models.TierMonthly,
				DaysLeft:    12,
			},
			wantStatusCode: http.StatusOK,
			wantValid:      ptrBool(true),
			wantStatus:     "OK",
		},
		{
			// Неизвестный ключ - не ошибка, а отрицательный результат.
			name:        "unknown license key",
			requestBody: models.DummyLicenseVerify{LicenseKey: "AAAAA-BBBBB"},
			mockResult: &licenseservice.VerifyResult{
				Valid:  false,
				Reason: licenseservice.ReasonNotFound,
			},
			wantStatusCode: http.StatusOK,
			wantValid:      ptrBool(false),
			wantReason:     "not_found",
			wantStatus:     "OK",
		},
		{
			name:        "expired license",
			requestBody: models.DummyLicenseVerify{LicenseKey: "AAAAA-BBBBB"},
			mockResult: &licenseservice.VerifyResult{
				Valid:  false,
				Reason: licenseservice.ReasonExpired,
			},
			wantStatusCode: http.StatusOK,
			wantValid:      ptrBool(false),
			wantReason:     "expired",
			wantStatus:     "OK",
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
			wantStatus:     "Error",
		},
		{
			name:           "validation error - wrong key length",
			requestBody:    models.DummyLicenseVerify{LicenseKey: "short"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field LicenseKey must have length 11",
			wantStatus:     "Error",
		},
		{
			name:           "storage error",
			requestBody:    models.DummyLicenseVerify{LicenseKey: "AAAAA-BBBBB"},
			mockErr:        errors.New("db error"),
			wantStatusCode: http.StatusInternalServerError,
			wantError:      "internal error",
			wantStatus:     "Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock.ExpectedCalls = nil
			serviceMock.Calls = nil

			if tt.mockResult != nil || tt.mockErr != nil {
				serviceMock.On("Verify", mock.Anything, tt.requestBody.(models.DummyLicenseVerify)).
					Return(tt.mockResult, tt.mockErr).Once()
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

			req := httptest.NewRequest(http.MethodPost, "/licenses/verify", bytes.NewReader(bodyBytes))
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
				data, ok := got["data"].(map[string]any)
				assert.True(t, ok)
				assert.Equal(t, *tt.wantValid, data["valid"])
				if tt.wantReason != "" {
					assert.Equal(t, tt.wantReason, data["reason"])
				}
			}

			serviceMock.AssertExpectations(t)
		})
	}
}

func ptrBool(v bool) *bool { return &v }
