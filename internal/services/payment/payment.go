// Package payment содержит бизнес-логику платежей: создание платежа
// у провайдера, подтверждение с выдачей лицензии и обработку вебхуков.
package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-storefront/internal/config"
	"github.com/magabrotheeeer/license-storefront/internal/lib/licensekey"
	"github.com/magabrotheeeer/license-storefront/internal/models"
	"github.com/magabrotheeeer/license-storefront/internal/paymentprovider"
)

// Ошибки уровня сервиса, по которым обработчики выбирают HTTP-статус.
var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrForeignPayment  = errors.New("payment belongs to another user")
	ErrPaymentNotPaid  = errors.New("payment is not succeeded")
	ErrUnknownProduct  = errors.New("unknown product or tier")
)

// PaymentRepository описывает контракт для работы с платежами в базе данных.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, payment models.Payment) error
	GetPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, paymentID, status string) (int, error)
	ListPaymentsByUser(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error)
	ListAllPayments(ctx context.Context, limit, offset int) ([]*models.Payment, error)
	ConfirmPayment(ctx context.Context, paymentID string, license models.License) (*models.License, error)
	RevokeLicenseByID(ctx context.Context, licenseID int, reason string) (int, error)
}

// Provider описывает контракт REST-клиента платёжного провайдера.
type Provider interface {
	CreatePayment(ctx context.Context, idempotenceKey string, req paymentprovider.CreatePaymentRequest) (*paymentprovider.PaymentResponse, error)
	GetPayment(ctx context.Context, paymentID string) (*paymentprovider.PaymentResponse, error)
}

// Service реализует операции над платежами поверх хранилища и провайдера.
type Service struct {
	repo     PaymentRepository
	provider Provider
	cfg      config.PaymentProvider
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo PaymentRepository, provider Provider, cfg config.PaymentProvider, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		provider: provider,
		cfg:      cfg,
		log:      log,
	}
}

// Pricing возвращает прайс-лист витрины.
func (s *Service) Pricing() []models.PriceEntry {
	result := make([]models.PriceEntry, 0, len(s.cfg.Prices))
	for _, p := range s.cfg.Prices {
		result = append(result, models.PriceEntry{
			ProductName: p.ProductName,
			ProductType: p.ProductType,
			Tier:        p.Tier,
			Amount:      p.Amount,
			Currency:    p.Currency,
		})
	}
	return result
}

// CreateIntent создает платёж у провайдера и сохраняет его со статусом
// pending. Сумма берётся из прайс-листа на сервере, а не от клиента.
// Возвращает платёж и URL страницы подтверждения провайдера.
func (s *Service) CreateIntent(ctx context.Context, userUID string, req models.DummyPaymentCreate) (*models.Payment, string, error) {
	price, err := s.priceFor(req.ProductName, req.ProductType, req.Tier)
	if err != nil {
		return nil, "", err
	}

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = s.cfg.ReturnURL
	}

	description := fmt.Sprintf("%s (%s, %s)", price.ProductName, price.ProductType, price.Tier)
	idempotenceKey := uuid.New().String()

	resp, err := s.provider.CreatePayment(ctx, idempotenceKey, paymentprovider.CreatePaymentRequest{
		Amount: paymentprovider.Amount{
			Value:    paymentprovider.FormatAmount(price.Amount),
			Currency: price.Currency,
		},
		Confirmation: paymentprovider.Confirmation{
			Type:      "redirect",
			ReturnURL: returnURL,
		},
		Capture:     true,
		Description: description,
		Metadata: map[string]string{
			"user_uid":     userUID,
			"product_name": price.ProductName,
			"product_type": price.ProductType,
			"tier":         price.Tier,
		},
	})
	if err != nil {
		return nil, "", err
	}

	payment := models.Payment{
		ID:             resp.ID,
		UserUID:        userUID,
		Amount:         price.Amount,
		Currency:       price.Currency,
		Status:         resp.Status,
		Description:    description,
		ProductName:    price.ProductName,
		ProductType:    price.ProductType,
		Tier:           price.Tier,
		IdempotenceKey: idempotenceKey,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, "", err
	}

	s.log.Info("created payment",
		slog.String("payment_id", resp.ID),
		slog.String("user_uid", userUID),
		slog.Int64("amount", price.Amount))

	return &payment, resp.Confirmation.ConfirmationURL, nil
}

// Confirm подтверждает платёж по инициативе пользователя после возврата
// со страницы провайдера. Статус сверяется с провайдером, затем в одной
// транзакции выдаётся лицензия. Повторное подтверждение возвращает
// ранее выданную лицензию.
func (s *Service) Confirm(ctx context.Context, userUID string, role models.Role, paymentID string) (*models.License, error) {
	payment, err := s.getPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserUID != userUID && !role.AtLeast(models.RoleAdmin) {
		return nil, ErrForeignPayment
	}

	if payment.Status != models.PaymentStatusSucceeded {
		resp, err := s.provider.GetPayment(ctx, paymentID)
		if err != nil {
			return nil, err
		}
		if resp.Status != models.PaymentStatusSucceeded {
			if _, err := s.repo.UpdatePaymentStatus(ctx, paymentID, resp.Status); err != nil {
				s.log.Warn("failed to sync payment status", slog.String("payment_id", paymentID), slog.Any("err", err))
			}
			return nil, ErrPaymentNotPaid
		}
	}

	return s.settle(ctx, payment)
}

// ProcessWebhookEvent обрабатывает уведомление провайдера. Подпись
// запроса проверяется обработчиком до вызова. Лицензия не выдаётся,
// если metadata уведомления указывает на другого пользователя.
func (s *Service) ProcessWebhookEvent(ctx context.Context, payload *paymentprovider.Payload) error {
	payment, err := s.getPayment(ctx, payload.Object.ID)
	if err != nil {
		return err
	}

	if uid, ok := payload.Object.Metadata["user_uid"]; ok && uid != payment.UserUID {
		s.log.Warn("webhook metadata points to another user",
			slog.String("payment_id", payment.ID),
			slog.String("metadata_uid", uid))
		return ErrForeignPayment
	}

	switch payload.Event {
	case paymentprovider.EventPaymentSucceeded:
		_, err := s.settle(ctx, payment)
		return err
	case paymentprovider.EventPaymentCanceled:
		_, err := s.repo.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusCanceled)
		return err
	case paymentprovider.EventPaymentRefunded:
		if _, err := s.repo.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusRefunded); err != nil {
			return err
		}
		if payment.LicenseID != nil {
			if _, err := s.repo.RevokeLicenseByID(ctx, *payment.LicenseID, "payment refunded"); err != nil {
				return err
			}
			s.log.Info("revoked license for refunded payment",
				slog.String("payment_id", payment.ID),
				slog.Int("license_id", *payment.LicenseID))
		}
		return nil
	case paymentprovider.EventPaymentWaitingForCapture:
		_, err := s.repo.UpdatePaymentStatus(ctx, payment.ID, models.PaymentStatusWaitingForCapture)
		return err
	default:
		s.log.Info("ignored webhook event", slog.String("event", payload.Event))
		return nil
	}
}

// History возвращает платежи пользователя с пагинацией.
func (s *Service) History(ctx context.Context, userUID string, limit, offset int) ([]*models.Payment, error) {
	return s.repo.ListPaymentsByUser(ctx, userUID, limit, offset)
}

// ListAll возвращает все платежи с пагинацией.
func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*models.Payment, error) {
	return s.repo.ListAllPayments(ctx, limit, offset)
}

// settle выдает лицензию за оплаченный платёж в одной транзакции.
func (s *Service) settle(ctx context.Context, payment *models.Payment) (*models.License, error) {
	key, err := licensekey.Generate()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	expiresAt, err := models.ExpiryForTier(payment.Tier, now)
	if err != nil {
		return nil, err
	}

	license := models.License{
		LicenseKey:  key,
		UserUID:     payment.UserUID,
		ProductName: payment.ProductName,
		ProductType: payment.ProductType,
		Tier:        payment.Tier,
		Status:      models.LicenseStatusActive,
		ActivatedAt: now,
		ExpiresAt:   expiresAt,
		Features:    models.DefaultFeatures(payment.ProductType, payment.Tier),
	}

	confirmed, err := s.repo.ConfirmPayment(ctx, payment.ID, license)
	if err != nil {
		return nil, err
	}

	s.log.Info("confirmed payment",
		slog.String("payment_id", payment.ID),
		slog.Int("license_id", confirmed.ID))
	return confirmed, nil
}

func (s *Service) getPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

func (s *Service) priceFor(productName, productType, tier string) (*config.Price, error) {
	for i := range s.cfg.Prices {
		p := &s.cfg.Prices[i]
		if p.ProductName == productName && p.ProductType == productType && p.Tier == tier {
			return p, nil
		}
	}
	return nil, ErrUnknownProduct
}
