package pricingservice

import (
	"context"
	"errors"

	"github.com/avbochkov/vendobot/internal/domain"
	"go.uber.org/zap"
)

//go:generate mockgen -source=pricingservice.go -destination=pricingservice_mock.go -package=pricingservice

type Repo interface {
	GetPrice(ctx context.Context, couponType string) (*domain.PriceEntry, error)
	ListPrices(ctx context.Context) ([]domain.PriceEntry, error)
	SetPrice(ctx context.Context, couponType string, price int64) error
	GetSetting(ctx context.Context, key string) (string, error)
	UpsertSetting(ctx context.Context, key, value string) error
}

var (
	ErrInvalidPrice  = errors.New("price must be positive")
	ErrPriceNotFound = errors.New("no price for coupon type")
)

type Service struct {
	pricingRepo Repo
}

func New(pricingRepo Repo) *Service {
	return &Service{pricingRepo: pricingRepo}
}

// GetPrice always reads from the store; prices are never cached in process.
func (s *Service) GetPrice(ctx context.Context, couponType string) (int64, error) {
	entry, err := s.pricingRepo.GetPrice(ctx, couponType)
	if err != nil {
		zap.L().Error("failed to get price", zap.Error(err))
		return 0, err
	}
	if entry == nil {
		return 0, ErrPriceNotFound
	}
	return entry.Price, nil
}

func (s *Service) SetPrice(ctx context.Context, couponType string, price int64) error {
	if price <= 0 {
		return ErrInvalidPrice
	}
	if err := s.pricingRepo.SetPrice(ctx, couponType, price); err != nil {
		zap.L().Error("failed to set price", zap.Error(err))
		return err
	}
	zap.L().Info("price updated", zap.String("type", couponType), zap.Int64("price", price))
	return nil
}

func (s *Service) GetQR(ctx context.Context) (string, error) {
	value, err := s.pricingRepo.GetSetting(ctx, domain.QRSettingKey)
	if err != nil {
		zap.L().Error("failed to get QR setting", zap.Error(err))
		return "", err
	}
	return value, nil
}

func (s *Service) SetQR(ctx context.Context, fileID string) error {
	if err := s.pricingRepo.UpsertSetting(ctx, domain.QRSettingKey, fileID); err != nil {
		zap.L().Error("failed to update QR setting", zap.Error(err))
		return err
	}
	zap.L().Info("QR setting updated")
	return nil
}
