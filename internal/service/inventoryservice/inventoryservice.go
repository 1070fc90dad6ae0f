package inventoryservice

import (
	"context"
	"errors"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
	"go.uber.org/zap"
)

//go:generate mockgen -source=inventoryservice.go -destination=inventoryservice_mock.go -package=inventoryservice

type Repo interface {
	CountUnused(ctx context.Context, couponType string) (int64, error)
	StockCounts(ctx context.Context) (map[string]int64, error)
	SelectUnusedForUpdate(ctx context.Context, couponType string, limit int64) ([]domain.Coupon, error)
	MarkUsed(ctx context.Context, couponIDs []int64, userID int64) error
	DeleteByIDs(ctx context.Context, couponIDs []int64) error
	InsertBatch(ctx context.Context, couponType string, codes []string) (int64, error)
}

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

type Service struct {
	couponRepo Repo
	txManager  pg.TXManager
}

func New(couponRepo Repo, txManager pg.TXManager) *Service {
	return &Service{
		couponRepo: couponRepo,
		txManager:  txManager,
	}
}

// Allocate consumes exactly quantity unused coupons of the given type and
// returns them. The selection and the consumption commit together; a call
// that cannot lock enough rows fails with ErrInsufficientStock and consumes
// nothing. When invoked inside an open transaction it joins it, so a caller
// rollback also releases the coupons.
func (s *Service) Allocate(ctx context.Context, buyerID int64, couponType string, quantity int64) ([]domain.Coupon, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	var allocated []domain.Coupon
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		coupons, err := s.couponRepo.SelectUnusedForUpdate(ctx, couponType, quantity)
		if err != nil {
			return err
		}
		if int64(len(coupons)) < quantity {
			return ErrInsufficientStock
		}

		ids := make([]int64, 0, len(coupons))
		for _, coupon := range coupons {
			ids = append(ids, coupon.ID)
		}
		if err := s.couponRepo.MarkUsed(ctx, ids, buyerID); err != nil {
			return err
		}
		allocated = coupons
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("coupons allocated",
		zap.String("type", couponType),
		zap.Int64("quantity", quantity),
		zap.Int64("buyer", buyerID))
	return allocated, nil
}

// RemoveStock deletes quantity unused coupons of the type. The FOR UPDATE
// selection cannot touch rows locked by an in-flight Allocate.
func (s *Service) RemoveStock(ctx context.Context, couponType string, quantity int64) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	return s.txManager.Begin(ctx, func(ctx context.Context) error {
		coupons, err := s.couponRepo.SelectUnusedForUpdate(ctx, couponType, quantity)
		if err != nil {
			return err
		}
		if int64(len(coupons)) < quantity {
			return ErrInsufficientStock
		}

		ids := make([]int64, 0, len(coupons))
		for _, coupon := range coupons {
			ids = append(ids, coupon.ID)
		}
		return s.couponRepo.DeleteByIDs(ctx, ids)
	})
}

func (s *Service) AddStock(ctx context.Context, couponType string, codes []string) (int64, error) {
	cleaned := make([]string, 0, len(codes))
	for _, code := range codes {
		if code != "" {
			cleaned = append(cleaned, code)
		}
	}
	if len(cleaned) == 0 {
		return 0, nil
	}

	added, err := s.couponRepo.InsertBatch(ctx, couponType, cleaned)
	if err != nil {
		zap.L().Error("failed to add stock", zap.Error(err))
		return 0, err
	}
	return added, nil
}

func (s *Service) Stock(ctx context.Context) (map[string]int64, error) {
	counts, err := s.couponRepo.StockCounts(ctx)
	if err != nil {
		zap.L().Error("failed to get stock", zap.Error(err))
		return nil, err
	}
	return counts, nil
}

func (s *Service) StockFor(ctx context.Context, couponType string) (int64, error) {
	count, err := s.couponRepo.CountUnused(ctx, couponType)
	if err != nil {
		zap.L().Error("failed to count stock", zap.Error(err))
		return 0, err
	}
	return count, nil
}
