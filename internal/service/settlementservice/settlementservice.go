package settlementservice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
	accountrepo "github.com/avbochkov/vendobot/internal/repo/account-repo"
	"github.com/avbochkov/vendobot/internal/service/inventoryservice"
)

//go:generate mockgen -source=settlementservice.go -destination=settlementservice_mock.go -package=settlementservice

type Allocator interface {
	Allocate(ctx context.Context, buyerID int64, couponType string, quantity int64) ([]domain.Coupon, error)
}

type AccountRepo interface {
	AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error)
}

type OrderRepo interface {
	InsertMany(ctx context.Context, orders []domain.Order) error
}

type PriceRepo interface {
	GetPrice(ctx context.Context, couponType string) (*domain.PriceEntry, error)
}

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrPriceNotFound       = errors.New("no price for coupon type")
	ErrAllocationRace      = errors.New("allocation lost a concurrent race")
)

type Service struct {
	allocator   Allocator
	accountRepo AccountRepo
	orderRepo   OrderRepo
	priceRepo   PriceRepo
	txManager   pg.TXManager
}

func New(allocator Allocator, accountRepo AccountRepo, orderRepo OrderRepo, priceRepo PriceRepo, txManager pg.TXManager) *Service {
	return &Service{
		allocator:   allocator,
		accountRepo: accountRepo,
		orderRepo:   orderRepo,
		priceRepo:   priceRepo,
		txManager:   txManager,
	}
}

// Purchase settles balance against stock: read price, debit, allocate,
// record one order row per coupon, all in one transaction. Any failure after
// the debit rolls the whole transaction back, so the buyer never loses funds
// for coupons that were not delivered.
func (s *Service) Purchase(ctx context.Context, buyerID int64, couponType string, quantity int64) (*domain.Receipt, error) {
	if quantity <= 0 {
		return nil, inventoryservice.ErrInvalidQuantity
	}

	var receipt *domain.Receipt
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		entry, err := s.priceRepo.GetPrice(ctx, couponType)
		if err != nil {
			return err
		}
		if entry == nil {
			return ErrPriceNotFound
		}
		total := entry.Price * quantity

		newBalance, err := s.accountRepo.AdjustBalance(ctx, buyerID, -total)
		if err != nil {
			if errors.Is(err, accountrepo.ErrBalanceConstraint) {
				return ErrInsufficientBalance
			}
			return err
		}

		coupons, err := s.allocator.Allocate(ctx, buyerID, couponType, quantity)
		if err != nil {
			// rollback reverses the debit
			return err
		}

		orderID := uuid.NewString()[:8]
		orders := make([]domain.Order, 0, len(coupons))
		codes := make([]string, 0, len(coupons))
		for _, coupon := range coupons {
			orders = append(orders, domain.Order{
				OrderID:    orderID,
				UserID:     buyerID,
				CouponCode: coupon.Code,
				Amount:     entry.Price,
			})
			codes = append(codes, coupon.Code)
		}
		if err := s.orderRepo.InsertMany(ctx, orders); err != nil {
			return err
		}

		receipt = &domain.Receipt{
			OrderID:    orderID,
			CouponType: couponType,
			Codes:      codes,
			TotalPrice: total,
			NewBalance: newBalance,
		}
		return nil
	})
	if err != nil {
		if isSerializationFailure(err) {
			zap.L().Warn("purchase lost an allocation race", zap.Int64("buyer", buyerID), zap.Error(err))
			return nil, ErrAllocationRace
		}
		return nil, err
	}

	zap.L().Info("purchase settled",
		zap.Int64("buyer", buyerID),
		zap.String("order", receipt.OrderID),
		zap.Int64("total", receipt.TotalPrice))
	return receipt, nil
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure or deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
