package accountservice

import (
	"context"

	"github.com/avbochkov/vendobot/internal/domain"
	"go.uber.org/zap"
)

//go:generate mockgen -source=accountservice.go -destination=accountservice_mock.go -package=accountservice

type AccountRepo interface {
	FindByID(ctx context.Context, userID int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
}

type OrderRepo interface {
	FindByUserID(ctx context.Context, userID int64, limit int64) ([]domain.Order, error)
	FindRecentWithBuyers(ctx context.Context, limit int64) ([]domain.OrderWithBuyer, error)
}

type Service struct {
	accountRepo AccountRepo
	orderRepo   OrderRepo
}

func New(accountRepo AccountRepo, orderRepo OrderRepo) *Service {
	return &Service{
		accountRepo: accountRepo,
		orderRepo:   orderRepo,
	}
}

// EnsureAccount creates the account on first contact and returns it.
func (s *Service) EnsureAccount(ctx context.Context, userID int64, username, firstName, lastName string) (*domain.User, error) {
	user, err := s.accountRepo.FindByID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to look up account", zap.Error(err))
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	created, err := s.accountRepo.Create(ctx, &domain.User{
		ID:        userID,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		zap.L().Error("failed to create account", zap.Error(err))
		return nil, err
	}
	zap.L().Info("account created", zap.Int64("user", userID))
	return created, nil
}

func (s *Service) GetBalance(ctx context.Context, userID int64) (int64, error) {
	balance, err := s.accountRepo.GetBalance(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return 0, err
	}
	return balance, nil
}

func (s *Service) RecentOrders(ctx context.Context, userID int64, limit int64) ([]domain.Order, error) {
	orders, err := s.orderRepo.FindByUserID(ctx, userID, limit)
	if err != nil {
		zap.L().Error("failed to fetch orders", zap.Error(err))
		return nil, err
	}
	return orders, nil
}

func (s *Service) RecentBuyers(ctx context.Context, limit int64) ([]domain.OrderWithBuyer, error) {
	orders, err := s.orderRepo.FindRecentWithBuyers(ctx, limit)
	if err != nil {
		zap.L().Error("failed to fetch buyers", zap.Error(err))
		return nil, err
	}
	return orders, nil
}
