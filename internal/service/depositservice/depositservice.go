package depositservice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
)

//go:generate mockgen -source=depositservice.go -destination=depositservice_mock.go -package=depositservice

type ClaimRepo interface {
	Insert(ctx context.Context, claim *domain.Claim) error
	FindByID(ctx context.Context, claimID string) (*domain.Claim, error)
	Resolve(ctx context.Context, claimID string, status domain.ClaimStatus) (bool, error)
}

type AccountRepo interface {
	AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error)
}

// Notifier delivers the resolution outcome to the claimant. It is called
// only after the store mutation has committed; a delivery failure is logged,
// not rolled back, because the claim row is the source of truth.
type Notifier interface {
	ClaimApproved(ctx context.Context, userID int64, amount int64) error
	ClaimDeclined(ctx context.Context, userID int64) error
}

var (
	ErrAmountBelowMinimum = errors.New("amount below deposit minimum")
	ErrClaimNotFound      = errors.New("claim not found")
	ErrClaimResolved      = errors.New("claim already resolved")
	ErrNotAuthorized      = errors.New("not authorized")
)

type Service struct {
	claimRepo   ClaimRepo
	accountRepo AccountRepo
	notifier    Notifier
	txManager   pg.TXManager
	operatorID  int64
	minAmount   int64
	coinRate    int64
}

func New(claimRepo ClaimRepo, accountRepo AccountRepo, notifier Notifier, txManager pg.TXManager, operatorID, minAmount, coinRate int64) *Service {
	return &Service{
		claimRepo:   claimRepo,
		accountRepo: accountRepo,
		notifier:    notifier,
		txManager:   txManager,
		operatorID:  operatorID,
		minAmount:   minAmount,
		coinRate:    coinRate,
	}
}

func (s *Service) MinAmount() int64 {
	return s.minAmount
}

// Coins converts a claimed payment amount to balance units.
func (s *Service) Coins(amount int64) int64 {
	return amount * s.coinRate
}

// SubmitClaim records a pending deposit claim. No ledger effect until the
// operator approves it.
func (s *Service) SubmitClaim(ctx context.Context, userID, amount int64, method domain.PaymentMethod, evidence, screenshotID string) (*domain.Claim, error) {
	if amount < s.minAmount {
		return nil, ErrAmountBelowMinimum
	}

	claim := &domain.Claim{
		ID:           uuid.NewString(),
		UserID:       userID,
		Amount:       amount,
		Method:       method,
		ScreenshotID: screenshotID,
		Status:       domain.ClaimPending,
	}
	switch method {
	case domain.MethodGiftCard:
		claim.GiftcardCode = evidence
	case domain.MethodUPI:
		claim.PayerName = evidence
	}

	if err := s.claimRepo.Insert(ctx, claim); err != nil {
		zap.L().Error("failed to submit claim", zap.Error(err))
		return nil, err
	}

	zap.L().Info("claim submitted",
		zap.String("claim", claim.ID),
		zap.Int64("user", userID),
		zap.Int64("amount", amount),
		zap.String("method", string(method)))
	return claim, nil
}

// Approve credits the claimant and marks the claim approved, exactly once.
// The conditional resolve and the credit share a transaction, so a repeated
// approval can never produce a second credit.
func (s *Service) Approve(ctx context.Context, claimID string, actorID int64) (*domain.Claim, error) {
	if actorID != s.operatorID {
		return nil, ErrNotAuthorized
	}

	var claim *domain.Claim
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		found, err := s.claimRepo.FindByID(ctx, claimID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrClaimNotFound
		}

		resolved, err := s.claimRepo.Resolve(ctx, claimID, domain.ClaimApproved)
		if err != nil {
			return err
		}
		if !resolved {
			return ErrClaimResolved
		}

		if _, err := s.accountRepo.AdjustBalance(ctx, found.UserID, s.Coins(found.Amount)); err != nil {
			return err
		}
		found.Status = domain.ClaimApproved
		claim = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("claim approved", zap.String("claim", claimID), zap.Int64("user", claim.UserID))
	if err := s.notifier.ClaimApproved(ctx, claim.UserID, s.Coins(claim.Amount)); err != nil {
		zap.L().Error("failed to notify claimant of approval", zap.Error(err))
	}
	return claim, nil
}

// Decline marks the claim declined with no ledger effect.
func (s *Service) Decline(ctx context.Context, claimID string, actorID int64) (*domain.Claim, error) {
	if actorID != s.operatorID {
		return nil, ErrNotAuthorized
	}

	var claim *domain.Claim
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		found, err := s.claimRepo.FindByID(ctx, claimID)
		if err != nil {
			return err
		}
		if found == nil {
			return ErrClaimNotFound
		}

		resolved, err := s.claimRepo.Resolve(ctx, claimID, domain.ClaimDeclined)
		if err != nil {
			return err
		}
		if !resolved {
			return ErrClaimResolved
		}
		found.Status = domain.ClaimDeclined
		claim = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("claim declined", zap.String("claim", claimID), zap.Int64("user", claim.UserID))
	if err := s.notifier.ClaimDeclined(ctx, claim.UserID); err != nil {
		zap.L().Error("failed to notify claimant of decline", zap.Error(err))
	}
	return claim, nil
}
