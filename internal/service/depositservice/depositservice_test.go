package depositservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
)

const (
	operatorID = int64(1000)
	minAmount  = int64(30)
	coinRate   = int64(1)
)

func NewMock(t *testing.T) (*Service, *MockClaimRepo, *MockAccountRepo, *MockNotifier, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	claimRepo := NewMockClaimRepo(ctrl)
	accountRepo := NewMockAccountRepo(ctrl)
	notifier := NewMockNotifier(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	service := New(claimRepo, accountRepo, notifier, txManager, operatorID, minAmount, coinRate)
	defer ctrl.Finish()
	return service, claimRepo, accountRepo, notifier, txManager
}

func passthroughTx(txManager *pg.MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func TestSubmitClaim(t *testing.T) {
	service, claimRepo, _, _, _ := NewMock(t)

	tests := []struct {
		name          string
		amount        int64
		method        domain.PaymentMethod
		evidence      string
		prepareMock   func()
		check         func(t *testing.T, claim *domain.Claim)
		expectedError error
	}{
		{
			name:     "UPI claim stores payer name",
			amount:   100,
			method:   domain.MethodUPI,
			evidence: "Alice",
			prepareMock: func() {
				claimRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, claim *domain.Claim) error {
						assert.NotEmpty(t, claim.ID)
						assert.Equal(t, domain.ClaimPending, claim.Status)
						assert.Equal(t, "Alice", claim.PayerName)
						assert.Empty(t, claim.GiftcardCode)
						return nil
					})
			},
			check: func(t *testing.T, claim *domain.Claim) {
				assert.Equal(t, int64(100), claim.Amount)
			},
		},
		{
			name:     "Gift card claim stores the code",
			amount:   50,
			method:   domain.MethodGiftCard,
			evidence: "GC-123",
			prepareMock: func() {
				claimRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, claim *domain.Claim) error {
						assert.Equal(t, "GC-123", claim.GiftcardCode)
						assert.Empty(t, claim.PayerName)
						return nil
					})
			},
		},
		{
			name:          "Amount below minimum is refused",
			amount:        29,
			method:        domain.MethodUPI,
			evidence:      "Alice",
			prepareMock:   func() {},
			expectedError: ErrAmountBelowMinimum,
		},
		{
			name:     "Database error",
			amount:   100,
			method:   domain.MethodUPI,
			evidence: "Alice",
			prepareMock: func() {
				claimRepo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			claim, err := service.SubmitClaim(context.Background(), 42, tt.amount, tt.method, tt.evidence, "photo-1")
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Nil(t, claim)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, claim)
				}
			}
		})
	}
}

func TestApprove(t *testing.T) {
	service, claimRepo, accountRepo, notifier, txManager := NewMock(t)

	pending := &domain.Claim{
		ID:     "claim-1",
		UserID: 42,
		Amount: 100,
		Method: domain.MethodUPI,
		Status: domain.ClaimPending,
	}

	tests := []struct {
		name          string
		actorID       int64
		prepareMock   func()
		expectedError error
	}{
		{
			name:    "Approval credits once and notifies after commit",
			actorID: operatorID,
			prepareMock: func() {
				passthroughTx(txManager)
				claimRepo.EXPECT().FindByID(gomock.Any(), "claim-1").DoAndReturn(
					func(ctx context.Context, claimID string) (*domain.Claim, error) {
						claim := *pending
						return &claim, nil
					})
				claimRepo.EXPECT().Resolve(gomock.Any(), "claim-1", domain.ClaimApproved).Return(true, nil)
				accountRepo.EXPECT().AdjustBalance(gomock.Any(), int64(42), int64(100)).Return(int64(100), nil)
				notifier.EXPECT().ClaimApproved(gomock.Any(), int64(42), int64(100)).Return(nil)
			},
		},
		{
			name:    "Second approval is refused with no credit",
			actorID: operatorID,
			prepareMock: func() {
				passthroughTx(txManager)
				claimRepo.EXPECT().FindByID(gomock.Any(), "claim-1").
					Return(&domain.Claim{ID: "claim-1", UserID: 42, Amount: 100, Status: domain.ClaimApproved}, nil)
				claimRepo.EXPECT().Resolve(gomock.Any(), "claim-1", domain.ClaimApproved).Return(false, nil)
			},
			expectedError: ErrClaimResolved,
		},
		{
			name:          "Non-operator is refused",
			actorID:       42,
			prepareMock:   func() {},
			expectedError: ErrNotAuthorized,
		},
		{
			name:    "Unknown claim",
			actorID: operatorID,
			prepareMock: func() {
				passthroughTx(txManager)
				claimRepo.EXPECT().FindByID(gomock.Any(), "claim-1").Return(nil, nil)
			},
			expectedError: ErrClaimNotFound,
		},
		{
			name:    "Notification failure does not undo the approval",
			actorID: operatorID,
			prepareMock: func() {
				passthroughTx(txManager)
				claimRepo.EXPECT().FindByID(gomock.Any(), "claim-1").DoAndReturn(
					func(ctx context.Context, claimID string) (*domain.Claim, error) {
						claim := *pending
						return &claim, nil
					})
				claimRepo.EXPECT().Resolve(gomock.Any(), "claim-1", domain.ClaimApproved).Return(true, nil)
				accountRepo.EXPECT().AdjustBalance(gomock.Any(), int64(42), int64(100)).Return(int64(100), nil)
				notifier.EXPECT().ClaimApproved(gomock.Any(), int64(42), int64(100)).Return(errors.New("send failed"))
			},
		},
		{
			name:    "Credit failure aborts the approval",
			actorID: operatorID,
			prepareMock: func() {
				passthroughTx(txManager)
				claimRepo.EXPECT().FindByID(gomock.Any(), "claim-1").DoAndReturn(
					func(ctx context.Context, claimID string) (*domain.Claim, error) {
						claim := *pending
						return &claim, nil
					})
				claimRepo.EXPECT().Resolve(gomock.Any(), "claim-1", domain.ClaimApproved).Return(true, nil)
				accountRepo.EXPECT().AdjustBalance(gomock.Any(), int64(42), int64(100)).Return(int64(0), errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			claim, err := service.Approve(context.Background(), "claim-1", tt.actorID)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Nil(t, claim)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, domain.ClaimApproved, claim.Status)
			}
		})
	}
}

func TestDecline(t *testing.T) {
	service, claimRepo, _, notifier, txManager := NewMock(t)

	pending := &domain.Claim{
		ID:     "claim-1",
		UserID: 42,
		Amount: 100,
		Status: domain.ClaimPending,
	}

	tests := []struct {
		name          string
		actorID       int64
		prepareMock   func()
		expectedError error
	}{
		{
			name:    "Decline marks the claim with no balance change",
			actorID: operatorID,
			prepareMock: func() {
				passthroughTx(txManager)
				claimRepo.EXPECT().FindByID(gomock.Any(), "claim-1").DoAndReturn(
					func(ctx context.Context, claimID string) (*domain.Claim, error) {
						claim := *pending
						return &claim, nil
					})
				claimRepo.EXPECT().Resolve(gomock.Any(), "claim-1", domain.ClaimDeclined).Return(true, nil)
				notifier.EXPECT().ClaimDeclined(gomock.Any(), int64(42)).Return(nil)
			},
		},
		{
			name:    "Already resolved claim is refused",
			actorID: operatorID,
			prepareMock: func() {
				passthroughTx(txManager)
				claimRepo.EXPECT().FindByID(gomock.Any(), "claim-1").
					Return(&domain.Claim{ID: "claim-1", UserID: 42, Status: domain.ClaimDeclined}, nil)
				claimRepo.EXPECT().Resolve(gomock.Any(), "claim-1", domain.ClaimDeclined).Return(false, nil)
			},
			expectedError: ErrClaimResolved,
		},
		{
			name:          "Non-operator is refused",
			actorID:       42,
			prepareMock:   func() {},
			expectedError: ErrNotAuthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			claim, err := service.Decline(context.Background(), "claim-1", tt.actorID)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Nil(t, claim)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, domain.ClaimDeclined, claim.Status)
			}
		})
	}
}

func TestCoins(t *testing.T) {
	service, _, _, _, _ := NewMock(t)
	assert.Equal(t, int64(100), service.Coins(100))
	assert.Equal(t, minAmount, service.MinAmount())
}
