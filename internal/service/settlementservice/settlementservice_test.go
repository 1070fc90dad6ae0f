package settlementservice

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
	accountrepo "github.com/avbochkov/vendobot/internal/repo/account-repo"
	"github.com/avbochkov/vendobot/internal/service/inventoryservice"
)

func NewMock(t *testing.T) (*Service, *MockAllocator, *MockAccountRepo, *MockOrderRepo, *MockPriceRepo, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	allocator := NewMockAllocator(ctrl)
	accountRepo := NewMockAccountRepo(ctrl)
	orderRepo := NewMockOrderRepo(ctrl)
	priceRepo := NewMockPriceRepo(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	service := New(allocator, accountRepo, orderRepo, priceRepo, txManager)
	defer ctrl.Finish()
	return service, allocator, accountRepo, orderRepo, priceRepo, txManager
}

func passthroughTx(txManager *pg.MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func TestPurchase(t *testing.T) {
	service, allocator, accountRepo, orderRepo, priceRepo, txManager := NewMock(t)

	price := &domain.PriceEntry{Type: "500", Price: 500}
	coupons := []domain.Coupon{
		{ID: 1, Code: "AAAA-1111", Type: "500"},
		{ID: 2, Code: "BBBB-2222", Type: "500"},
		{ID: 3, Code: "CCCC-3333", Type: "500"},
	}

	tests := []struct {
		name          string
		quantity      int64
		prepareMock   func()
		check         func(t *testing.T, receipt *domain.Receipt)
		expectedError error
	}{
		{
			name:     "Happy path settles debit, allocation and order rows together",
			quantity: 3,
			prepareMock: func() {
				passthroughTx(txManager)
				priceRepo.EXPECT().GetPrice(gomock.Any(), "500").Return(price, nil)
				accountRepo.EXPECT().AdjustBalance(gomock.Any(), int64(42), int64(-1500)).Return(int64(500), nil)
				allocator.EXPECT().Allocate(gomock.Any(), int64(42), "500", int64(3)).Return(coupons, nil)
				orderRepo.EXPECT().InsertMany(gomock.Any(), gomock.Any()).DoAndReturn(
					func(ctx context.Context, orders []domain.Order) error {
						assert.Len(t, orders, 3)
						for _, order := range orders {
							assert.Equal(t, orders[0].OrderID, order.OrderID)
							assert.Equal(t, int64(42), order.UserID)
							assert.Equal(t, int64(500), order.Amount)
						}
						return nil
					})
			},
			check: func(t *testing.T, receipt *domain.Receipt) {
				assert.Len(t, receipt.OrderID, 8)
				assert.Equal(t, []string{"AAAA-1111", "BBBB-2222", "CCCC-3333"}, receipt.Codes)
				assert.Equal(t, int64(1500), receipt.TotalPrice)
				assert.Equal(t, int64(500), receipt.NewBalance)
			},
		},
		{
			name:     "Insufficient balance refuses before allocation",
			quantity: 3,
			prepareMock: func() {
				passthroughTx(txManager)
				priceRepo.EXPECT().GetPrice(gomock.Any(), "500").Return(price, nil)
				accountRepo.EXPECT().AdjustBalance(gomock.Any(), int64(42), int64(-1500)).
					Return(int64(0), accountrepo.ErrBalanceConstraint)
			},
			expectedError: ErrInsufficientBalance,
		},
		{
			name:     "Allocation failure rolls the debit back",
			quantity: 3,
			prepareMock: func() {
				passthroughTx(txManager)
				priceRepo.EXPECT().GetPrice(gomock.Any(), "500").Return(price, nil)
				accountRepo.EXPECT().AdjustBalance(gomock.Any(), int64(42), int64(-1500)).Return(int64(500), nil)
				allocator.EXPECT().Allocate(gomock.Any(), int64(42), "500", int64(3)).
					Return(nil, inventoryservice.ErrInsufficientStock)
			},
			expectedError: inventoryservice.ErrInsufficientStock,
		},
		{
			name:     "Missing price refuses the purchase",
			quantity: 1,
			prepareMock: func() {
				passthroughTx(txManager)
				priceRepo.EXPECT().GetPrice(gomock.Any(), "500").Return(nil, nil)
			},
			expectedError: ErrPriceNotFound,
		},
		{
			name:          "Zero quantity is rejected",
			quantity:      0,
			prepareMock:   func() {},
			expectedError: inventoryservice.ErrInvalidQuantity,
		},
		{
			name:     "Serialization failure maps to allocation race",
			quantity: 1,
			prepareMock: func() {
				txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
					Return(&pgconn.PgError{Code: "40001"})
			},
			expectedError: ErrAllocationRace,
		},
		{
			name:     "Deadlock maps to allocation race",
			quantity: 1,
			prepareMock: func() {
				txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
					Return(&pgconn.PgError{Code: "40P01"})
			},
			expectedError: ErrAllocationRace,
		},
		{
			name:     "Order persistence failure aborts the purchase",
			quantity: 1,
			prepareMock: func() {
				passthroughTx(txManager)
				priceRepo.EXPECT().GetPrice(gomock.Any(), "500").Return(price, nil)
				accountRepo.EXPECT().AdjustBalance(gomock.Any(), int64(42), int64(-500)).Return(int64(1500), nil)
				allocator.EXPECT().Allocate(gomock.Any(), int64(42), "500", int64(1)).Return(coupons[:1], nil)
				orderRepo.EXPECT().InsertMany(gomock.Any(), gomock.Any()).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			receipt, err := service.Purchase(context.Background(), 42, "500", tt.quantity)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Nil(t, receipt)
			} else {
				assert.NoError(t, err)
				if tt.check != nil {
					tt.check(t, receipt)
				}
			}
		})
	}
}

func TestIsSerializationFailure(t *testing.T) {
	assert.True(t, isSerializationFailure(&pgconn.PgError{Code: "40001"}))
	assert.True(t, isSerializationFailure(&pgconn.PgError{Code: "40P01"}))
	assert.False(t, isSerializationFailure(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isSerializationFailure(errors.New("plain error")))
}
