package inventoryservice

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/pg"
)

func NewMock(t *testing.T) (*Service, *MockRepo, *pg.MockTXManager) {
	ctrl := gomock.NewController(t)
	couponRepo := NewMockRepo(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	service := New(couponRepo, txManager)
	defer ctrl.Finish()
	return service, couponRepo, txManager
}

func passthroughTx(txManager *pg.MockTXManager) {
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		})
}

func TestAllocate(t *testing.T) {
	service, couponRepo, txManager := NewMock(t)

	locked := []domain.Coupon{
		{ID: 1, Code: "AAAA-1111", Type: "500"},
		{ID: 2, Code: "BBBB-2222", Type: "500"},
	}

	tests := []struct {
		name          string
		quantity      int64
		prepareMock   func()
		expected      []domain.Coupon
		expectedError error
	}{
		{
			name:     "Allocates exactly the requested quantity",
			quantity: 2,
			prepareMock: func() {
				passthroughTx(txManager)
				couponRepo.EXPECT().SelectUnusedForUpdate(gomock.Any(), "500", int64(2)).Return(locked, nil)
				couponRepo.EXPECT().MarkUsed(gomock.Any(), []int64{1, 2}, int64(42)).Return(nil)
			},
			expected: locked,
		},
		{
			name:     "Short stock consumes nothing",
			quantity: 3,
			prepareMock: func() {
				passthroughTx(txManager)
				couponRepo.EXPECT().SelectUnusedForUpdate(gomock.Any(), "500", int64(3)).Return(locked, nil)
			},
			expectedError: ErrInsufficientStock,
		},
		{
			name:          "Zero quantity is rejected without touching the store",
			quantity:      0,
			prepareMock:   func() {},
			expectedError: ErrInvalidQuantity,
		},
		{
			name:     "Selection error aborts the transaction",
			quantity: 2,
			prepareMock: func() {
				passthroughTx(txManager)
				couponRepo.EXPECT().SelectUnusedForUpdate(gomock.Any(), "500", int64(2)).Return(nil, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
		{
			name:     "MarkUsed error aborts the transaction",
			quantity: 2,
			prepareMock: func() {
				passthroughTx(txManager)
				couponRepo.EXPECT().SelectUnusedForUpdate(gomock.Any(), "500", int64(2)).Return(locked, nil)
				couponRepo.EXPECT().MarkUsed(gomock.Any(), []int64{1, 2}, int64(42)).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			coupons, err := service.Allocate(context.Background(), 42, "500", tt.quantity)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
				assert.Nil(t, coupons)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, coupons)
			}
		})
	}
}

func TestRemoveStock(t *testing.T) {
	service, couponRepo, txManager := NewMock(t)

	locked := []domain.Coupon{
		{ID: 5, Code: "EEEE-5555", Type: "1K"},
	}

	tests := []struct {
		name          string
		quantity      int64
		prepareMock   func()
		expectedError error
	}{
		{
			name:     "Deletes locked coupons",
			quantity: 1,
			prepareMock: func() {
				passthroughTx(txManager)
				couponRepo.EXPECT().SelectUnusedForUpdate(gomock.Any(), "1K", int64(1)).Return(locked, nil)
				couponRepo.EXPECT().DeleteByIDs(gomock.Any(), []int64{5}).Return(nil)
			},
		},
		{
			name:     "Short stock removes nothing",
			quantity: 2,
			prepareMock: func() {
				passthroughTx(txManager)
				couponRepo.EXPECT().SelectUnusedForUpdate(gomock.Any(), "1K", int64(2)).Return(locked, nil)
			},
			expectedError: ErrInsufficientStock,
		},
		{
			name:          "Zero quantity is rejected",
			quantity:      0,
			prepareMock:   func() {},
			expectedError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := service.RemoveStock(context.Background(), "1K", tt.quantity)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddStock(t *testing.T) {
	service, couponRepo, _ := NewMock(t)

	tests := []struct {
		name          string
		codes         []string
		prepareMock   func()
		expected      int64
		expectedError error
	}{
		{
			name:  "Inserts cleaned codes",
			codes: []string{"AAAA-1111", "", "BBBB-2222"},
			prepareMock: func() {
				couponRepo.EXPECT().InsertBatch(gomock.Any(), "2K", []string{"AAAA-1111", "BBBB-2222"}).Return(int64(2), nil)
			},
			expected: 2,
		},
		{
			name:        "All-blank input skips the store",
			codes:       []string{"", ""},
			prepareMock: func() {},
			expected:    0,
		},
		{
			name:  "Database error",
			codes: []string{"AAAA-1111"},
			prepareMock: func() {
				couponRepo.EXPECT().InsertBatch(gomock.Any(), "2K", []string{"AAAA-1111"}).Return(int64(0), errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			added, err := service.AddStock(context.Background(), "2K", tt.codes)
			if tt.expectedError != nil {
				assert.EqualError(t, err, tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, added)
			}
		})
	}
}

func TestStock(t *testing.T) {
	service, couponRepo, _ := NewMock(t)

	counts := map[string]int64{"500": 3, "1K": 0}
	couponRepo.EXPECT().StockCounts(gomock.Any()).Return(counts, nil)

	got, err := service.Stock(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, counts, got)
}

func TestStockFor(t *testing.T) {
	service, couponRepo, _ := NewMock(t)

	couponRepo.EXPECT().CountUnused(gomock.Any(), "4K").Return(int64(7), nil)

	count, err := service.StockFor(context.Background(), "4K")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
}
