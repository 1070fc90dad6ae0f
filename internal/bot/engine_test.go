package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/avbochkov/vendobot/internal/bot/session"
	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/service/depositservice"
	"github.com/avbochkov/vendobot/internal/service/inventoryservice"
	"github.com/avbochkov/vendobot/internal/service/settlementservice"
	"github.com/avbochkov/vendobot/internal/telegram"
)

const (
	testOperatorID = int64(1000)
	testUserID     = int64(42)
)

type engineMocks struct {
	accounts   *MockAccountService
	inventory  *MockInventoryService
	settlement *MockSettlementService
	deposits   *MockDepositService
	pricing    *MockPricingService
	channel    *MockChannel
	sessions   *session.Store
}

func NewMock(t *testing.T) (*Engine, *engineMocks) {
	ctrl := gomock.NewController(t)
	m := &engineMocks{
		accounts:   NewMockAccountService(ctrl),
		inventory:  NewMockInventoryService(ctrl),
		settlement: NewMockSettlementService(ctrl),
		deposits:   NewMockDepositService(ctrl),
		pricing:    NewMockPricingService(ctrl),
		channel:    NewMockChannel(ctrl),
		sessions:   session.NewStore(),
	}
	engine := NewEngine(testOperatorID, m.accounts, m.inventory, m.settlement, m.deposits, m.pricing, m.channel, m.sessions)

	m.accounts.EXPECT().
		EnsureAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&domain.User{ID: testUserID, FirstName: "Alice"}, nil).
		AnyTimes()

	defer ctrl.Finish()
	return engine, m
}

func textEvent(text string) Event {
	return Event{Kind: EventText, UserID: testUserID, ChatID: testUserID, Text: text}
}

func callbackEvent(data string) Event {
	return Event{Kind: EventCallback, UserID: testUserID, ChatID: testUserID, Data: data, CallbackID: "cb-1", MessageID: 5}
}

func (m *engineMocks) flowOf(userID int64) session.Flow {
	var flow session.Flow
	_ = m.sessions.WithLock(userID, func(s *session.Session) error {
		flow = s.Flow
		return nil
	})
	return flow
}

func TestStartCommand(t *testing.T) {
	engine, m := NewMock(t)

	m.channel.EXPECT().
		SendText(gomock.Any(), testUserID, "Welcome To The AutoEarnX Selling Bot, Alice! 🚀\n\nUse the buttons below to navigate:", gomock.Any()).
		Return(nil)

	ev := Event{Kind: EventCommand, UserID: testUserID, ChatID: testUserID, Text: "/start"}
	assert.NoError(t, engine.Handle(context.Background(), ev))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))
}

func TestMenuTokenResetsActiveFlow(t *testing.T) {
	engine, m := NewMock(t)

	m.channel.EXPECT().SendText(gomock.Any(), testUserID, "💳 Select Payment Method:", gomock.Any()).Return(nil)
	assert.NoError(t, engine.Handle(context.Background(), textEvent(MenuAddCoins)))
	assert.Equal(t, session.FlowDepositMethod, m.flowOf(testUserID))

	m.accounts.EXPECT().GetBalance(gomock.Any(), testUserID).Return(int64(1500), nil)
	m.channel.EXPECT().SendText(gomock.Any(), testUserID, "💰 Your Balance: 1500 Diamonds 🪙", nil).Return(nil)
	assert.NoError(t, engine.Handle(context.Background(), textEvent(MenuBalance)))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))
}

func TestPurchaseHappyPath(t *testing.T) {
	engine, m := NewMock(t)
	ctx := context.Background()

	m.channel.EXPECT().SendText(gomock.Any(), testUserID, msgTerms, gomock.Any()).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent(MenuBuyCoupon)))

	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil).AnyTimes()

	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, "🛒 Select a coupon type:", gomock.Any()).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent(cbTermsAgree)))
	assert.Equal(t, session.FlowCouponType, m.flowOf(testUserID))

	m.pricing.EXPECT().GetPrice(gomock.Any(), "500").Return(int64(500), nil)
	m.inventory.EXPECT().StockFor(gomock.Any(), "500").Return(int64(5), nil)
	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, gomock.Any(), nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent("coupon_500")))
	assert.Equal(t, session.FlowQuantity, m.flowOf(testUserID))

	receipt := &domain.Receipt{
		OrderID:    "a1b2c3d4",
		CouponType: "500",
		Codes:      []string{"AAAA-1111", "BBBB-2222", "CCCC-3333"},
		TotalPrice: 1500,
		NewBalance: 500,
	}
	m.settlement.EXPECT().Purchase(gomock.Any(), testUserID, "500", int64(3)).Return(receipt, nil)
	m.channel.EXPECT().
		SendText(gomock.Any(), testUserID, "✅ Purchase Successful!\n\nYour 500 coupons:\nAAAA-1111\nBBBB-2222\nCCCC-3333\n\nTotal spent: 1500 🪙", nil).
		Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("3")))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))
}

func TestPurchaseQuantityReprompt(t *testing.T) {
	engine, m := NewMock(t)
	ctx := context.Background()

	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil)
	m.pricing.EXPECT().GetPrice(gomock.Any(), "1K").Return(int64(1000), nil)
	m.inventory.EXPECT().StockFor(gomock.Any(), "1K").Return(int64(2), nil)
	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, gomock.Any(), nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent("coupon_1K")))

	// bad number keeps the quantity flow armed
	m.channel.EXPECT().SendText(gomock.Any(), testUserID, msgInvalidNumber, nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("three")))
	assert.Equal(t, session.FlowQuantity, m.flowOf(testUserID))

	m.channel.EXPECT().SendText(gomock.Any(), testUserID, msgInvalidNumber, nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("0")))
	assert.Equal(t, session.FlowQuantity, m.flowOf(testUserID))
}

func TestPurchaseShortfalls(t *testing.T) {
	engine, m := NewMock(t)
	ctx := context.Background()

	arm := func() {
		m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil)
		m.pricing.EXPECT().GetPrice(gomock.Any(), "500").Return(int64(500), nil)
		m.inventory.EXPECT().StockFor(gomock.Any(), "500").Return(int64(2), nil)
		m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, gomock.Any(), nil).Return(nil)
		assert.NoError(t, engine.Handle(ctx, callbackEvent("coupon_500")))
	}

	arm()
	m.settlement.EXPECT().Purchase(gomock.Any(), testUserID, "500", int64(5)).
		Return(nil, inventoryservice.ErrInsufficientStock)
	m.inventory.EXPECT().StockFor(gomock.Any(), "500").Return(int64(2), nil)
	m.channel.EXPECT().SendText(gomock.Any(), testUserID, "❌ Not enough stock! Available: 2", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("5")))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))

	arm()
	m.settlement.EXPECT().Purchase(gomock.Any(), testUserID, "500", int64(2)).
		Return(nil, settlementservice.ErrInsufficientBalance)
	m.accounts.EXPECT().GetBalance(gomock.Any(), testUserID).Return(int64(300), nil)
	m.channel.EXPECT().SendText(gomock.Any(), testUserID, "❌ Not enough diamonds! Available: 300 🪙", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("2")))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))

	arm()
	m.settlement.EXPECT().Purchase(gomock.Any(), testUserID, "500", int64(1)).
		Return(nil, errors.New("db error"))
	m.channel.EXPECT().SendText(gomock.Any(), testUserID, msgRetryLater, nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("1")))
	// transient failure keeps the flow so the user can retry
	assert.Equal(t, session.FlowQuantity, m.flowOf(testUserID))
}

func TestDepositUPIFlow(t *testing.T) {
	engine, m := NewMock(t)
	ctx := context.Background()

	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil).AnyTimes()
	m.deposits.EXPECT().MinAmount().Return(int64(30)).AnyTimes()

	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, "How much coins you need? (Minimum: 30)", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent(cbPaymentUPI)))
	assert.Equal(t, session.FlowDepositAmount, m.flowOf(testUserID))

	// below minimum re-prompts without advancing
	m.channel.EXPECT().SendText(gomock.Any(), testUserID, "Minimum amount is 30. Please enter a higher amount.", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("10")))
	assert.Equal(t, session.FlowDepositAmount, m.flowOf(testUserID))

	m.pricing.EXPECT().GetQR(gomock.Any()).Return("qr-file", nil)
	m.channel.EXPECT().SendImage(gomock.Any(), testUserID, "qr-file", gomock.Any(), gomock.Any()).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("100")))
	assert.Equal(t, session.FlowDepositConfirm, m.flowOf(testUserID))

	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, "Send the payer name (person who paid):", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent(cbPaidUPI)))
	assert.Equal(t, session.FlowDepositEvidence, m.flowOf(testUserID))

	m.channel.EXPECT().SendText(gomock.Any(), testUserID, "📸 Now upload a screenshot of payment:", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, textEvent("Bob")))
	assert.Equal(t, session.FlowDepositProof, m.flowOf(testUserID))

	claim := &domain.Claim{ID: "claim-1", UserID: testUserID, Amount: 100, Method: domain.MethodUPI, PayerName: "Bob", ScreenshotID: "photo-1"}
	m.deposits.EXPECT().
		SubmitClaim(gomock.Any(), testUserID, int64(100), domain.MethodUPI, "Bob", "photo-1").
		Return(claim, nil)
	m.channel.EXPECT().SendImage(gomock.Any(), testOperatorID, "photo-1", gomock.Any(), gomock.Any()).Return(nil)
	m.channel.EXPECT().
		SendText(gomock.Any(), testUserID, "✅ Your request has been submitted! Please wait for admin approval.", nil).
		Return(nil)

	photo := Event{Kind: EventPhoto, UserID: testUserID, ChatID: testUserID, PhotoID: "photo-1"}
	assert.NoError(t, engine.Handle(ctx, photo))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))
}

func TestConfirmCallbackRequiresArmedFlow(t *testing.T) {
	engine, m := NewMock(t)

	// paid_upi out of nowhere is ignored: no flow armed
	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil)
	assert.NoError(t, engine.Handle(context.Background(), callbackEvent(cbPaidUPI)))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))
}

func TestClaimResolutionCallbacks(t *testing.T) {
	engine, m := NewMock(t)
	ctx := context.Background()

	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil).AnyTimes()

	m.deposits.EXPECT().Approve(gomock.Any(), "claim-1", testUserID).
		Return(&domain.Claim{ID: "claim-1", Status: domain.ClaimApproved}, nil)
	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, "Order claim-1 approved successfully!", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent("approve_claim-1_upi")))

	m.deposits.EXPECT().Approve(gomock.Any(), "claim-1", testUserID).
		Return(nil, depositservice.ErrClaimResolved)
	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, "Order claim-1 was already handled.", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent("approve_claim-1_upi")))

	m.deposits.EXPECT().Decline(gomock.Any(), "claim-2", testUserID).
		Return(nil, depositservice.ErrClaimNotFound)
	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, "Order claim-2 not found.", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent("decline_claim-2_upi")))

	// non-operator taps die silently
	m.deposits.EXPECT().Approve(gomock.Any(), "claim-3", testUserID).
		Return(nil, depositservice.ErrNotAuthorized)
	assert.NoError(t, engine.Handle(ctx, callbackEvent("approve_claim-3_amazon")))
}

func TestAdminFlowsAreOperatorOnly(t *testing.T) {
	engine, m := NewMock(t)
	ctx := context.Background()

	// non-operator never reaches the admin menu branch
	assert.NoError(t, engine.Handle(ctx, textEvent(MenuAdminPanel)))

	operator := Event{Kind: EventText, UserID: testOperatorID, ChatID: testOperatorID, Text: MenuAdminPanel}
	m.channel.EXPECT().SendText(gomock.Any(), testOperatorID, "Welcome to Admin Panel!", gomock.Any()).Return(nil)
	assert.NoError(t, engine.Handle(ctx, operator))

	// admin_add_<type> callback from a non-operator is ignored
	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil)
	assert.NoError(t, engine.Handle(ctx, callbackEvent("admin_add_500")))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))

	opCallback := Event{Kind: EventCallback, UserID: testOperatorID, ChatID: testOperatorID, Data: "admin_add_500", CallbackID: "cb-2", MessageID: 7}
	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-2").Return(nil)
	m.channel.EXPECT().EditText(gomock.Any(), testOperatorID, 7, "Please send the coupons for 500 (one per line):", nil).Return(nil)
	assert.NoError(t, engine.Handle(ctx, opCallback))
	assert.Equal(t, session.FlowAdminAddCodes, m.flowOf(testOperatorID))

	m.inventory.EXPECT().AddStock(gomock.Any(), "500", []string{"AAAA-1111", "BBBB-2222"}).Return(int64(2), nil)
	m.channel.EXPECT().SendText(gomock.Any(), testOperatorID, "✅ 2 coupons added successfully!", nil).Return(nil)
	opText := Event{Kind: EventText, UserID: testOperatorID, ChatID: testOperatorID, Text: "AAAA-1111\nBBBB-2222"}
	assert.NoError(t, engine.Handle(ctx, opText))
	assert.Equal(t, session.FlowNone, m.flowOf(testOperatorID))
}

func TestCouponChosenOutOfStock(t *testing.T) {
	engine, m := NewMock(t)

	m.channel.EXPECT().AnswerCallback(gomock.Any(), "cb-1").Return(nil)
	m.pricing.EXPECT().GetPrice(gomock.Any(), "4K").Return(int64(4000), nil)
	m.inventory.EXPECT().StockFor(gomock.Any(), "4K").Return(int64(0), nil)
	m.channel.EXPECT().EditText(gomock.Any(), testUserID, 5, "❌ Not enough stock! Available: 0", nil).Return(nil)

	assert.NoError(t, engine.Handle(context.Background(), callbackEvent("coupon_4K")))
	assert.Equal(t, session.FlowNone, m.flowOf(testUserID))
}

func TestEventFromUpdate(t *testing.T) {
	from := &telegram.User{ID: testUserID, Username: "alice", FirstName: "Alice"}
	chat := telegram.Chat{ID: testUserID}

	tests := []struct {
		name     string
		update   telegram.Update
		expected Event
		ok       bool
	}{
		{
			name: "Command message",
			update: telegram.Update{Message: &telegram.Message{
				From: from, Chat: chat, Text: "/start",
			}},
			expected: Event{Kind: EventCommand, UserID: testUserID, ChatID: testUserID, Username: "alice", FirstName: "Alice", Text: "/start"},
			ok:       true,
		},
		{
			name: "Plain text message",
			update: telegram.Update{Message: &telegram.Message{
				From: from, Chat: chat, Text: "hello",
			}},
			expected: Event{Kind: EventText, UserID: testUserID, ChatID: testUserID, Username: "alice", FirstName: "Alice", Text: "hello"},
			ok:       true,
		},
		{
			name: "Photo message keeps the largest size",
			update: telegram.Update{Message: &telegram.Message{
				From: from, Chat: chat,
				Photo: []telegram.PhotoSize{{FileID: "small"}, {FileID: "large"}},
			}},
			expected: Event{Kind: EventPhoto, UserID: testUserID, ChatID: testUserID, Username: "alice", FirstName: "Alice", PhotoID: "large"},
			ok:       true,
		},
		{
			name: "Callback query",
			update: telegram.Update{CallbackQuery: &telegram.CallbackQuery{
				ID:      "cb-1",
				From:    *from,
				Data:    "coupon_500",
				Message: &telegram.Message{MessageID: 5, Chat: chat},
			}},
			expected: Event{Kind: EventCallback, UserID: testUserID, ChatID: testUserID, Username: "alice", FirstName: "Alice", Data: "coupon_500", CallbackID: "cb-1", MessageID: 5},
			ok:       true,
		},
		{
			name:   "Empty update is skipped",
			update: telegram.Update{},
			ok:     false,
		},
		{
			name: "Message without sender is skipped",
			update: telegram.Update{Message: &telegram.Message{
				Chat: chat, Text: "hello",
			}},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := EventFromUpdate(tt.update)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, ev)
			}
		})
	}
}
