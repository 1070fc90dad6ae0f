package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/avbochkov/vendobot/internal/bot/session"
	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/service/inventoryservice"
	"github.com/avbochkov/vendobot/internal/service/pricingservice"
	"github.com/avbochkov/vendobot/internal/service/settlementservice"
	"github.com/avbochkov/vendobot/internal/telegram"
	"go.uber.org/zap"
)

const msgInvalidNumber = "Please send a valid number."

func parseNumber(text string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// handleFlowText interprets free text against the active flow tag only.
// With no flow armed the text is ignored (menu matching already ran).
func (e *Engine) handleFlowText(ctx context.Context, ev Event, s *session.Session) error {
	switch s.Flow {
	case session.FlowDepositAmount:
		return e.depositAmount(ctx, ev, s)
	case session.FlowDepositEvidence:
		return e.depositEvidence(ctx, ev, s)
	case session.FlowQuantity:
		return e.purchaseQuantity(ctx, ev, s)
	case session.FlowAdminAddCodes, session.FlowAdminRemoveQty, session.FlowAdminPrice:
		if !e.isOperator(ev.UserID) {
			return nil
		}
		switch s.Flow {
		case session.FlowAdminAddCodes:
			return e.adminAddCodes(ctx, ev, s)
		case session.FlowAdminRemoveQty:
			return e.adminRemoveQuantity(ctx, ev, s)
		case session.FlowAdminPrice:
			return e.adminChangePrice(ctx, ev, s)
		}
	}
	return nil
}

func (e *Engine) depositAmount(ctx context.Context, ev Event, s *session.Session) error {
	amount, ok := parseNumber(ev.Text)
	if !ok {
		return e.channel.SendText(ctx, ev.ChatID, msgInvalidNumber, nil)
	}
	if amount < e.deposits.MinAmount() {
		text := fmt.Sprintf("Minimum amount is %d. Please enter a higher amount.", e.deposits.MinAmount())
		return e.channel.SendText(ctx, ev.ChatID, text, nil)
	}

	s.Amount = amount
	s.Flow = session.FlowDepositConfirm

	if s.Method == domain.MethodGiftCard {
		summary := fmt.Sprintf(
			"📝 Order Summary:\n━━━━━━━━━━━━━━━\n"+
				"💹 Rate: 1 Rs = %d Diamond 🪙\n"+
				"💵 Amount: ₹%d\n"+
				"🪙 Coins to Receive: %d 🪙\n"+
				"💳 Method: Amazon Gift Card\n"+
				"━━━━━━━━━━━━━━━\n\nClick below to proceed.",
			e.deposits.Coins(1), amount, e.deposits.Coins(amount))
		kb := confirmKeyboard("Submit Gift Card", cbSubmitGiftCard)
		return e.channel.SendText(ctx, ev.ChatID, summary, kb)
	}

	qrFileID, err := e.pricing.GetQR(ctx)
	if err != nil {
		s.Flow = session.FlowDepositAmount
		return e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
	}

	text := fmt.Sprintf("💳 Payment Request\n\n💰 Amount: ₹%d\n\n✅ After payment, click 'I Have Paid' below", amount)
	kb := confirmKeyboard("I Have Paid", cbPaidUPI)
	if qrFileID != "" {
		return e.channel.SendImage(ctx, ev.ChatID, qrFileID, text, kb)
	}
	return e.channel.SendText(ctx, ev.ChatID, text+"\n\n(QR code not available, please contact support)", kb)
}

func (e *Engine) depositEvidence(ctx context.Context, ev Event, s *session.Session) error {
	if s.Method == domain.MethodGiftCard {
		s.GiftcardCode = strings.TrimSpace(ev.Text)
		s.Flow = session.FlowDepositProof
		return e.channel.SendText(ctx, ev.ChatID, "📸 Now upload a screenshot of the gift card:", nil)
	}
	s.PayerName = strings.TrimSpace(ev.Text)
	s.Flow = session.FlowDepositProof
	return e.channel.SendText(ctx, ev.ChatID, "📸 Now upload a screenshot of payment:", nil)
}

// purchaseQuantity is the settlement step. Parse failures re-prompt without
// losing the flow; stock and balance shortfalls abort it.
func (e *Engine) purchaseQuantity(ctx context.Context, ev Event, s *session.Session) error {
	quantity, ok := parseNumber(ev.Text)
	if !ok || quantity == 0 {
		return e.channel.SendText(ctx, ev.ChatID, msgInvalidNumber, nil)
	}

	receipt, err := e.settlement.Purchase(ctx, ev.UserID, s.CouponType, quantity)
	switch {
	case errors.Is(err, inventoryservice.ErrInsufficientStock):
		stock, stockErr := e.inventory.StockFor(ctx, s.CouponType)
		s.Reset()
		if stockErr != nil {
			return e.channel.SendText(ctx, ev.ChatID, "❌ Not enough stock!", nil)
		}
		return e.channel.SendText(ctx, ev.ChatID, fmt.Sprintf("❌ Not enough stock! Available: %d", stock), nil)

	case errors.Is(err, settlementservice.ErrInsufficientBalance):
		balance, balErr := e.accounts.GetBalance(ctx, ev.UserID)
		s.Reset()
		if balErr != nil {
			return e.channel.SendText(ctx, ev.ChatID, "❌ Not enough diamonds!", nil)
		}
		return e.channel.SendText(ctx, ev.ChatID, fmt.Sprintf("❌ Not enough diamonds! Available: %d 🪙", balance), nil)

	case errors.Is(err, settlementservice.ErrAllocationRace):
		s.Reset()
		return e.channel.SendText(ctx, ev.ChatID, "⌛ Stock changed while processing. Please try again.", nil)

	case err != nil:
		// transient store failure: keep the flow so the user can resend
		return e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
	}

	s.Reset()
	text := fmt.Sprintf(
		"✅ Purchase Successful!\n\nYour %s coupons:\n%s\n\nTotal spent: %d 🪙",
		receipt.CouponType, strings.Join(receipt.Codes, "\n"), receipt.TotalPrice)
	return e.channel.SendText(ctx, ev.ChatID, text, nil)
}

func (e *Engine) handlePhoto(ctx context.Context, ev Event, s *session.Session) error {
	switch s.Flow {
	case session.FlowDepositProof:
		return e.depositProof(ctx, ev, s)
	case session.FlowAdminQR:
		if !e.isOperator(ev.UserID) {
			return nil
		}
		if err := e.pricing.SetQR(ctx, ev.PhotoID); err != nil {
			return e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
		}
		s.Reset()
		return e.channel.SendText(ctx, ev.ChatID, "✅ QR code updated successfully!", nil)
	}
	return nil
}

func (e *Engine) depositProof(ctx context.Context, ev Event, s *session.Session) error {
	evidence := s.GiftcardCode
	if s.Method == domain.MethodUPI {
		evidence = s.PayerName
	}

	claim, err := e.deposits.SubmitClaim(ctx, ev.UserID, s.Amount, s.Method, evidence, ev.PhotoID)
	if err != nil {
		// keep the flow so the same screenshot can be resent
		return e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
	}

	e.notifyOperator(ctx, ev, claim)
	s.Reset()
	return e.channel.SendText(ctx, ev.ChatID, "✅ Your request has been submitted! Please wait for admin approval.", nil)
}

// notifyOperator forwards the proof to the operator with approve/decline
// buttons. Delivery failure is logged, not surfaced to the claimant: the
// claim row already exists and the operator can re-query it.
func (e *Engine) notifyOperator(ctx context.Context, ev Event, claim *domain.Claim) {
	var b strings.Builder
	if claim.Method == domain.MethodGiftCard {
		b.WriteString("🔔 New Amazon Gift Card Order!\n\n")
	} else {
		b.WriteString("🔔 New UPI Payment Order!\n\n")
	}
	fmt.Fprintf(&b, "👤 User: %s (@%s)\n", ev.FirstName, ev.Username)
	fmt.Fprintf(&b, "🆔 User ID: %d\n", claim.UserID)
	fmt.Fprintf(&b, "💰 Amount: ₹%d\n", claim.Amount)
	if claim.Method == domain.MethodGiftCard {
		fmt.Fprintf(&b, "🎫 Gift Card Code: %s\n", claim.GiftcardCode)
	} else {
		fmt.Fprintf(&b, "👤 Payer Name: %s\n", claim.PayerName)
	}

	kb := approvalKeyboard(claim.ID, claim.Method)
	if err := e.channel.SendImage(ctx, e.operatorID, claim.ScreenshotID, b.String(), kb); err != nil {
		zap.L().Error("failed to notify operator of claim",
			zap.String("claim", claim.ID), zap.Error(err))
	}
}

func confirmKeyboard(label, callbackData string) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: label, CallbackData: callbackData}},
		},
	}
}

func (e *Engine) adminAddCodes(ctx context.Context, ev Event, s *session.Session) error {
	codes := strings.Split(ev.Text, "\n")
	for i := range codes {
		codes[i] = strings.TrimSpace(codes[i])
	}

	added, err := e.inventory.AddStock(ctx, s.AdminCouponType, codes)
	if err != nil {
		return e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
	}
	s.Reset()
	return e.channel.SendText(ctx, ev.ChatID, fmt.Sprintf("✅ %d coupons added successfully!", added), nil)
}

func (e *Engine) adminRemoveQuantity(ctx context.Context, ev Event, s *session.Session) error {
	quantity, ok := parseNumber(ev.Text)
	if !ok || quantity == 0 {
		return e.channel.SendText(ctx, ev.ChatID, msgInvalidNumber, nil)
	}

	err := e.inventory.RemoveStock(ctx, s.AdminCouponType, quantity)
	switch {
	case errors.Is(err, inventoryservice.ErrInsufficientStock):
		stock, stockErr := e.inventory.StockFor(ctx, s.AdminCouponType)
		s.Reset()
		if stockErr != nil {
			return e.channel.SendText(ctx, ev.ChatID, "Not enough coupons!", nil)
		}
		return e.channel.SendText(ctx, ev.ChatID, fmt.Sprintf("Not enough coupons! Available: %d", stock), nil)
	case err != nil:
		return e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
	}

	s.Reset()
	return e.channel.SendText(ctx, ev.ChatID, fmt.Sprintf("✅ %d coupons removed successfully!", quantity), nil)
}

func (e *Engine) adminChangePrice(ctx context.Context, ev Event, s *session.Session) error {
	price, ok := parseNumber(ev.Text)
	if !ok {
		return e.channel.SendText(ctx, ev.ChatID, msgInvalidNumber, nil)
	}

	err := e.pricing.SetPrice(ctx, s.AdminCouponType, price)
	switch {
	case errors.Is(err, pricingservice.ErrInvalidPrice):
		return e.channel.SendText(ctx, ev.ChatID, msgInvalidNumber, nil)
	case err != nil:
		return e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
	}

	couponType := s.AdminCouponType
	s.Reset()
	return e.channel.SendText(ctx, ev.ChatID, fmt.Sprintf("✅ Price for %s changed to %d successfully!", couponType, price), nil)
}
