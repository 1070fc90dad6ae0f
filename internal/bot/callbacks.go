package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avbochkov/vendobot/internal/bot/session"
	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/service/depositservice"
	"go.uber.org/zap"
)

const (
	cbTermsAgree      = "terms_agree"
	cbTermsDecline    = "terms_decline"
	cbBackToMenu      = "back_to_menu"
	cbPaymentGiftCard = "payment_amazon"
	cbPaymentUPI      = "payment_upi"
	cbSubmitGiftCard  = "submit_giftcard"
	cbPaidUPI         = "paid_upi"
	cbAdminBack       = "admin_back"

	cbCouponPrefix  = "coupon_"
	cbApprovePrefix = "approve_"
	cbDeclinePrefix = "decline_"
)

func (e *Engine) handleCallback(ctx context.Context, ev Event, s *session.Session) error {
	if ev.CallbackID != "" {
		if err := e.channel.AnswerCallback(ctx, ev.CallbackID); err != nil {
			zap.L().Warn("failed to answer callback", zap.Error(err))
		}
	}

	data := ev.Data
	switch {
	case data == cbTermsAgree:
		s.Reset()
		s.Flow = session.FlowCouponType
		return e.reply(ctx, ev, "🛒 Select a coupon type:", couponTypeKeyboard())

	case data == cbTermsDecline:
		s.Reset()
		return e.reply(ctx, ev, "Thanks For Using The Bot, GoodBye! 👋", nil)

	case data == cbBackToMenu:
		s.Reset()
		if err := e.reply(ctx, ev, "Main Menu:", nil); err != nil {
			return err
		}
		return e.channel.SendText(ctx, ev.ChatID, "Use the buttons below to navigate:", userKeyboard())

	case strings.HasPrefix(data, cbCouponPrefix):
		return e.couponChosen(ctx, ev, s, strings.TrimPrefix(data, cbCouponPrefix))

	case data == cbPaymentGiftCard:
		s.Reset()
		s.Method = domain.MethodGiftCard
		s.Flow = session.FlowDepositAmount
		text := fmt.Sprintf("Enter the number of coins to add (Method: Amazon):\n\n✅ Minimum: %d", e.deposits.MinAmount())
		return e.reply(ctx, ev, text, nil)

	case data == cbPaymentUPI:
		s.Reset()
		s.Method = domain.MethodUPI
		s.Flow = session.FlowDepositAmount
		return e.reply(ctx, ev, fmt.Sprintf("How much coins you need? (Minimum: %d)", e.deposits.MinAmount()), nil)

	case data == cbSubmitGiftCard:
		if s.Flow != session.FlowDepositConfirm || s.Method != domain.MethodGiftCard {
			return nil
		}
		s.Flow = session.FlowDepositEvidence
		return e.reply(ctx, ev, "Enter your Amazon Gift Card code:", nil)

	case data == cbPaidUPI:
		if s.Flow != session.FlowDepositConfirm || s.Method != domain.MethodUPI {
			return nil
		}
		s.Flow = session.FlowDepositEvidence
		return e.reply(ctx, ev, "Send the payer name (person who paid):", nil)

	case strings.HasPrefix(data, cbApprovePrefix), strings.HasPrefix(data, cbDeclinePrefix):
		return e.claimResolution(ctx, ev, data)

	case data == cbAdminBack:
		if !e.isOperator(ev.UserID) {
			return nil
		}
		s.Reset()
		if err := e.reply(ctx, ev, "Admin Panel", nil); err != nil {
			return err
		}
		return e.channel.SendText(ctx, ev.ChatID, "Use the buttons below to navigate:", adminKeyboard())

	case strings.HasPrefix(data, "admin_"):
		return e.adminCouponAction(ctx, ev, s, data)
	}

	return nil
}

func (e *Engine) couponChosen(ctx context.Context, ev Event, s *session.Session, couponType string) error {
	price, err := e.pricing.GetPrice(ctx, couponType)
	if err != nil {
		return e.reply(ctx, ev, msgRetryLater, nil)
	}
	stock, err := e.inventory.StockFor(ctx, couponType)
	if err != nil {
		return e.reply(ctx, ev, msgRetryLater, nil)
	}
	if stock == 0 {
		s.Reset()
		return e.reply(ctx, ev, "❌ Not enough stock! Available: 0", nil)
	}

	s.Reset()
	s.Flow = session.FlowQuantity
	s.CouponType = couponType
	text := fmt.Sprintf(
		"How many %s coupons do you want to buy?\nPrice per coupon: %d 🪙\nAvailable stock: %d\n\nPlease send the quantity:",
		couponType, price, stock)
	return e.reply(ctx, ev, text, nil)
}

// adminCouponAction handles admin_<action>_<type> taps, arming the matching
// operator-only flow.
func (e *Engine) adminCouponAction(ctx context.Context, ev Event, s *session.Session, data string) error {
	if !e.isOperator(ev.UserID) {
		return nil
	}

	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 {
		return nil
	}
	action, couponType := parts[1], parts[2]

	s.Reset()
	s.AdminCouponType = couponType
	switch action {
	case "add":
		s.Flow = session.FlowAdminAddCodes
		return e.reply(ctx, ev, fmt.Sprintf("Please send the coupons for %s (one per line):", couponType), nil)
	case "remove":
		s.Flow = session.FlowAdminRemoveQty
		return e.reply(ctx, ev, fmt.Sprintf("How many %s coupons do you want to remove?", couponType), nil)
	case "price":
		s.Flow = session.FlowAdminPrice
		return e.reply(ctx, ev, fmt.Sprintf("Enter new price for %s coupons:", couponType), nil)
	}
	s.Reset()
	return nil
}

// claimResolution handles approve_<claimID>_<method> / decline_<claimID>_<method>.
// Repeat taps on an already-resolved claim are rejected without a second
// credit or a duplicate claimant notification.
func (e *Engine) claimResolution(ctx context.Context, ev Event, data string) error {
	approve := strings.HasPrefix(data, cbApprovePrefix)
	parts := strings.SplitN(data, "_", 3)
	if len(parts) < 2 {
		return nil
	}
	claimID := parts[1]

	var err error
	if approve {
		_, err = e.deposits.Approve(ctx, claimID, ev.UserID)
	} else {
		_, err = e.deposits.Decline(ctx, claimID, ev.UserID)
	}

	switch {
	case errors.Is(err, depositservice.ErrNotAuthorized):
		return nil
	case errors.Is(err, depositservice.ErrClaimNotFound):
		return e.reply(ctx, ev, fmt.Sprintf("Order %s not found.", claimID), nil)
	case errors.Is(err, depositservice.ErrClaimResolved):
		return e.reply(ctx, ev, fmt.Sprintf("Order %s was already handled.", claimID), nil)
	case err != nil:
		return e.reply(ctx, ev, msgRetryLater, nil)
	}

	if approve {
		return e.reply(ctx, ev, fmt.Sprintf("Order %s approved successfully!", claimID), nil)
	}
	return e.reply(ctx, ev, fmt.Sprintf("Order %s declined!", claimID), nil)
}
