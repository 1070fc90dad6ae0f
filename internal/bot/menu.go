package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/avbochkov/vendobot/internal/bot/session"
	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/telegram"
	"go.uber.org/zap"
)

// Fixed menu tokens. Receiving one always resets any in-progress flow.
const (
	MenuAddCoins   = "💰 Add Coins"
	MenuBuyCoupon  = "🎟️ Buy Coupon"
	MenuBalance    = "👤 Balance"
	MenuMyOrders   = "📦 My Orders"
	MenuSupport    = "🆘 Support"
	MenuDisclaimer = "⚠️ Disclaimer"
	MenuAdminPanel = "👑 Admin Panel"

	MenuAddCoupon    = "➕ Add Coupon"
	MenuRemoveCoupon = "➖ Remove Coupon"
	MenuStock        = "📊 Stock"
	MenuChangePrices = "💰 Change Prices"
	MenuUpdateQR     = "🔄 Update QR"
	MenuLastBuyers   = "📋 Last 10 Buyers"
	MenuBackToUser   = "🔙 Back to User Menu"
)

const (
	msgRetryLater = "⚠️ Something went wrong, please try again later."

	msgTerms = "📋 Terms & Conditions:\n\n" +
		"1. Once coupon is delivered, no returns or refunds will be accepted.\n" +
		"2. All coupons are fresh and valid.\n" +
		"3. All sales are final. No refunds, no replacements.\n" +
		"4. If coupon shows redeem, try after some time (10-15min).\n\n" +
		"Do you agree to these terms?"

	msgDisclaimer = "Disclaimer:-\n" +
		"1. Once coupon is delivered, no returns or refunds will be accepted.\n" +
		"2. All coupons are fresh and valid.\n" +
		"3. All sales are final. No refunds, no replacements.\n" +
		"4. If coupon shows redeem, try after some time (10-15min)."

	msgSupport = "🆘 Support Contact:\n━━━━━━━━━━━━━━\n@AutoEarnX_Support_Bot"

	listingLimit = 10
)

func userKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: MenuAddCoins}, {Text: MenuBuyCoupon}},
			{{Text: MenuBalance}, {Text: MenuMyOrders}},
			{{Text: MenuSupport}, {Text: MenuDisclaimer}},
		},
		ResizeKeyboard: true,
	}
}

func adminKeyboard() telegram.ReplyKeyboardMarkup {
	return telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: MenuAddCoupon}, {Text: MenuRemoveCoupon}},
			{{Text: MenuStock}, {Text: MenuChangePrices}},
			{{Text: MenuUpdateQR}, {Text: MenuLastBuyers}},
			{{Text: MenuBackToUser}},
		},
		ResizeKeyboard: true,
	}
}

func termsKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "✅ Agree", CallbackData: cbTermsAgree}},
			{{Text: "❌ Decline", CallbackData: cbTermsDecline}},
		},
	}
}

func paymentKeyboard() telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "🎁 Amazon Gift Card", CallbackData: cbPaymentGiftCard}},
			{{Text: "📱 UPI", CallbackData: cbPaymentUPI}},
			{{Text: "🔙 Back", CallbackData: cbBackToMenu}},
		},
	}
}

func couponTypeKeyboard() telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(domain.CouponTypes)+1)
	for _, couponType := range domain.CouponTypes {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: couponType + " 🪙", CallbackData: cbCouponPrefix + couponType},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{Text: "🔙 Back", CallbackData: cbBackToMenu}})
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func adminCouponKeyboard(action string) telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(domain.CouponTypes)+1)
	for _, couponType := range domain.CouponTypes {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: couponType, CallbackData: fmt.Sprintf("admin_%s_%s", action, couponType)},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{{Text: "🔙 Back", CallbackData: cbAdminBack}})
	return telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// approvalKeyboard carries the claim identity and payment method so the
// operator's tap round-trips unambiguously.
func approvalKeyboard(claimID string, method domain.PaymentMethod) telegram.InlineKeyboardMarkup {
	return telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "✅ Accept", CallbackData: fmt.Sprintf("approve_%s_%s", claimID, method)}},
			{{Text: "❌ Decline", CallbackData: fmt.Sprintf("decline_%s_%s", claimID, method)}},
		},
	}
}

func (e *Engine) handleCommand(ctx context.Context, ev Event, user *domain.User, s *session.Session) error {
	if !strings.HasPrefix(ev.Text, "/start") {
		return nil
	}
	s.Reset()
	text := fmt.Sprintf("Welcome To The AutoEarnX Selling Bot, %s! 🚀\n\nUse the buttons below to navigate:", user.FirstName)
	return e.channel.SendText(ctx, ev.ChatID, text, userKeyboard())
}

// handleMenu reacts to fixed menu tokens. It reports whether the text was a
// menu token; flow-tag dispatch only happens when it was not.
func (e *Engine) handleMenu(ctx context.Context, ev Event, s *session.Session) (bool, error) {
	switch ev.Text {
	case MenuAddCoins:
		s.Reset()
		s.Flow = session.FlowDepositMethod
		return true, e.channel.SendText(ctx, ev.ChatID, "💳 Select Payment Method:", paymentKeyboard())

	case MenuBuyCoupon:
		s.Reset()
		s.Flow = session.FlowTerms
		return true, e.channel.SendText(ctx, ev.ChatID, msgTerms, termsKeyboard())

	case MenuBalance:
		s.Reset()
		balance, err := e.accounts.GetBalance(ctx, ev.UserID)
		if err != nil {
			return true, e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
		}
		return true, e.channel.SendText(ctx, ev.ChatID, fmt.Sprintf("💰 Your Balance: %d Diamonds 🪙", balance), nil)

	case MenuMyOrders:
		s.Reset()
		orders, err := e.accounts.RecentOrders(ctx, ev.UserID, listingLimit)
		if err != nil {
			return true, e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
		}
		if len(orders) == 0 {
			return true, e.channel.SendText(ctx, ev.ChatID, "📦 You haven't made any orders yet.", nil)
		}
		var b strings.Builder
		b.WriteString("📦 Your Last 10 Orders:\n\n")
		for _, order := range orders {
			fmt.Fprintf(&b, "🆔 Order: %s\n", order.OrderID)
			fmt.Fprintf(&b, "🎟️ Coupon: %s\n", order.CouponCode)
			fmt.Fprintf(&b, "💰 Amount: %d 🪙\n", order.Amount)
			fmt.Fprintf(&b, "📅 Date: %s\n", order.CreatedAt.Format("2006-01-02"))
			b.WriteString("━━━━━━━━━━━━━━━\n")
		}
		return true, e.channel.SendText(ctx, ev.ChatID, b.String(), nil)

	case MenuSupport:
		s.Reset()
		return true, e.channel.SendText(ctx, ev.ChatID, msgSupport, nil)

	case MenuDisclaimer:
		s.Reset()
		return true, e.channel.SendText(ctx, ev.ChatID, msgDisclaimer, nil)
	}

	if !e.isOperator(ev.UserID) {
		return false, nil
	}
	return e.handleAdminMenu(ctx, ev, s)
}

func (e *Engine) handleAdminMenu(ctx context.Context, ev Event, s *session.Session) (bool, error) {
	switch ev.Text {
	case MenuAdminPanel:
		s.Reset()
		return true, e.channel.SendText(ctx, ev.ChatID, "Welcome to Admin Panel!", adminKeyboard())

	case MenuAddCoupon:
		s.Reset()
		return true, e.channel.SendText(ctx, ev.ChatID, "Select The Options To Add The Coupons:", adminCouponKeyboard("add"))

	case MenuRemoveCoupon:
		s.Reset()
		return true, e.channel.SendText(ctx, ev.ChatID, "Select The Options To Remove The Coupons:", adminCouponKeyboard("remove"))

	case MenuChangePrices:
		s.Reset()
		return true, e.channel.SendText(ctx, ev.ChatID, "Select The Options To Change The Price:", adminCouponKeyboard("price"))

	case MenuStock:
		s.Reset()
		counts, err := e.inventory.Stock(ctx)
		if err != nil {
			return true, e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
		}
		var b strings.Builder
		b.WriteString("📊 Current Stock:\n\n")
		for _, couponType := range domain.CouponTypes {
			fmt.Fprintf(&b, "%s Coupons: %d available\n", couponType, counts[couponType])
		}
		return true, e.channel.SendText(ctx, ev.ChatID, b.String(), nil)

	case MenuUpdateQR:
		s.Reset()
		s.Flow = session.FlowAdminQR
		return true, e.channel.SendText(ctx, ev.ChatID, "Please send the new QR code image:", nil)

	case MenuLastBuyers:
		s.Reset()
		orders, err := e.accounts.RecentBuyers(ctx, listingLimit)
		if err != nil {
			return true, e.channel.SendText(ctx, ev.ChatID, msgRetryLater, nil)
		}
		if len(orders) == 0 {
			return true, e.channel.SendText(ctx, ev.ChatID, "No orders found.", nil)
		}
		var b strings.Builder
		b.WriteString("📋 Last 10 Buyers:\n\n")
		for _, order := range orders {
			fmt.Fprintf(&b, "👤 User: %s (@%s)\n", order.FirstName, order.Username)
			fmt.Fprintf(&b, "🎟️ Coupon: %s\n", order.CouponCode)
			fmt.Fprintf(&b, "💰 Amount: %d 🪙\n", order.Amount)
			fmt.Fprintf(&b, "📅 Date: %s\n", order.CreatedAt.Format("2006-01-02"))
			b.WriteString("━━━━━━━━━━━━━━━\n")
		}
		return true, e.channel.SendText(ctx, ev.ChatID, b.String(), nil)

	case MenuBackToUser:
		s.Reset()
		return true, e.channel.SendText(ctx, ev.ChatID, "Returning to user menu...", userKeyboard())
	}

	return false, nil
}

func logSendFailure(err error) {
	zap.L().Error("failed to send reply", zap.Error(err))
}
