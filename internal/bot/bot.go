package bot

import (
	"context"
	"strings"

	"github.com/avbochkov/vendobot/internal/bot/session"
	"github.com/avbochkov/vendobot/internal/domain"
	"github.com/avbochkov/vendobot/internal/telegram"
)

//go:generate mockgen -source=bot.go -destination=bot_mock.go -package=bot

type AccountService interface {
	EnsureAccount(ctx context.Context, userID int64, username, firstName, lastName string) (*domain.User, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	RecentOrders(ctx context.Context, userID int64, limit int64) ([]domain.Order, error)
	RecentBuyers(ctx context.Context, limit int64) ([]domain.OrderWithBuyer, error)
}

type InventoryService interface {
	AddStock(ctx context.Context, couponType string, codes []string) (int64, error)
	RemoveStock(ctx context.Context, couponType string, quantity int64) error
	Stock(ctx context.Context) (map[string]int64, error)
	StockFor(ctx context.Context, couponType string) (int64, error)
}

type SettlementService interface {
	Purchase(ctx context.Context, buyerID int64, couponType string, quantity int64) (*domain.Receipt, error)
}

type DepositService interface {
	SubmitClaim(ctx context.Context, userID, amount int64, method domain.PaymentMethod, evidence, screenshotID string) (*domain.Claim, error)
	Approve(ctx context.Context, claimID string, actorID int64) (*domain.Claim, error)
	Decline(ctx context.Context, claimID string, actorID int64) (*domain.Claim, error)
	MinAmount() int64
	Coins(amount int64) int64
}

type PricingService interface {
	GetPrice(ctx context.Context, couponType string) (int64, error)
	SetPrice(ctx context.Context, couponType string, price int64) error
	GetQR(ctx context.Context) (string, error)
	SetQR(ctx context.Context, fileID string) error
}

// Channel is the outbound messaging surface the engine replies through.
type Channel interface {
	SendText(ctx context.Context, chatID int64, text string, markup telegram.Markup) error
	SendImage(ctx context.Context, chatID int64, fileID, caption string, markup telegram.Markup) error
	EditText(ctx context.Context, chatID int64, messageID int, text string, markup telegram.Markup) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

type EventKind int

const (
	EventCommand EventKind = iota
	EventText
	EventPhoto
	EventCallback
)

// Event is one classified inbound interaction.
type Event struct {
	Kind       EventKind
	UserID     int64
	ChatID     int64
	Username   string
	FirstName  string
	LastName   string
	Text       string
	PhotoID    string
	Data       string
	CallbackID string
	MessageID  int
}

// EventFromUpdate classifies a raw update. The second return is false for
// update kinds the engine does not consume.
func EventFromUpdate(u telegram.Update) (Event, bool) {
	if cb := u.CallbackQuery; cb != nil {
		ev := Event{
			Kind:       EventCallback,
			UserID:     cb.From.ID,
			ChatID:     cb.From.ID,
			Username:   cb.From.Username,
			FirstName:  cb.From.FirstName,
			LastName:   cb.From.LastName,
			Data:       cb.Data,
			CallbackID: cb.ID,
		}
		if cb.Message != nil {
			ev.ChatID = cb.Message.Chat.ID
			ev.MessageID = cb.Message.MessageID
		}
		return ev, true
	}

	if m := u.Message; m != nil && m.From != nil {
		ev := Event{
			UserID:    m.From.ID,
			ChatID:    m.Chat.ID,
			Username:  m.From.Username,
			FirstName: m.From.FirstName,
			LastName:  m.From.LastName,
		}
		switch {
		case len(m.Photo) > 0:
			ev.Kind = EventPhoto
			ev.PhotoID = m.Photo[len(m.Photo)-1].FileID
		case strings.HasPrefix(m.Text, "/"):
			ev.Kind = EventCommand
			ev.Text = m.Text
		case m.Text != "":
			ev.Kind = EventText
			ev.Text = m.Text
		default:
			return Event{}, false
		}
		return ev, true
	}

	return Event{}, false
}

// Engine is the conversational transaction engine: it routes each inbound
// event by menu token or by the user's active flow tag and drives the
// settlement, inventory and deposit services.
type Engine struct {
	accounts   AccountService
	inventory  InventoryService
	settlement SettlementService
	deposits   DepositService
	pricing    PricingService
	channel    Channel
	sessions   *session.Store
	operatorID int64
}

func NewEngine(
	operatorID int64,
	accounts AccountService,
	inventory InventoryService,
	settlement SettlementService,
	deposits DepositService,
	pricing PricingService,
	channel Channel,
	sessions *session.Store,
) *Engine {
	return &Engine{
		accounts:   accounts,
		inventory:  inventory,
		settlement: settlement,
		deposits:   deposits,
		pricing:    pricing,
		channel:    channel,
		sessions:   sessions,
		operatorID: operatorID,
	}
}

func (e *Engine) HandleUpdate(ctx context.Context, update telegram.Update) error {
	ev, ok := EventFromUpdate(update)
	if !ok {
		return nil
	}
	return e.Handle(ctx, ev)
}

// Handle processes one event under the per-user session lock, so two
// concurrent events from the same user cannot interleave flow state.
func (e *Engine) Handle(ctx context.Context, ev Event) error {
	user, err := e.accounts.EnsureAccount(ctx, ev.UserID, ev.Username, ev.FirstName, ev.LastName)
	if err != nil {
		e.sendText(ctx, ev.ChatID, msgRetryLater, nil)
		return err
	}

	return e.sessions.WithLock(ev.UserID, func(s *session.Session) error {
		switch ev.Kind {
		case EventCommand:
			return e.handleCommand(ctx, ev, user, s)
		case EventCallback:
			return e.handleCallback(ctx, ev, s)
		case EventPhoto:
			return e.handlePhoto(ctx, ev, s)
		case EventText:
			if handled, err := e.handleMenu(ctx, ev, s); handled {
				return err
			}
			return e.handleFlowText(ctx, ev, s)
		}
		return nil
	})
}

func (e *Engine) isOperator(userID int64) bool {
	return userID == e.operatorID
}

// reply edits the tapped message when the event came from a button, and
// sends a fresh message otherwise.
func (e *Engine) reply(ctx context.Context, ev Event, text string, markup telegram.Markup) error {
	if ev.Kind == EventCallback && ev.MessageID != 0 {
		return e.channel.EditText(ctx, ev.ChatID, ev.MessageID, text, markup)
	}
	return e.channel.SendText(ctx, ev.ChatID, text, markup)
}

func (e *Engine) sendText(ctx context.Context, chatID int64, text string, markup telegram.Markup) {
	if err := e.channel.SendText(ctx, chatID, text, markup); err != nil {
		logSendFailure(err)
	}
}
