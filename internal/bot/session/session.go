package session

import (
	"sync"

	"github.com/avbochkov/vendobot/internal/domain"
)

// Flow tags the multi-step dialogue currently active for a user. At most one
// flow is active per user; a menu token always resets it.
type Flow string

const (
	FlowNone Flow = ""

	FlowDepositMethod   Flow = "deposit_method"
	FlowDepositAmount   Flow = "deposit_amount"
	FlowDepositConfirm  Flow = "deposit_confirm"
	FlowDepositEvidence Flow = "deposit_evidence"
	FlowDepositProof    Flow = "deposit_proof"

	FlowTerms      Flow = "terms"
	FlowCouponType Flow = "coupon_type"
	FlowQuantity   Flow = "quantity"

	FlowAdminAddCodes  Flow = "admin_add_codes"
	FlowAdminRemoveQty Flow = "admin_remove_qty"
	FlowAdminPrice     Flow = "admin_price"
	FlowAdminQR        Flow = "admin_qr"
)

// Session is the field bag a flow accumulates between steps. It never
// outlives the process and is cleared whenever a flow completes or is
// superseded.
type Session struct {
	Flow            Flow
	Method          domain.PaymentMethod
	Amount          int64
	GiftcardCode    string
	PayerName       string
	CouponType      string
	AdminCouponType string
}

func (s *Session) Reset() {
	*s = Session{}
}

type entry struct {
	mu      sync.Mutex
	session Session
}

// Store holds one Session per user and serializes all access to it, so two
// concurrent events from the same user cannot interleave flow writes.
type Store struct {
	sessions sync.Map
}

func NewStore() *Store {
	return &Store{}
}

func (st *Store) WithLock(userID int64, fn func(s *Session) error) error {
	e, _ := st.sessions.LoadOrStore(userID, &entry{})
	ent := e.(*entry)

	ent.mu.Lock()
	defer ent.mu.Unlock()
	return fn(&ent.session)
}
