package domain

import "time"

type User struct {
	ID        int64     `db:"user_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
}

type Coupon struct {
	ID        int64      `db:"id"`
	Code      string     `db:"code"`
	Type      string     `db:"type"`
	IsUsed    bool       `db:"is_used"`
	UsedBy    *int64     `db:"used_by"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// Order is one redeemed coupon. A multi-quantity purchase produces several
// rows sharing the same OrderID.
type Order struct {
	ID         int64     `db:"id"`
	OrderID    string    `db:"order_id"`
	UserID     int64     `db:"user_id"`
	CouponCode string    `db:"coupon_code"`
	Amount     int64     `db:"amount"`
	CreatedAt  time.Time `db:"created_at"`
}

type OrderWithBuyer struct {
	Order
	Username  string `db:"username"`
	FirstName string `db:"first_name"`
}

type PaymentMethod string

const (
	MethodGiftCard PaymentMethod = "amazon"
	MethodUPI      PaymentMethod = "upi"
)

type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "pending"
	ClaimApproved ClaimStatus = "approved"
	ClaimDeclined ClaimStatus = "declined"
)

// Claim is a buyer's assertion of having paid, awaiting operator resolution.
type Claim struct {
	ID           string        `db:"id"`
	UserID       int64         `db:"user_id"`
	Amount       int64         `db:"amount"`
	Method       PaymentMethod `db:"payment_method"`
	GiftcardCode string        `db:"giftcard_code"`
	PayerName    string        `db:"payer_name"`
	ScreenshotID string        `db:"screenshot_id"`
	Status       ClaimStatus   `db:"status"`
	CreatedAt    time.Time     `db:"created_at"`
}

type PriceEntry struct {
	Type      string    `db:"type"`
	Price     int64     `db:"price"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Receipt is the result of a settled purchase.
type Receipt struct {
	OrderID    string
	CouponType string
	Codes      []string
	TotalPrice int64
	NewBalance int64
}

// CouponTypes is the fixed set of sellable denominations.
var CouponTypes = []string{"500", "1K", "2K", "4K"}

const QRSettingKey = "upi_qr"
