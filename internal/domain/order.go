package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus tracks an order through the payment lifecycle.
type OrderStatus string

const (
	OrderPendingVerification OrderStatus = "pending_verification"
	OrderPaid                OrderStatus = "paid"
	OrderRejected            OrderStatus = "rejected"
)

// Order records a buyer's intent to pay. Verification is a separate,
// explicit step; intake never blocks on it.
type Order struct {
	ID        string
	Amount    decimal.Decimal
	Currency  string
	Network   string
	Items     []string
	BuyerRef  string
	TxHash    string
	Status    OrderStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}
