package domain

import "github.com/shopspring/decimal"

// PaymentClaim is one buyer-submitted assertion that a transaction pays for
// an order. It is created once per verification attempt and never mutated.
type PaymentClaim struct {
	TxHash         string
	ExpectedAmount decimal.Decimal
	BuyerRef       string
}
