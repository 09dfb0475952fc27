package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TokenTransfer is one row of a token-transfer-list query.
type TokenTransfer struct {
	TxHash          string
	From            string
	To              string
	ContractAddress string
	RawValue        string
	Decimals        int32
	Confirmations   uint64
	Timestamp       time.Time
}

// Amount converts the raw integer token value into currency units.
// A missing token decimal defaults to 18, matching the chain convention.
func (t TokenTransfer) Amount() (decimal.Decimal, error) {
	raw, err := decimal.NewFromString(t.RawValue)
	if err != nil {
		return decimal.Zero, err
	}
	decimals := t.Decimals
	if decimals == 0 {
		decimals = 18
	}
	return raw.Shift(-decimals), nil
}
