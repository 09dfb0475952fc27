package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// VerdictRecord is one persisted row of the verification audit trail.
// Only terminal verdicts are recorded; pending claims resolve on retry.
type VerdictRecord struct {
	TxHash        string
	BuyerRef      string
	Outcome       Outcome
	Reason        ReasonCode
	Amount        decimal.Decimal
	Confirmations uint64
	RecordedAt    time.Time
}
