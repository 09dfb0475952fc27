package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus classifies a summary row by confirmation depth. A transfer
// that failed at the chain level never appears in a token-transfer list, so
// there is no failed status here.
type TransferStatus string

const (
	TransferConfirmed TransferStatus = "confirmed"
	TransferPending   TransferStatus = "pending"
)

// SummaryEntry is one normalized incoming transfer for dashboard display.
type SummaryEntry struct {
	Date         time.Time
	Counterparty string
	Amount       decimal.Decimal
	TxHash       string
	Status       TransferStatus
}

// WalletSummary is the aggregate of a wallet's recent incoming transfers.
// Recomputed fully on every call; no delta state is kept between polls.
type WalletSummary struct {
	TotalReceived decimal.Decimal
	Transactions  []SummaryEntry
	LastCheckedAt time.Time
	Note          string
}
