package domain

// ChainReceipt is the chain-level execution record for a transaction.
// Fetched fresh on every lookup; confirmation counts move between calls, so
// receipts are never cached.
type ChainReceipt struct {
	TxHash    string
	Succeeded bool
	From      string
}
