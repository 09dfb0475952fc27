package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the top-level result class of a verification attempt.
type Outcome string

const (
	OutcomeVerified     Outcome = "verified"
	OutcomePending      Outcome = "pending"
	OutcomeRejected     Outcome = "rejected"
	OutcomeServiceError Outcome = "service_error"
)

// ReasonCode identifies why a verdict is anything other than Verified.
type ReasonCode string

const (
	ReasonInvalidInput           ReasonCode = "invalid_input"
	ReasonNotConfigured          ReasonCode = "not_configured"
	ReasonUpstreamUnavailable    ReasonCode = "upstream_unavailable"
	ReasonUpstreamTimeout        ReasonCode = "upstream_timeout"
	ReasonNotFound               ReasonCode = "not_found"
	ReasonChainExecutionFailed   ReasonCode = "chain_execution_failed"
	ReasonNotAStablecoinTransfer ReasonCode = "not_a_stablecoin_transfer"
	ReasonWrongDestination       ReasonCode = "wrong_destination"
	ReasonWrongToken             ReasonCode = "wrong_token"
	ReasonInsufficientAmount     ReasonCode = "insufficient_amount"
	ReasonAwaitingConfirmations  ReasonCode = "awaiting_confirmations"
)

var reasonMessages = map[ReasonCode]string{
	ReasonInvalidInput:           "Invalid transaction hash or amount. The hash must be 0x followed by 64 hex characters and the amount must be positive.",
	ReasonNotConfigured:          "Verification service is not configured. Contact the administrator.",
	ReasonUpstreamUnavailable:    "Could not reach the block explorer. Try again.",
	ReasonUpstreamTimeout:        "The block explorer took too long to respond. Try again.",
	ReasonNotFound:               "Transaction not found. Verify the hash and try again.",
	ReasonChainExecutionFailed:   "The transaction failed on the blockchain.",
	ReasonNotAStablecoinTransfer: "This transaction is not a stablecoin transfer to our wallet.",
	ReasonWrongDestination:       "Wrong destination wallet. The payment was not sent to the correct address.",
	ReasonWrongToken:             "Wrong token. Only the configured stablecoin is accepted.",
	ReasonInsufficientAmount:     "Received amount is below the expected amount.",
	ReasonAwaitingConfirmations:  "Waiting for confirmations. Try again in a few seconds.",
}

// Message returns the human-readable text paired with the reason code. Every
// code has exactly one message; callers may append dynamic detail but never
// substitute a different base message.
func (c ReasonCode) Message() string {
	return reasonMessages[c]
}

// KnownReasons lists every reason code with a registered message.
func KnownReasons() []ReasonCode {
	reasons := make([]ReasonCode, 0, len(reasonMessages))
	for code := range reasonMessages {
		reasons = append(reasons, code)
	}
	return reasons
}

// Verdict is the single structured outcome of a verification attempt and the
// only artifact exposed across the pipeline boundary.
type Verdict struct {
	Outcome       Outcome
	Reason        ReasonCode
	Amount        decimal.Decimal
	From          string
	To            string
	Confirmations uint64
	Timestamp     time.Time
	Message       string
}

// Verified reports whether every check passed.
func (v Verdict) Verified() bool {
	return v.Outcome == OutcomeVerified
}

// Terminal reports whether re-running verification with the same claim can
// ever change the result. Pending resolves itself as blocks are mined and
// service errors are transient, so neither is terminal.
func (v Verdict) Terminal() bool {
	return v.Outcome == OutcomeVerified || v.Outcome == OutcomeRejected
}
