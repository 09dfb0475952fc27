package application

import (
	"context"
	"errors"

	"github.com/lokix94/peru-hub-sub000/internal/domain"
)

// ExplorerClient is the read-only oracle for chain facts. Implementations
// must fail closed: upstream trouble is an error, never an empty result.
type ExplorerClient interface {
	Configured() bool
	TransactionReceipt(ctx context.Context, txHash string) (domain.ChainReceipt, error)
	TokenTransfers(ctx context.Context, wallet, contract string, pageSize int) ([]domain.TokenTransfer, error)
}

var (
	// ErrNotConfigured means the explorer has no API key. Distinct from
	// ErrTxNotFound: callers render "contact administrator" for one and
	// "check the hash" for the other.
	ErrNotConfigured = errors.New("explorer api key is not configured")

	// ErrTxNotFound means the explorer answered and the transaction does not
	// exist on chain.
	ErrTxNotFound = errors.New("transaction not found")

	// ErrUpstream covers non-2xx responses, malformed bodies and
	// explorer-side refusals.
	ErrUpstream = errors.New("explorer unavailable")

	// ErrUpstreamTimeout is a hung or cancelled upstream call.
	ErrUpstreamTimeout = errors.New("explorer timeout")
)
