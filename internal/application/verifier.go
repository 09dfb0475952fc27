package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var txHashPattern = regexp.MustCompile(`^0x[a-fA-F0-9]{64}$`)

type VerifierConfig struct {
	ReceivingWallet string
	TokenContract   string
	Confirmations   uint64
	PageSize        int
}

// Verifier turns a payment claim into a verdict. It owns no state: every
// call is a fresh read-through to the explorer, so repeating a call after
// more blocks are mined naturally moves Pending toward Verified.
type Verifier struct {
	explorer ExplorerClient
	cfg      VerifierConfig
}

func NewVerifier(explorer ExplorerClient, cfg VerifierConfig) (*Verifier, error) {
	if explorer == nil {
		return nil, errors.New("explorer client is required")
	}
	if cfg.ReceivingWallet == "" || cfg.TokenContract == "" {
		return nil, errors.New("receiving wallet and token contract are required")
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 3
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	return &Verifier{explorer: explorer, cfg: cfg}, nil
}

// Verify runs the ordered checks and short-circuits on the first failure.
// Business outcomes are verdict values; only the explorer being unreachable
// or misconfigured produces the service-error family.
func (v *Verifier) Verify(ctx context.Context, claim domain.PaymentClaim) domain.Verdict {
	tracer := otel.Tracer("payhub/verifier")
	ctx, span := tracer.Start(ctx, "verifier.verify")
	span.SetAttributes(attribute.String("tx.hash", claim.TxHash))
	defer span.End()

	verdict := v.verify(ctx, claim)

	span.SetAttributes(
		attribute.String("verdict.outcome", string(verdict.Outcome)),
		attribute.String("verdict.reason", string(verdict.Reason)),
	)
	if verdict.Verified() {
		slog.Info("transaction verified",
			"tx_hash", claim.TxHash,
			"amount", verdict.Amount.String(),
			"from", verdict.From,
			"buyer", claim.BuyerRef,
		)
	}
	return verdict
}

func (v *Verifier) verify(ctx context.Context, claim domain.PaymentClaim) domain.Verdict {
	if !txHashPattern.MatchString(claim.TxHash) || !claim.ExpectedAmount.IsPositive() {
		return rejected(domain.ReasonInvalidInput, "")
	}
	if !v.explorer.Configured() {
		return serviceError(domain.ReasonNotConfigured)
	}

	receipt, err := v.explorer.TransactionReceipt(ctx, claim.TxHash)
	if err != nil {
		if errors.Is(err, ErrTxNotFound) {
			return rejected(domain.ReasonNotFound, "")
		}
		return explorerFailure(err)
	}
	if !receipt.Succeeded {
		return rejected(domain.ReasonChainExecutionFailed, "")
	}

	transfers, err := v.explorer.TokenTransfers(ctx, v.cfg.ReceivingWallet, v.cfg.TokenContract, v.cfg.PageSize)
	if err != nil {
		return explorerFailure(err)
	}
	var transfer *domain.TokenTransfer
	for i := range transfers {
		if strings.EqualFold(transfers[i].TxHash, claim.TxHash) {
			transfer = &transfers[i]
			break
		}
	}
	if transfer == nil {
		return rejected(domain.ReasonNotAStablecoinTransfer, "")
	}

	if !strings.EqualFold(transfer.To, v.cfg.ReceivingWallet) {
		return rejected(domain.ReasonWrongDestination, "")
	}
	if !strings.EqualFold(transfer.ContractAddress, v.cfg.TokenContract) {
		return rejected(domain.ReasonWrongToken, "")
	}

	amount, err := transfer.Amount()
	if err != nil {
		return explorerFailure(fmt.Errorf("%w: bad transfer value %q", ErrUpstream, transfer.RawValue))
	}
	if amount.LessThan(claim.ExpectedAmount) {
		verdict := rejected(domain.ReasonInsufficientAmount, fmt.Sprintf(
			" Expected %s USDT but received %s USDT.",
			claim.ExpectedAmount.StringFixed(2), amount.StringFixed(2),
		))
		verdict.Amount = amount
		verdict.From = transfer.From
		verdict.To = transfer.To
		verdict.Confirmations = transfer.Confirmations
		return verdict
	}

	if transfer.Confirmations < v.cfg.Confirmations {
		return domain.Verdict{
			Outcome:       domain.OutcomePending,
			Reason:        domain.ReasonAwaitingConfirmations,
			Amount:        amount,
			From:          transfer.From,
			To:            transfer.To,
			Confirmations: transfer.Confirmations,
			Timestamp:     transfer.Timestamp,
			Message: fmt.Sprintf("%s (%d/%d)",
				domain.ReasonAwaitingConfirmations.Message(),
				transfer.Confirmations, v.cfg.Confirmations),
		}
	}

	return domain.Verdict{
		Outcome:       domain.OutcomeVerified,
		Amount:        amount,
		From:          transfer.From,
		To:            transfer.To,
		Confirmations: transfer.Confirmations,
		Timestamp:     transfer.Timestamp,
	}
}

func rejected(reason domain.ReasonCode, detail string) domain.Verdict {
	return domain.Verdict{
		Outcome: domain.OutcomeRejected,
		Reason:  reason,
		Message: reason.Message() + detail,
	}
}

func serviceError(reason domain.ReasonCode) domain.Verdict {
	return domain.Verdict{
		Outcome: domain.OutcomeServiceError,
		Reason:  reason,
		Message: reason.Message(),
	}
}

func explorerFailure(err error) domain.Verdict {
	switch {
	case errors.Is(err, ErrNotConfigured):
		return serviceError(domain.ReasonNotConfigured)
	case errors.Is(err, ErrUpstreamTimeout):
		return serviceError(domain.ReasonUpstreamTimeout)
	default:
		return serviceError(domain.ReasonUpstreamUnavailable)
	}
}
