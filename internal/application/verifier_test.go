package application

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWallet   = "0xDD49337e6B62C8B0d750CD6F809A84F339a3061e"
	testContract = "0x55d398326f99059fF775485246999027B3197955"
	goodHash     = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

type fakeExplorer struct {
	unconfigured  bool
	receipt       domain.ChainReceipt
	receiptErr    error
	transfers     []domain.TokenTransfer
	transfersErr  error
	receiptCalls  int
	transferCalls int
}

func (f *fakeExplorer) Configured() bool { return !f.unconfigured }

func (f *fakeExplorer) TransactionReceipt(ctx context.Context, txHash string) (domain.ChainReceipt, error) {
	f.receiptCalls++
	if f.receiptErr != nil {
		return domain.ChainReceipt{}, f.receiptErr
	}
	return f.receipt, nil
}

func (f *fakeExplorer) TokenTransfers(ctx context.Context, wallet, contract string, pageSize int) ([]domain.TokenTransfer, error) {
	f.transferCalls++
	if f.transfersErr != nil {
		return nil, f.transfersErr
	}
	return f.transfers, nil
}

func matchingTransfer() domain.TokenTransfer {
	return domain.TokenTransfer{
		TxHash:          goodHash,
		From:            "0xSenderAddress",
		To:              testWallet,
		ContractAddress: testContract,
		RawValue:        "5000000",
		Decimals:        6,
		Confirmations:   5,
		Timestamp:       time.Unix(1700000000, 0).UTC(),
	}
}

func newTestVerifier(t *testing.T, explorer *fakeExplorer) *Verifier {
	t.Helper()
	verifier, err := NewVerifier(explorer, VerifierConfig{
		ReceivingWallet: testWallet,
		TokenContract:   testContract,
		Confirmations:   3,
	})
	require.NoError(t, err)
	return verifier
}

func claim(hash string, amount string) domain.PaymentClaim {
	return domain.PaymentClaim{
		TxHash:         hash,
		ExpectedAmount: decimal.RequireFromString(amount),
		BuyerRef:       "buyer@example.com",
	}
}

func TestVerifyRejectsMalformedHashWithoutNetworkCall(t *testing.T) {
	explorer := &fakeExplorer{}
	verifier := newTestVerifier(t, explorer)

	for _, hash := range []string{
		"",
		"0x123",
		strings.Repeat("a", 66),
		"0x" + strings.Repeat("g", 64),
		"0X" + strings.Repeat("a", 64),
		goodHash + "aa",
	} {
		verdict := verifier.Verify(context.Background(), claim(hash, "5"))
		assert.Equal(t, domain.OutcomeRejected, verdict.Outcome, "hash %q", hash)
		assert.Equal(t, domain.ReasonInvalidInput, verdict.Reason, "hash %q", hash)
	}
	assert.Zero(t, explorer.receiptCalls)
	assert.Zero(t, explorer.transferCalls)
}

func TestVerifyRejectsNonPositiveAmount(t *testing.T) {
	explorer := &fakeExplorer{}
	verifier := newTestVerifier(t, explorer)

	for _, amount := range []string{"0", "-1", "-0.01"} {
		verdict := verifier.Verify(context.Background(), claim(goodHash, amount))
		assert.Equal(t, domain.ReasonInvalidInput, verdict.Reason, "amount %s", amount)
	}
	assert.Zero(t, explorer.receiptCalls)
}

func TestVerifyNotConfigured(t *testing.T) {
	explorer := &fakeExplorer{unconfigured: true}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.OutcomeServiceError, verdict.Outcome)
	assert.Equal(t, domain.ReasonNotConfigured, verdict.Reason)
	assert.Zero(t, explorer.receiptCalls)
}

func TestVerifyReceiptNotFound(t *testing.T) {
	explorer := &fakeExplorer{receiptErr: ErrTxNotFound}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.OutcomeRejected, verdict.Outcome)
	assert.Equal(t, domain.ReasonNotFound, verdict.Reason)
	assert.Contains(t, verdict.Message, "Verify the hash")
	assert.Zero(t, explorer.transferCalls)
}

func TestVerifyChainExecutionFailed(t *testing.T) {
	explorer := &fakeExplorer{receipt: domain.ChainReceipt{TxHash: goodHash, Succeeded: false}}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.ReasonChainExecutionFailed, verdict.Reason)
	assert.Zero(t, explorer.transferCalls)
}

func TestVerifyUpstreamFailures(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		reason domain.ReasonCode
	}{
		{"unavailable", ErrUpstream, domain.ReasonUpstreamUnavailable},
		{"timeout", ErrUpstreamTimeout, domain.ReasonUpstreamTimeout},
		{"unconfigured at call time", ErrNotConfigured, domain.ReasonNotConfigured},
	} {
		t.Run(tc.name, func(t *testing.T) {
			explorer := &fakeExplorer{receiptErr: tc.err}
			verifier := newTestVerifier(t, explorer)
			verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
			assert.Equal(t, domain.OutcomeServiceError, verdict.Outcome)
			assert.Equal(t, tc.reason, verdict.Reason)
		})
	}
}

func TestVerifyNoMatchingTransfer(t *testing.T) {
	other := matchingTransfer()
	other.TxHash = "0x" + strings.Repeat("b", 64)
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{other},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.ReasonNotAStablecoinTransfer, verdict.Reason)
}

func TestVerifyWrongDestination(t *testing.T) {
	transfer := matchingTransfer()
	transfer.To = "0x0000000000000000000000000000000000000001"
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{transfer},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.ReasonWrongDestination, verdict.Reason)
}

func TestVerifyWrongToken(t *testing.T) {
	transfer := matchingTransfer()
	transfer.ContractAddress = "0x0000000000000000000000000000000000000002"
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{transfer},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.ReasonWrongToken, verdict.Reason)
}

func TestVerifyOverpaymentAccepted(t *testing.T) {
	transfer := matchingTransfer()
	transfer.RawValue = "10000000" // 10.00
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{transfer},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "9.99"))
	assert.Equal(t, domain.OutcomeVerified, verdict.Outcome)
	assert.True(t, verdict.Amount.Equal(decimal.RequireFromString("10")))
}

func TestVerifyUnderpaymentRejectedWithBothAmounts(t *testing.T) {
	transfer := matchingTransfer()
	transfer.RawValue = "10000000" // 10.00
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{transfer},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "10.01"))
	assert.Equal(t, domain.OutcomeRejected, verdict.Outcome)
	assert.Equal(t, domain.ReasonInsufficientAmount, verdict.Reason)
	assert.Contains(t, verdict.Message, "10.01")
	assert.Contains(t, verdict.Message, "10.00")
	assert.Equal(t, uint64(5), verdict.Confirmations)
}

func TestVerifyPendingBelowThreshold(t *testing.T) {
	transfer := matchingTransfer()
	transfer.Confirmations = 2
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{transfer},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.OutcomePending, verdict.Outcome)
	assert.Equal(t, domain.ReasonAwaitingConfirmations, verdict.Reason)
	assert.Equal(t, uint64(2), verdict.Confirmations)
	assert.Contains(t, verdict.Message, "(2/3)")
}

func TestVerifyCaseInsensitiveMatching(t *testing.T) {
	transfer := matchingTransfer()
	transfer.TxHash = strings.ToUpper(goodHash[2:])
	transfer.TxHash = "0x" + transfer.TxHash
	transfer.To = strings.ToLower(testWallet)
	transfer.ContractAddress = strings.ToUpper(testContract[2:])
	transfer.ContractAddress = "0x" + transfer.ContractAddress
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{transfer},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, domain.OutcomeVerified, verdict.Outcome)
}

func TestVerifyEndToEnd(t *testing.T) {
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true, From: "0xSenderAddress"},
		transfers: []domain.TokenTransfer{matchingTransfer()},
	}
	verifier := newTestVerifier(t, explorer)

	verdict := verifier.Verify(context.Background(), claim(goodHash, "5.00"))
	require.Equal(t, domain.OutcomeVerified, verdict.Outcome)
	assert.True(t, verdict.Amount.Equal(decimal.RequireFromString("5")))
	assert.Equal(t, uint64(5), verdict.Confirmations)
	assert.Equal(t, "0xSenderAddress", verdict.From)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), verdict.Timestamp)
	assert.True(t, verdict.Verified())
	assert.True(t, verdict.Terminal())
}

func TestVerifyIdempotent(t *testing.T) {
	explorer := &fakeExplorer{
		receipt:   domain.ChainReceipt{TxHash: goodHash, Succeeded: true},
		transfers: []domain.TokenTransfer{matchingTransfer()},
	}
	verifier := newTestVerifier(t, explorer)

	first := verifier.Verify(context.Background(), claim(goodHash, "5"))
	second := verifier.Verify(context.Background(), claim(goodHash, "5"))
	assert.Equal(t, first, second)
	assert.Equal(t, 2, explorer.receiptCalls)
	assert.Equal(t, 2, explorer.transferCalls)
}
