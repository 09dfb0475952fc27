package application

import (
	"context"
	"errors"

	"github.com/lokix94/peru-hub-sub000/internal/domain"
)

// FlowState is the presentation-facing lifecycle of one verification claim.
type FlowState string

const (
	FlowIdle         FlowState = "idle"
	FlowLoading      FlowState = "loading"
	FlowVerified     FlowState = "verified"
	FlowPending      FlowState = "pending"
	FlowRejected     FlowState = "rejected"
	FlowServiceError FlowState = "service_error"
)

// ClaimVerifier is the slice of the orchestrator the flow needs.
type ClaimVerifier interface {
	Verify(ctx context.Context, claim domain.PaymentClaim) domain.Verdict
}

var (
	ErrFlowNotStarted = errors.New("flow has not been started")
	ErrFlowFinished   = errors.New("claim is already verified")
	ErrFlowStarted    = errors.New("flow was already started")
)

// ConfirmFlow drives one claim through idle → loading → outcome, with
// user-initiated retries re-entering loading. There is no background
// polling; a new claim means a new flow. Not safe for concurrent use.
type ConfirmFlow struct {
	verifier ClaimVerifier
	claim    domain.PaymentClaim
	state    FlowState
	verdict  domain.Verdict
}

func NewConfirmFlow(verifier ClaimVerifier, claim domain.PaymentClaim) (*ConfirmFlow, error) {
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	return &ConfirmFlow{verifier: verifier, claim: claim, state: FlowIdle}, nil
}

func (f *ConfirmFlow) State() FlowState {
	return f.state
}

func (f *ConfirmFlow) Verdict() domain.Verdict {
	return f.verdict
}

// Start runs the first verification. It may be called once.
func (f *ConfirmFlow) Start(ctx context.Context) (domain.Verdict, error) {
	if f.state != FlowIdle {
		return domain.Verdict{}, ErrFlowStarted
	}
	return f.run(ctx), nil
}

// Retry re-invokes verification with the same claim. Allowed from pending,
// rejected and service-error states; a verified claim is final.
func (f *ConfirmFlow) Retry(ctx context.Context) (domain.Verdict, error) {
	switch f.state {
	case FlowIdle, FlowLoading:
		return domain.Verdict{}, ErrFlowNotStarted
	case FlowVerified:
		return domain.Verdict{}, ErrFlowFinished
	}
	return f.run(ctx), nil
}

func (f *ConfirmFlow) run(ctx context.Context) domain.Verdict {
	f.state = FlowLoading
	f.verdict = f.verifier.Verify(ctx, f.claim)
	switch f.verdict.Outcome {
	case domain.OutcomeVerified:
		f.state = FlowVerified
	case domain.OutcomePending:
		f.state = FlowPending
	case domain.OutcomeRejected:
		f.state = FlowRejected
	default:
		f.state = FlowServiceError
	}
	return f.verdict
}
