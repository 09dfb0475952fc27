package httpapi

import (
	"sync"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"
)

type Metrics struct {
	mu                sync.RWMutex
	startTime         time.Time
	verified          uint64
	pending           uint64
	rejected          uint64
	serviceErrors     uint64
	explorerErrors    uint64
	ordersCreated     uint64
	summaryRequests   uint64
	verdictsPublished uint64
	publishErrs       uint64
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) OnVerdict(verdict domain.Verdict) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch verdict.Outcome {
	case domain.OutcomeVerified:
		m.verified++
	case domain.OutcomePending:
		m.pending++
	case domain.OutcomeRejected:
		m.rejected++
	case domain.OutcomeServiceError:
		m.serviceErrors++
	}
	switch verdict.Reason {
	case domain.ReasonUpstreamUnavailable, domain.ReasonUpstreamTimeout:
		m.explorerErrors++
	}
}

func (m *Metrics) IncOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ordersCreated++
}

func (m *Metrics) IncSummaryRequest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryRequests++
}

func (m *Metrics) IncVerdictPublished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdictsPublished++
}

func (m *Metrics) IncPublishErr() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErrs++
}

type Snapshot struct {
	StartTime         time.Time
	Verified          uint64
	Pending           uint64
	Rejected          uint64
	ServiceErrors     uint64
	ExplorerErrors    uint64
	OrdersCreated     uint64
	SummaryRequests   uint64
	VerdictsPublished uint64
	PublishErrs       uint64
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{
		StartTime:         m.startTime,
		Verified:          m.verified,
		Pending:           m.pending,
		Rejected:          m.rejected,
		ServiceErrors:     m.serviceErrors,
		ExplorerErrors:    m.explorerErrors,
		OrdersCreated:     m.ordersCreated,
		SummaryRequests:   m.summaryRequests,
		VerdictsPublished: m.verdictsPublished,
		PublishErrs:       m.publishErrs,
	}
}
