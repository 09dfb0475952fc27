package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/application"
	"github.com/lokix94/peru-hub-sub000/internal/config"
	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/shopspring/decimal"
)

type TxVerifier interface {
	Verify(ctx context.Context, claim domain.PaymentClaim) domain.Verdict
}

type WalletSummarizer interface {
	Summarize(ctx context.Context) domain.WalletSummary
}

type OrderService interface {
	Create(ctx context.Context, input application.CreateOrderInput) (domain.Order, error)
	Get(ctx context.Context, id string) (domain.Order, bool, error)
}

type AuditStore interface {
	RecordVerdict(ctx context.Context, record domain.VerdictRecord) error
	Ping(ctx context.Context) error
}

type VerdictPublisher interface {
	PublishVerdict(ctx context.Context, orderID string, claim domain.PaymentClaim, verdict domain.Verdict) error
}

type ExplorerStatus interface {
	Configured() bool
}

type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

type Server struct {
	cfg       config.Config
	verifier  TxVerifier
	summaries WalletSummarizer
	orders    OrderService
	store     AuditStore
	publisher VerdictPublisher
	explorer  ExplorerStatus
	metrics   *Metrics
	buildInfo BuildInfo
}

func NewServer(cfg config.Config, verifier TxVerifier, summaries WalletSummarizer, orders OrderService, store AuditStore, publisher VerdictPublisher, explorer ExplorerStatus, metrics *Metrics, buildInfo BuildInfo) (*Server, error) {
	if verifier == nil || summaries == nil || orders == nil || store == nil || explorer == nil {
		return nil, errors.New("http server dependencies must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Server{
		cfg:       cfg,
		verifier:  verifier,
		summaries: summaries,
		orders:    orders,
		store:     store,
		publisher: publisher,
		explorer:  explorer,
		metrics:   metrics,
		buildInfo: buildInfo,
	}, nil
}

func (s *Server) MetricsObserver() *Metrics {
	return s.metrics
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/api/checkout", s.handleCheckout)
	mux.HandleFunc("/api/verify-transaction", s.handleVerifyTransaction)
	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/orders/", s.handleOrder)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/version", s.handleVersion)
	return mux
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "db not ready")
		return
	}
	if !s.explorer.Configured() {
		respondError(w, http.StatusServiceUnavailable, "explorer not configured")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Amounts decode through decimal.Decimal so clients may send either a
// JSON number or a quoted string without losing precision.
type checkoutRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Network  string          `json:"network"`
	Items    []string        `json:"items"`
	BuyerRef string          `json:"buyerRef"`
	TxHash   string          `json:"txHash"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		respondJSON(w, http.StatusOK, map[string]any{
			"service": "checkout",
			"method":  "POST",
			"payment": map[string]any{
				"wallet":        s.cfg.ReceivingWallet,
				"tokenContract": s.cfg.TokenContract,
				"network":       "BEP20",
				"confirmations": s.cfg.Confirmations,
			},
			"fields": map[string]string{
				"amount":   "decimal string, required",
				"items":    "list of item ids, required",
				"txHash":   "transaction hash declared by the buyer, required",
				"currency": "default USDT",
				"network":  "default BEP20",
				"buyerRef": "optional reference kept for records",
			},
		})
	case http.MethodPost:
		var req checkoutRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		order, err := s.orders.Create(r.Context(), application.CreateOrderInput{
			Amount:   req.Amount,
			Currency: req.Currency,
			Network:  req.Network,
			Items:    req.Items,
			BuyerRef: req.BuyerRef,
			TxHash:   req.TxHash,
		})
		var validationErr *application.ValidationError
		if errors.As(err, &validationErr) {
			respondError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, "order could not be created")
			return
		}
		s.metrics.IncOrderCreated()
		respondJSON(w, http.StatusCreated, orderDocument(order))
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type verifyRequest struct {
	TxHash         string          `json:"txHash"`
	ExpectedAmount decimal.Decimal `json:"expectedAmount"`
	OrderID        string          `json:"orderId"`
	BuyerRef       string          `json:"buyerRef"`
}

func (s *Server) handleVerifyTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	claim := domain.PaymentClaim{
		TxHash:         strings.TrimSpace(req.TxHash),
		ExpectedAmount: req.ExpectedAmount,
		BuyerRef:       req.BuyerRef,
	}

	verdict := s.verifier.Verify(r.Context(), claim)
	s.metrics.OnVerdict(verdict)
	if verdict.Terminal() {
		s.recordAndPublish(r.Context(), req.OrderID, claim, verdict)
	}

	respondJSON(w, verdictStatus(verdict), verdictDocument(verdict))
}

// recordAndPublish is best-effort bookkeeping: a failed audit write or a
// failed publish never changes the verdict already decided for the caller.
func (s *Server) recordAndPublish(ctx context.Context, orderID string, claim domain.PaymentClaim, verdict domain.Verdict) {
	err := s.store.RecordVerdict(ctx, domain.VerdictRecord{
		TxHash:        claim.TxHash,
		BuyerRef:      claim.BuyerRef,
		Outcome:       verdict.Outcome,
		Reason:        verdict.Reason,
		Amount:        verdict.Amount,
		Confirmations: verdict.Confirmations,
		RecordedAt:    time.Now(),
	})
	if err != nil {
		slog.Error("verdict audit write failed", "tx_hash", claim.TxHash, "error", err)
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishVerdict(ctx, orderID, claim, verdict); err != nil {
		s.metrics.IncPublishErr()
		slog.Error("verdict publish failed", "tx_hash", claim.TxHash, "error", err)
		return
	}
	s.metrics.IncVerdictPublished()
}

func verdictStatus(verdict domain.Verdict) int {
	switch verdict.Reason {
	case domain.ReasonInvalidInput:
		return http.StatusBadRequest
	case domain.ReasonNotConfigured:
		return http.StatusServiceUnavailable
	case domain.ReasonUpstreamUnavailable, domain.ReasonUpstreamTimeout:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}

func verdictDocument(verdict domain.Verdict) map[string]any {
	if verdict.Verified() {
		doc := map[string]any{
			"verified":      true,
			"amount":        verdict.Amount.String(),
			"from":          verdict.From,
			"to":            verdict.To,
			"confirmations": verdict.Confirmations,
		}
		if !verdict.Timestamp.IsZero() {
			doc["timestamp"] = verdict.Timestamp.Unix()
		}
		return doc
	}
	doc := map[string]any{
		"verified": false,
		"status":   string(verdict.Outcome),
		"error":    verdict.Message,
	}
	if verdict.Outcome == domain.OutcomePending {
		doc["confirmations"] = verdict.Confirmations
	}
	return doc
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.metrics.IncSummaryRequest()
	summary := s.summaries.Summarize(r.Context())

	rows := make([]map[string]any, 0, len(summary.Transactions))
	for _, entry := range summary.Transactions {
		rows = append(rows, map[string]any{
			"date":         entry.Date.UTC().Format(time.RFC3339),
			"counterparty": entry.Counterparty,
			"amount":       entry.Amount.String(),
			"txHash":       entry.TxHash,
			"status":       string(entry.Status),
		})
	}
	doc := map[string]any{
		"total_received": summary.TotalReceived.String(),
		"transactions":   rows,
		"last_checked":   summary.LastCheckedAt.UTC().Format(time.RFC3339),
	}
	if summary.Note != "" {
		doc["note"] = summary.Note
	}
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/orders/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusBadRequest, "order id is required")
		return
	}
	order, found, err := s.orders.Get(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "order lookup failed")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "order not found")
		return
	}
	respondJSON(w, http.StatusOK, orderDocument(order))
}

func orderDocument(order domain.Order) map[string]any {
	return map[string]any{
		"orderId":          order.ID,
		"status":           string(order.Status),
		"amountReceivable": order.Amount.String(),
		"currency":         order.Currency,
		"network":          order.Network,
		"items":            order.Items,
		"buyerRef":         order.BuyerRef,
		"txHash":           order.TxHash,
		"bscscanUrl":       "https://bscscan.com/tx/" + order.TxHash,
		"createdAt":        order.CreatedAt.UTC().Format(time.RFC3339),
		"updatedAt":        order.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	snap := s.metrics.Snapshot()

	uptime := time.Since(snap.StartTime).Seconds()
	fmt.Fprintf(w, "payhub_uptime_seconds %.0f\n", uptime)
	fmt.Fprintf(w, "payhub_verify_verified_total %d\n", snap.Verified)
	fmt.Fprintf(w, "payhub_verify_pending_total %d\n", snap.Pending)
	fmt.Fprintf(w, "payhub_verify_rejected_total %d\n", snap.Rejected)
	fmt.Fprintf(w, "payhub_verify_service_error_total %d\n", snap.ServiceErrors)
	fmt.Fprintf(w, "payhub_explorer_errors_total %d\n", snap.ExplorerErrors)
	fmt.Fprintf(w, "payhub_orders_created_total %d\n", snap.OrdersCreated)
	fmt.Fprintf(w, "payhub_summary_requests_total %d\n", snap.SummaryRequests)
	fmt.Fprintf(w, "payhub_verdicts_published_total %d\n", snap.VerdictsPublished)
	fmt.Fprintf(w, "payhub_verdict_publish_errors_total %d\n", snap.PublishErrs)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.buildInfo)
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
