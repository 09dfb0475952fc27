package application

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"github.com/shopspring/decimal"
)

type ActivityConfig struct {
	Wallet        string
	Contract      string
	Confirmations uint64
	PageSize      int
}

// Activity reconciles a wallet's recent incoming transfers into dashboard
// statistics. The endpoint it feeds is advisory: any upstream failure turns
// into an empty summary with an explanatory note, never an error.
type Activity struct {
	explorer ExplorerClient
	cfg      ActivityConfig
	now      func() time.Time
}

func NewActivity(explorer ExplorerClient, cfg ActivityConfig) (*Activity, error) {
	if explorer == nil {
		return nil, errors.New("explorer client is required")
	}
	if cfg.Wallet == "" || cfg.Contract == "" {
		return nil, errors.New("wallet and contract are required")
	}
	if cfg.Confirmations == 0 {
		cfg.Confirmations = 3
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	return &Activity{explorer: explorer, cfg: cfg, now: time.Now}, nil
}

// Summarize recomputes the wallet summary from scratch. No delta state is
// kept between calls.
func (a *Activity) Summarize(ctx context.Context) domain.WalletSummary {
	summary := domain.WalletSummary{
		TotalReceived: decimal.Zero,
		LastCheckedAt: a.now().UTC(),
	}

	if !a.explorer.Configured() {
		summary.Note = "Explorer API key is not configured. Set EXPLORER_API_KEY."
		return summary
	}

	transfers, err := a.explorer.TokenTransfers(ctx, a.cfg.Wallet, a.cfg.Contract, a.cfg.PageSize)
	if err != nil {
		slog.Warn("wallet summary degraded", "err", err)
		summary.Note = "Explorer error: " + err.Error()
		return summary
	}

	entries := make([]domain.SummaryEntry, 0, len(transfers))
	total := decimal.Zero
	for _, transfer := range transfers {
		if !strings.EqualFold(transfer.To, a.cfg.Wallet) {
			continue
		}
		amount, err := transfer.Amount()
		if err != nil {
			slog.Warn("skipping transfer with bad value", "tx_hash", transfer.TxHash, "value", transfer.RawValue)
			continue
		}
		entries = append(entries, domain.SummaryEntry{
			Date:         transfer.Timestamp,
			Counterparty: shortAddress(transfer.From),
			Amount:       amount,
			TxHash:       transfer.TxHash,
			Status:       a.classify(transfer.Confirmations),
		})
		total = total.Add(amount)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})

	summary.Transactions = entries
	summary.TotalReceived = total.Round(2)
	return summary
}

// classify buckets a transfer by confirmation depth. A transfer that failed
// at the chain level never appears in the list, so there is no failed bucket.
func (a *Activity) classify(confirmations uint64) domain.TransferStatus {
	if confirmations >= a.cfg.Confirmations {
		return domain.TransferConfirmed
	}
	return domain.TransferPending
}

func shortAddress(address string) string {
	if len(address) <= 12 {
		return address
	}
	return address[:8] + "..." + address[len(address)-4:]
}
