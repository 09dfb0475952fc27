package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lokix94/peru-hub-sub000/internal/application"
	"github.com/lokix94/peru-hub-sub000/internal/config"
	"github.com/lokix94/peru-hub-sub000/internal/domain"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/bscscan"

	"github.com/shopspring/decimal"
)

func main() {
	txHash := flag.String("tx", "", "transaction hash to verify")
	amount := flag.String("amount", "", "expected payment amount in USDT")
	buyerRef := flag.String("buyer", "", "buyer reference kept for records")
	flag.Parse()

	if *txHash == "" || *amount == "" {
		fmt.Fprintln(os.Stderr, "usage: verifytx -tx <hash> -amount <usdt> [-buyer <ref>]")
		os.Exit(2)
	}
	expected, err := decimal.NewFromString(*amount)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid amount %q: %v\n", *amount, err)
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	explorer, err := bscscan.NewClient(bscscan.Config{
		BaseURL: cfg.ExplorerURL,
		APIKey:  cfg.ExplorerAPIKey,
		ChainID: cfg.ExplorerChainID,
		Timeout: cfg.ExplorerTimeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "explorer error: %v\n", err)
		os.Exit(1)
	}

	verifier, err := application.NewVerifier(explorer, application.VerifierConfig{
		ReceivingWallet: cfg.ReceivingWallet,
		TokenContract:   cfg.TokenContract,
		Confirmations:   cfg.Confirmations,
		PageSize:        cfg.VerifyPageSize,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "verifier error: %v\n", err)
		os.Exit(1)
	}

	flow, err := application.NewConfirmFlow(verifier, domain.PaymentClaim{
		TxHash:         *txHash,
		ExpectedAmount: expected,
		BuyerRef:       *buyerRef,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "flow error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("verifying %s (expecting %s USDT)...\n", *txHash, expected.StringFixed(2))
	verdict, err := flow.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "start error: %v\n", err)
		os.Exit(1)
	}
	printVerdict(verdict)

	stdin := bufio.NewScanner(os.Stdin)
	for flow.State() != application.FlowVerified {
		fmt.Print("press Enter to retry, Ctrl+C to exit: ")
		if !stdin.Scan() || ctx.Err() != nil {
			fmt.Println()
			os.Exit(exitCode(flow.Verdict()))
		}
		verdict, err = flow.Retry(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "retry error: %v\n", err)
			os.Exit(1)
		}
		printVerdict(verdict)
	}
	os.Exit(0)
}

func printVerdict(verdict domain.Verdict) {
	switch verdict.Outcome {
	case domain.OutcomeVerified:
		fmt.Printf("VERIFIED: %s USDT from %s (%d confirmations)\n",
			verdict.Amount.String(), verdict.From, verdict.Confirmations)
	case domain.OutcomePending:
		fmt.Printf("PENDING: %s\n", verdict.Message)
	case domain.OutcomeRejected:
		fmt.Printf("REJECTED [%s]: %s\n", verdict.Reason, verdict.Message)
	default:
		fmt.Printf("SERVICE ERROR [%s]: %s\n", verdict.Reason, verdict.Message)
	}
}

func exitCode(verdict domain.Verdict) int {
	switch verdict.Outcome {
	case domain.OutcomeVerified:
		return 0
	case domain.OutcomePending:
		return 3
	default:
		return 1
	}
}
