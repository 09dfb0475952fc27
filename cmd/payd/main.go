package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/application"
	"github.com/lokix94/peru-hub-sub000/internal/config"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/bscscan"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/kafka"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/logging"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/storage"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/telemetry"
	"github.com/lokix94/peru-hub-sub000/internal/interfaces/httpapi"
)

var (
	version   = "dev"
	commit    = "none"
	buildTime = "unknown"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "logs/payd.log"
	}
	if _, err := logging.Init("payd", logging.Config{
		Level:      cfg.LogLevel,
		File:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}); err != nil {
		slog.Error("logger init error", "err", err)
	}

	shutdownTracing, err := telemetry.Init(context.Background(), "payhub-payd", version, cfg.OtelEndpoint)
	if err != nil {
		slog.Warn("tracing init error", "err", err)
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				slog.Warn("tracing shutdown error", "err", err)
			}
		}()
	}

	store, err := storage.Open(cfg.OrdersDBDriver, cfg.OrdersDBDSN)
	if err != nil {
		slog.Error("orders db error", "err", err)
		os.Exit(1)
	}
	defer store.Close()

	explorer, err := bscscan.NewClient(bscscan.Config{
		BaseURL: cfg.ExplorerURL,
		APIKey:  cfg.ExplorerAPIKey,
		ChainID: cfg.ExplorerChainID,
		Timeout: cfg.ExplorerTimeout,
	})
	if err != nil {
		slog.Error("explorer error", "err", err)
		os.Exit(1)
	}

	verifier, err := application.NewVerifier(explorer, application.VerifierConfig{
		ReceivingWallet: cfg.ReceivingWallet,
		TokenContract:   cfg.TokenContract,
		Confirmations:   cfg.Confirmations,
		PageSize:        cfg.VerifyPageSize,
	})
	if err != nil {
		slog.Error("verifier error", "err", err)
		os.Exit(1)
	}

	activity, err := application.NewActivity(explorer, application.ActivityConfig{
		Wallet:        cfg.ReceivingWallet,
		Contract:      cfg.TokenContract,
		Confirmations: cfg.Confirmations,
		PageSize:      cfg.SummaryPageSize,
	})
	if err != nil {
		slog.Error("activity error", "err", err)
		os.Exit(1)
	}

	var summaries httpapi.WalletSummarizer = activity
	if cached, err := storage.NewCachedSummarizer(activity, storage.CacheConfig{
		Addr: cfg.RedisAddr,
		TTL:  cfg.SummaryCacheTTL,
	}); err != nil {
		slog.Warn("redis cache disabled", "err", err)
	} else {
		summaries = cached
		defer cached.Close()
	}

	orders, err := application.NewOrders(store)
	if err != nil {
		slog.Error("orders error", "err", err)
		os.Exit(1)
	}

	var publisher httpapi.VerdictPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer, err := kafka.NewProducer(kafka.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
		})
		if err != nil {
			slog.Error("kafka error", "err", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
	} else {
		slog.Info("verdict publishing disabled: no kafka brokers configured")
	}

	metrics := httpapi.NewMetrics()
	server, err := httpapi.NewServer(cfg, verifier, summaries, orders, store, publisher, explorer, metrics, httpapi.BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
	})
	if err != nil {
		slog.Error("http server error", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("payment api listening", "addr", cfg.HTTPAddr, "wallet", cfg.ReceivingWallet)
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("http server error", "err", err)
		os.Exit(1)
	}
}
