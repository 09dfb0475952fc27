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
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/logging"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/storage"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/telemetry"
	"github.com/lokix94/peru-hub-sub000/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "logs/settler.log"
	}
	if _, err := logging.Init("settler", logging.Config{
		Level:      cfg.LogLevel,
		File:       logFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	}); err != nil {
		slog.Error("logger init error", "err", err)
	}

	if len(cfg.KafkaBrokers) == 0 {
		slog.Error("KAFKA_BROKERS is required for settlement")
		os.Exit(1)
	}

	shutdownTracing, err := telemetry.Init(context.Background(), "payhub-settler", version, cfg.OtelEndpoint)
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

	orders, err := application.NewOrders(store)
	if err != nil {
		slog.Error("orders error", "err", err)
		os.Exit(1)
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("settlement consumer started", "topic", cfg.KafkaTopic, "group", cfg.KafkaGroupID)
	consumeVerdicts(ctx, reader, orders)
	_ = reader.Close()
}

func consumeVerdicts(ctx context.Context, reader *kafka.Reader, orders *application.Orders) {
	tracer := otel.Tracer("payhub/settler")
	var (
		messageCount uint64
		settledCount uint64
	)

	for {
		message, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			slog.Error("kafka fetch error", "err", err)
			continue
		}

		decoded, err := streaming.Decode(message.Value)
		if err != nil {
			slog.Error("message decode error", "err", err)
			_ = reader.CommitMessages(ctx, message)
			continue
		}

		messageCtx := telemetry.ExtractKafkaHeaders(ctx, message.Headers)
		if !trace.SpanContextFromContext(messageCtx).IsValid() && decoded.TraceID != "" {
			if ctxWithTrace, ok := telemetry.ContextWithTraceID(messageCtx, decoded.TraceID); ok {
				messageCtx = ctxWithTrace
			}
		}
		messageCtx, span := tracer.Start(messageCtx, "settler.apply_verdict", trace.WithSpanKind(trace.SpanKindConsumer))
		span.SetAttributes(
			attribute.String("tx.hash", decoded.TxHash),
			attribute.String("verdict.outcome", decoded.Outcome),
		)
		if decoded.OrderID != "" {
			span.SetAttributes(attribute.String("order.id", decoded.OrderID))
		}

		if err := orders.SettleTx(messageCtx, decoded.OrderID, decoded.TxHash, decoded.Verdict()); err != nil {
			slog.Error("settle error", "tx_hash", decoded.TxHash, "err", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			time.Sleep(500 * time.Millisecond)
			continue
		}
		span.End()

		messageCount++
		settledCount++
		if messageCount%100 == 0 {
			slog.Info("settlement stats", "messages", messageCount, "settled", settledCount, "last_tx", decoded.TxHash)
		}

		if err := reader.CommitMessages(ctx, message); err != nil {
			slog.Error("kafka commit error", "err", err)
		}
	}
}
