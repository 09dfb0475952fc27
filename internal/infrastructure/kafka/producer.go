package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/domain"
	"github.com/lokix94/peru-hub-sub000/internal/infrastructure/telemetry"
	"github.com/lokix94/peru-hub-sub000/internal/streaming"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Producer publishes terminal verdicts to the settlement topic.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

type ProducerConfig struct {
	Brokers []string
	Topic   string
}

func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		cfg.Topic = "payhub-verdicts"
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 500 * time.Millisecond,
	}
	return &Producer{writer: writer, topic: cfg.Topic}, nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishVerdict emits one settlement event. Non-terminal verdicts are
// skipped: pending claims re-enter the pipeline instead of the topic.
func (p *Producer) PublishVerdict(ctx context.Context, orderID string, claim domain.PaymentClaim, verdict domain.Verdict) error {
	if !verdict.Terminal() {
		return nil
	}

	tracer := otel.Tracer("payhub/kafka")
	traceID, traceIDHex, ok := telemetry.NewTraceID()
	traceCtx := ctx
	if ok {
		if spanCtx, ok := telemetry.NewSpanContext(traceID); ok {
			traceCtx = trace.ContextWithSpanContext(ctx, spanCtx)
		}
	} else {
		traceIDHex = ""
	}
	traceCtx, span := tracer.Start(traceCtx, "payments.publish_verdict", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()
	span.SetAttributes(
		attribute.String("tx.hash", claim.TxHash),
		attribute.String("verdict.outcome", string(verdict.Outcome)),
		attribute.String("order.id", orderID),
	)

	var chainTime int64
	if !verdict.Timestamp.IsZero() {
		chainTime = verdict.Timestamp.Unix()
	}
	payload, err := streaming.Encode(streaming.Message{
		Type:          streaming.MessageTypeVerdict,
		TraceID:       traceIDHex,
		OrderID:       orderID,
		TxHash:        claim.TxHash,
		BuyerRef:      claim.BuyerRef,
		Outcome:       string(verdict.Outcome),
		Reason:        string(verdict.Reason),
		Amount:        verdict.Amount.String(),
		Confirmations: verdict.Confirmations,
		ChainTime:     chainTime,
		EmittedAt:     time.Now().Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	headers := make([]kafka.Header, 0, 2)
	telemetry.InjectKafkaHeaders(traceCtx, &headers)
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   p.topic,
		Key:     []byte(strings.ToLower(claim.TxHash)),
		Value:   payload,
		Headers: headers,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
