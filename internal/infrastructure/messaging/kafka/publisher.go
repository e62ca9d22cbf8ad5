// Package kafka publishes plan lifecycle events to Kafka
package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/alchemorsel/nutriplan/internal/infrastructure/config"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements the event publisher port on a kafka-go writer. The
// topic is chosen per message.
type Publisher struct {
	writer messageWriter
	tracer trace.Tracer
	logger *zap.Logger
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(cfg config.KafkaConfig, logger *zap.Logger) *Publisher {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchSize:              100,
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: true,
		Transport:              &kafka.Transport{ClientID: cfg.ClientID},
	}

	return newPublisher(writer, logger)
}

func newPublisher(writer messageWriter, logger *zap.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		tracer: otel.Tracer("nutriplan/kafka"),
		logger: logger.Named("kafka"),
	}
}

// Publish writes one message keyed by its partition key so a user's events stay ordered
func (p *Publisher) Publish(ctx context.Context, topic string, message outbound.Message) error {
	ctx, span := p.tracer.Start(ctx, "Kafka.Publish", trace.WithSpanKind(trace.SpanKindProducer))
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", topic),
		attribute.String("messaging.operation", "publish"),
		attribute.String("messaging.message_id", message.ID),
		attribute.String("event.type", message.Type),
	)

	headers := []kafka.Header{
		{Key: "message_id", Value: []byte(message.ID)},
		{Key: "type", Value: []byte(message.Type)},
	}
	for k, v := range message.Metadata {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	carrier := headerCarrier{headers: &headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	timestamp := message.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(message.Key),
		Value:   message.Payload,
		Headers: headers,
		Time:    timestamp,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish message")
		p.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.String("type", message.Type),
			zap.Error(err),
		)
		return fmt.Errorf("publish %s to %s: %w", message.Type, topic, err)
	}

	span.SetStatus(codes.Ok, "message published")
	p.logger.Debug("Published event",
		zap.String("topic", topic),
		zap.String("type", message.Type),
		zap.String("key", message.Key),
	)
	return nil
}

// Close flushes pending messages and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// headerCarrier adapts kafka headers to the otel text map carrier
type headerCarrier struct {
	headers *[]kafka.Header
}

func (c headerCarrier) Get(key string) string {
	for _, h := range *c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

var _ outbound.EventPublisher = (*Publisher)(nil)
