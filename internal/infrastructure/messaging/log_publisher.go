// Package messaging provides event publishers that do not need a broker
package messaging

import (
	"context"

	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"go.uber.org/zap"
)

// LogPublisher records events in the log. Used when Kafka is disabled.
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher that only logs
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(ctx context.Context, topic string, message outbound.Message) error {
	p.logger.Info("Event",
		zap.String("topic", topic),
		zap.String("id", message.ID),
		zap.String("type", message.Type),
		zap.String("key", message.Key),
		zap.ByteString("payload", message.Payload),
	)
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}

var _ outbound.EventPublisher = (*LogPublisher)(nil)
