package blueprint

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alchemorsel/nutriplan/internal/domain/shared"
	"github.com/alchemorsel/nutriplan/internal/ports/outbound"
	"github.com/google/uuid"
)

// publishEvent serializes a domain event onto the configured topic. A nil
// publisher is a no-op.
func publishEvent(ctx context.Context, publisher outbound.EventPublisher, topic, key string, event shared.DomainEvent) error {
	if publisher == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, topic, outbound.Message{
		ID:        uuid.NewString(),
		Type:      event.EventName(),
		Key:       key,
		Payload:   payload,
		Timestamp: event.OccurredAt().UTC().Truncate(time.Millisecond),
	})
}
