package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hexcontexts/user-service/internal/domain"
	"github.com/hexcontexts/user-service/internal/domain/entity"
	"github.com/hexcontexts/user-service/pkg/metrics"
)

// Queue names. User-context events share one queue; anything else lands on
// the catch-all.
const (
	QueueUserEvents   = "user_events"
	QueueUserCommands = "user_commands"
	QueueDomainEvents = "domain_events"
)

// eventMessage is the wire form of a domain event.
type eventMessage struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	Data       map[string]any `json:"data"`
	OccurredAt string         `json:"occurred_at"`
}

// EventBus publishes domain events to per-event-type queues. There is no
// outbox: events accepted here after a committed write are lost if the
// transport fails.
type EventBus struct {
	broker *Broker
	logger *logrus.Logger
}

func NewEventBus(broker *Broker, logger *logrus.Logger) *EventBus {
	return &EventBus{broker: broker, logger: logger}
}

func (b *EventBus) Publish(ctx context.Context, events []entity.Event) error {
	for _, e := range events {
		queue := QueueForEvent(e.Type)
		msg := eventMessage{
			EventID:    e.ID,
			EventType:  e.Type,
			Data:       e.Data,
			OccurredAt: e.OccurredAt.Format(time.RFC3339Nano),
		}
		if err := b.broker.Publish(ctx, queue, msg); err != nil {
			metrics.RecordMessagePublished(queue, "error")
			return fmt.Errorf("publish %s to %s: %v: %w", e.Type, queue, err, domain.ErrPublish)
		}
		metrics.RecordMessagePublished(queue, "success")
		b.logger.WithFields(logrus.Fields{"event_type": e.Type, "queue": queue}).Info("event published")
	}
	return nil
}

// QueueForEvent routes an event type to its queue.
func QueueForEvent(eventType string) string {
	switch eventType {
	case entity.EventUserCreated, entity.EventUserUpdated:
		return QueueUserEvents
	default:
		return QueueDomainEvents
	}
}
