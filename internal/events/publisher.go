package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"tailor_tracker/internal/services"
)

type publisherQueue interface {
	Publish(ctx context.Context, key, value []byte, headers ...kafka.Header) error
}

// Publisher wraps lifecycle events in envelopes keyed by order item, so all
// events of one item land on the same partition.
type Publisher struct {
	queue  publisherQueue
	source string
	now    func() time.Time
}

func NewPublisher(p *Producer, source string) *Publisher {
	return &Publisher{queue: p, source: source, now: time.Now}
}

func (p *Publisher) PublishStatusChanged(ctx context.Context, e services.StatusChangedEvent) error {
	return p.publish(ctx, EventItemStatusChanged, e.OrderItemID, e)
}

func (p *Publisher) PublishReminderCreated(ctx context.Context, e services.ReminderCreatedEvent) error {
	return p.publish(ctx, EventReminderCreated, e.OrderItemID, e)
}

func (p *Publisher) publish(ctx context.Context, eventType string, itemID uuid.UUID, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	env := Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  envelopeVersion,
		OccurredAt:    p.now().UTC(),
		Producer:      p.source,
		CorrelationID: itemID.String(),
		Payload:       raw,
	}
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", eventType, err)
	}
	return p.queue.Publish(ctx, []byte(itemID.String()), value,
		kafka.Header{Key: "event_type", Value: []byte(eventType)})
}
