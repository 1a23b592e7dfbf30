package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tailor_tracker/internal/lifecycle"
)

type StatusChangedEvent struct {
	OrderItemID uuid.UUID             `json:"order_item_id"`
	OrderID     uuid.UUID             `json:"order_id"`
	UserID      uuid.UUID             `json:"user_id"`
	ServiceType lifecycle.ServiceType `json:"service_type"`
	From        lifecycle.Status      `json:"from"`
	To          lifecycle.Status      `json:"to"`
	Action      string                `json:"action"`
	Forced      bool                  `json:"forced"`
	FinalPrice  string                `json:"final_price,omitempty"`
	ChangedAt   time.Time             `json:"changed_at"`
}

type ReminderCreatedEvent struct {
	NotificationID uuid.UUID `json:"notification_id"`
	OrderItemID    uuid.UUID `json:"order_item_id"`
	UserID         uuid.UUID `json:"user_id"`
	ScheduledDate  string    `json:"scheduled_date"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// EventBus publishes lifecycle events. A nil EventBus disables publishing.
type EventBus interface {
	PublishStatusChanged(ctx context.Context, e StatusChangedEvent) error
	PublishReminderCreated(ctx context.Context, e ReminderCreatedEvent) error
}

// StatusCache keeps the current status of items for the tracking view.
type StatusCache interface {
	SetItemStatus(ctx context.Context, id uuid.UUID, status lifecycle.Status) error
	// GetItemStatus reports false on a cache miss.
	GetItemStatus(ctx context.Context, id uuid.UUID) (lifecycle.Status, bool, error)
}

// Locker guards a job against concurrent runs across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
}
