package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationAppointmentReminder       NotificationType = "appointment_reminder"
	NotificationPriceConfirmationRequired NotificationType = "price_confirmation_required"
)

// Notification is a customer-facing message about an order item. At most one
// row exists per item, type and dedupe day; rows without a dedupe day are
// never deduplicated.
type Notification struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey"`
	OrderItemID uuid.UUID        `json:"order_item_id" gorm:"type:uuid;not null;uniqueIndex:ux_notifications_item_type_day,priority:1"`
	UserID      uuid.UUID        `json:"user_id" gorm:"type:uuid;not null;index"`
	Type        NotificationType `json:"type" gorm:"type:varchar(48);not null;uniqueIndex:ux_notifications_item_type_day,priority:2"`
	Message     string           `json:"message" gorm:"type:text;not null"`
	DedupeDate  *time.Time       `json:"dedupe_date,omitempty" gorm:"type:date;uniqueIndex:ux_notifications_item_type_day,priority:3"`
	DeliveredAt *time.Time       `json:"delivered_at,omitempty"`
	IsRead      bool             `json:"is_read" gorm:"default:false"`
	CreatedAt   time.Time        `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
