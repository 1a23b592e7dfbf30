package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order groups the items a customer placed together.
type Order struct {
	ID        uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID   `json:"user_id" gorm:"type:uuid;not null;index"`
	OrderDate time.Time   `json:"order_date" gorm:"not null"`
	Notes     string      `json:"notes" gorm:"type:text"`
	Items     []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderDate.IsZero() {
		o.OrderDate = time.Now()
	}
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
		o.Items[i].UserID = o.UserID
		if o.Items[i].OrderDate.IsZero() {
			o.Items[i].OrderDate = o.OrderDate
		}
	}
	return nil
}
