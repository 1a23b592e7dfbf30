package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tailor_tracker/internal/lifecycle"
)

// PriceRevision records one staff edit of an item's final price, written in
// the same transaction as the edit.
type PriceRevision struct {
	ID                 uuid.UUID           `json:"id" gorm:"type:uuid;primaryKey"`
	OrderItemID        uuid.UUID           `json:"order_item_id" gorm:"type:uuid;not null;index"`
	PreviousPrice      decimal.NullDecimal `json:"previous_price" gorm:"type:numeric(12,2)"`
	NewPrice           decimal.Decimal     `json:"new_price" gorm:"type:numeric(12,2);not null"`
	EstimatedPrice     decimal.NullDecimal `json:"estimated_price" gorm:"type:numeric(12,2)"`
	ForcedConfirmation bool                `json:"forced_confirmation"`
	StatusBefore       lifecycle.Status    `json:"status_before" gorm:"type:varchar(32)"`
	StatusAfter        lifecycle.Status    `json:"status_after" gorm:"type:varchar(32)"`
	CreatedAt          time.Time           `json:"created_at"`
}

func (r *PriceRevision) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
