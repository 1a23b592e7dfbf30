package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"tailor_tracker/internal/lifecycle"
)

// OrderItem is a single service request inside an order. ApprovalStatus is
// only ever written through the lifecycle rules; SpecificData is fixed at
// placement.
type OrderItem struct {
	ID              uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey"`
	OrderID         uuid.UUID             `json:"order_id" gorm:"type:uuid;not null;index"`
	UserID          uuid.UUID             `json:"user_id" gorm:"type:uuid;not null;index"`
	ServiceType     lifecycle.ServiceType `json:"service_type" gorm:"type:varchar(32);not null"`
	ApprovalStatus  lifecycle.Status      `json:"approval_status" gorm:"type:varchar(32);not null;default:'pending';index"`
	SpecificData    datatypes.JSONMap     `json:"specific_data" gorm:"type:jsonb"`
	FinalPrice      decimal.NullDecimal   `json:"final_price" gorm:"type:numeric(12,2)"`
	PricingFactors  datatypes.JSONMap     `json:"pricing_factors" gorm:"type:jsonb"`
	ScheduledDate   *time.Time            `json:"scheduled_date,omitempty" gorm:"type:date;index"`
	OrderDate       time.Time             `json:"order_date" gorm:"not null"`
	StatusUpdatedAt time.Time             `json:"status_updated_at"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func (OrderItem) TableName() string { return "order_items" }

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	i.PrepareForCreate(time.Now())
	return nil
}

func (i *OrderItem) BeforeSave(tx *gorm.DB) error {
	i.RefreshScheduledDate()
	return nil
}

// PrepareForCreate fills the defaults of a freshly placed item.
func (i *OrderItem) PrepareForCreate(now time.Time) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	i.ApprovalStatus = i.Status()
	if i.OrderDate.IsZero() {
		i.OrderDate = now
	}
	if i.StatusUpdatedAt.IsZero() {
		i.StatusUpdatedAt = i.OrderDate
	}
	if i.SpecificData == nil {
		i.SpecificData = datatypes.JSONMap{}
	}
	i.RefreshScheduledDate()
}

// RefreshScheduledDate derives the indexed scheduled day from SpecificData.
func (i *OrderItem) RefreshScheduledDate() {
	if d, ok := lifecycle.ScheduledDate(i.SpecificData); ok {
		i.ScheduledDate = &d
		return
	}
	i.ScheduledDate = nil
}

// Status returns the approval status in canonical form.
func (i *OrderItem) Status() lifecycle.Status {
	s := lifecycle.Normalize(string(i.ApprovalStatus))
	if s == "" {
		return lifecycle.StatusPending
	}
	return s
}

func (i *OrderItem) HasFinalPrice() bool {
	return i.FinalPrice.Valid && !i.FinalPrice.Decimal.IsZero()
}

// SetFactors merges patch into PricingFactors without touching the map the
// item was loaded with.
func (i *OrderItem) SetFactors(patch map[string]any) {
	merged := make(datatypes.JSONMap, len(i.PricingFactors)+len(patch))
	for k, v := range i.PricingFactors {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	i.PricingFactors = merged
}

// Clone returns a copy that shares no maps with i.
func (i OrderItem) Clone() OrderItem {
	c := i
	if i.SpecificData != nil {
		c.SpecificData = make(datatypes.JSONMap, len(i.SpecificData))
		for k, v := range i.SpecificData {
			c.SpecificData[k] = v
		}
	}
	if i.PricingFactors != nil {
		c.PricingFactors = make(datatypes.JSONMap, len(i.PricingFactors))
		for k, v := range i.PricingFactors {
			c.PricingFactors[k] = v
		}
	}
	if i.ScheduledDate != nil {
		d := *i.ScheduledDate
		c.ScheduledDate = &d
	}
	return c
}

// Keys staff may write into PricingFactors besides reconciliation output.
const (
	FactorAdminNotes    = "adminNotes"
	FactorDepositAmount = "depositAmount"
	FactorDeclineReason = "declineReason"
	FactorPriceAnswerAt = "priceAnsweredAt"
)
