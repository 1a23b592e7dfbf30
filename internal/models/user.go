package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name           string    `json:"name" gorm:"not null"`
	Email          string    `json:"email" gorm:"uniqueIndex"`
	PhoneNumber    string    `json:"phone_number"`
	Role           UserRole  `json:"role" gorm:"type:varchar(16);default:'customer'"`
	WhatsAppNumber string    `json:"whatsapp_number" gorm:"column:whats_app_number"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ContactNumber is the number reminders are delivered to.
func (u *User) ContactNumber() string {
	if u.WhatsAppNumber != "" {
		return u.WhatsAppNumber
	}
	return u.PhoneNumber
}

type UserRole string

const (
	RoleAdmin    UserRole = "admin"
	RoleStaff    UserRole = "staff"
	RoleCustomer UserRole = "customer"
)
