package services

import (
	"errors"

	"tailor_tracker/internal/lifecycle"
)

var (
	ErrItemNotFound         = errors.New("order item not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNoTransition         = errors.New("no further status transition")
	ErrForbidden            = errors.New("order item belongs to another customer")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoContactNumber      = errors.New("user has no whatsapp number")

	ErrInvalidTransition         = lifecycle.ErrInvalidTransition
	ErrTerminalStatus            = lifecycle.ErrTerminalStatus
	ErrAwaitingPriceConfirmation = lifecycle.ErrAwaitingPriceConfirmation
)
