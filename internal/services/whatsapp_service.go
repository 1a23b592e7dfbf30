package services

import (
	"context"
	"fmt"

	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
)

// MessageSender sends a plain text message to a phone number.
type MessageSender interface {
	SendText(ctx context.Context, phone, message string) error
}

type whatsappNotifier struct {
	sender MessageSender
	users  repository.UserRepository
}

// NewWhatsAppNotifier delivers notifications to the WhatsApp number of the
// notification's user.
func NewWhatsAppNotifier(sender MessageSender, users repository.UserRepository) Notifier {
	return &whatsappNotifier{sender: sender, users: users}
}

func (n *whatsappNotifier) Deliver(ctx context.Context, note *models.Notification) error {
	user, err := n.users.GetByID(ctx, note.UserID)
	if err != nil {
		return fmt.Errorf("load user %s: %w", note.UserID, err)
	}
	if user == nil || user.ContactNumber() == "" {
		return fmt.Errorf("%w: %s", ErrNoContactNumber, note.UserID)
	}
	if err := n.sender.SendText(ctx, user.ContactNumber(), note.Message); err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}
	return nil
}
