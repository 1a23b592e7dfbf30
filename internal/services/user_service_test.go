package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository/memory"
)

func TestRegisterCustomer(t *testing.T) {
	repo := memory.New()
	svc := NewUserService(repo.Users)
	ctx := context.Background()

	user := &models.User{Name: "  Budi ", Email: "budi@example.com", PhoneNumber: "0811-222-333"}
	if err := svc.RegisterCustomer(ctx, user); err != nil {
		t.Fatalf("RegisterCustomer: %v", err)
	}
	if user.Name != "Budi" || user.PhoneNumber != "62811222333" || user.Role != models.RoleCustomer {
		t.Fatalf("user = %+v", user)
	}

	// no WhatsApp number: the phone number is used
	got, err := svc.GetUserByWhatsAppNumber(ctx, "0811 222 333")
	if err != nil || got.ID != user.ID {
		t.Fatalf("GetUserByWhatsAppNumber = %v, %v", got, err)
	}

	if err := svc.RegisterCustomer(ctx, &models.User{Name: "Other", Email: "budi@example.com"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate email: err = %v", err)
	}
	if err := svc.RegisterCustomer(ctx, &models.User{Email: "x@example.com"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing name: err = %v", err)
	}
	if _, err := svc.GetUser(ctx, uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("GetUser unknown: err = %v", err)
	}
}

func TestWhatsAppNotifierNeedsNumber(t *testing.T) {
	repo := memory.New()
	ctx := context.Background()
	user := &models.User{Name: "No Phone", Email: "nophone@example.com", IsActive: true}
	if err := repo.Users.Create(ctx, user); err != nil {
		t.Fatalf("create user: %v", err)
	}

	sender := &recordingSender{}
	notes := NewNotificationService(repo.Notifications, NewWhatsAppNotifier(sender, repo.Users), zap.NewNop())
	n := &models.Notification{OrderItemID: uuid.New(), UserID: user.ID, Type: models.NotificationAppointmentReminder, Message: "hi"}
	if err := repo.Notifications.Create(ctx, n); err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if err := notes.Deliver(ctx, n); !errors.Is(err, ErrNoContactNumber) {
		t.Fatalf("Deliver: err = %v; want ErrNoContactNumber", err)
	}
	if n.DeliveredAt != nil || len(sender.sent) != 0 {
		t.Fatal("nothing should have been sent")
	}
}
