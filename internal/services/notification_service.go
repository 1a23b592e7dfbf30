package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
)

type NotificationService interface {
	NotifyPriceConfirmation(ctx context.Context, item *models.OrderItem) (*models.Notification, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	// Deliver pushes n through the notifier, if any, and records the
	// delivery time. Failures are logged and returned.
	Deliver(ctx context.Context, n *models.Notification) error
}

// Notifier delivers a stored notification to the customer.
type Notifier interface {
	Deliver(ctx context.Context, n *models.Notification) error
}

type notificationService struct {
	repo     repository.NotificationRepository
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewNotificationService returns a service that stores notifications and,
// when notifier is not nil, delivers them.
func NewNotificationService(repo repository.NotificationRepository, notifier Notifier, log *zap.Logger) NotificationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &notificationService{repo: repo, notifier: notifier, log: log.Named("notifications"), now: time.Now}
}

func (s *notificationService) NotifyPriceConfirmation(ctx context.Context, item *models.OrderItem) (*models.Notification, error) {
	n := &models.Notification{
		OrderItemID: item.ID,
		UserID:      item.UserID,
		Type:        models.NotificationPriceConfirmationRequired,
		Message:     PriceConfirmationMessage(item),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create price confirmation notification: %w", err)
	}
	_ = s.Deliver(ctx, n)
	return n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	list, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	ok, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if !ok {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *notificationService) Deliver(ctx context.Context, n *models.Notification) error {
	if s.notifier == nil {
		return nil
	}
	if err := s.notifier.Deliver(ctx, n); err != nil {
		s.log.Warn("notification delivery failed",
			zap.String("notification_id", n.ID.String()),
			zap.String("type", string(n.Type)),
			zap.Error(err),
		)
		return err
	}
	at := s.now()
	if err := s.repo.MarkDelivered(ctx, n.ID, at); err != nil {
		s.log.Warn("mark notification delivered failed", zap.String("notification_id", n.ID.String()), zap.Error(err))
		return err
	}
	n.DeliveredAt = &at
	return nil
}

// PriceConfirmationMessage tells the customer the staff price differs from
// the estimate they saw.
func PriceConfirmationMessage(item *models.OrderItem) string {
	msg := fmt.Sprintf("The price of your %s request was updated", serviceName(item))
	if item.FinalPrice.Valid {
		msg += " to " + item.FinalPrice.Decimal.StringFixed(2)
	}
	return msg + ". Please confirm or decline the new price."
}

// ReminderCategorySizing is the category of appointment reminders.
const ReminderCategorySizing = "sizing"

// ReminderMessage builds the text of an appointment reminder.
func ReminderMessage(item *models.OrderItem, scheduled time.Time) string {
	return fmt.Sprintf("Reminder: your %s %s appointment is tomorrow, %s.",
		serviceName(item), ReminderCategorySizing, scheduled.Format("Jan 2, 2006"))
}

func serviceName(item *models.OrderItem) string {
	return strings.ReplaceAll(strings.ToLower(string(item.ServiceType)), "_", " ")
}
