package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"tailor_tracker/internal/lifecycle"
	"tailor_tracker/internal/models"
	"tailor_tracker/internal/repository"
)

// Statuses whose items never receive appointment reminders.
var reminderExcludedStatuses = []lifecycle.Status{
	lifecycle.StatusCancelled,
	lifecycle.StatusCompleted,
	lifecycle.StatusPriceDeclined,
}

const reminderLockKey = "lock:reminders:%s"

type ReminderService interface {
	// RunDaily creates tomorrow's appointment reminders as of now.
	RunDaily(ctx context.Context) (*ReminderRunSummary, error)
	// RunFor is RunDaily with an explicit clock.
	RunFor(ctx context.Context, now time.Time) (*ReminderRunSummary, error)
}

type ReminderRunSummary struct {
	RunDate        string `json:"run_date"`
	TargetDate     string `json:"target_date"`
	Candidates     int    `json:"candidates"`
	Created        int    `json:"created"`
	Skipped        int    `json:"skipped"`
	Failed         int    `json:"failed"`
	AlreadyRunning bool   `json:"already_running"`
}

type ReminderOptions struct {
	Location *time.Location
	// Delivery sends created reminders; nil keeps them in storage only.
	Delivery NotificationService
	Events   EventBus
	Locker   Locker
	LockTTL  time.Duration
}

type reminderService struct {
	items         repository.OrderItemRepository
	notifications repository.NotificationRepository
	delivery      NotificationService
	events        EventBus
	locker        Locker
	lockTTL       time.Duration
	loc           *time.Location
	log           *zap.Logger
	now           func() time.Time
}

func NewReminderService(repo *repository.Repository, log *zap.Logger, opts ReminderOptions) ReminderService {
	if log == nil {
		log = zap.NewNop()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	ttl := opts.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &reminderService{
		items:         repo.OrderItems,
		notifications: repo.Notifications,
		delivery:      opts.Delivery,
		events:        opts.Events,
		locker:        opts.Locker,
		lockTTL:       ttl,
		loc:           loc,
		log:           log.Named("reminders"),
		now:           time.Now,
	}
}

func (s *reminderService) RunDaily(ctx context.Context) (*ReminderRunSummary, error) {
	return s.RunFor(ctx, s.now())
}

func (s *reminderService) RunFor(ctx context.Context, now time.Time) (*ReminderRunSummary, error) {
	today := lifecycle.Day(now, s.loc)
	tomorrow := today.AddDate(0, 0, 1)
	summary := &ReminderRunSummary{
		RunDate:    today.Format(lifecycle.DateLayout),
		TargetDate: tomorrow.Format(lifecycle.DateLayout),
	}

	if s.locker != nil {
		key := fmt.Sprintf(reminderLockKey, summary.RunDate)
		acquired, err := s.locker.AcquireLock(ctx, key, s.lockTTL)
		switch {
		case err != nil:
			// storage uniqueness still holds without the lock
			s.log.Warn("reminder lock unavailable", zap.Error(err))
		case !acquired:
			s.log.Info("reminder run already in progress", zap.String("run_date", summary.RunDate))
			summary.AlreadyRunning = true
			return summary, nil
		default:
			defer func() {
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key); err != nil {
					s.log.Warn("release reminder lock failed", zap.Error(err))
				}
			}()
		}
	}

	items, err := s.items.FindScheduledOn(ctx, tomorrow, reminderExcludedStatuses)
	if err != nil {
		return nil, fmt.Errorf("find items scheduled on %s: %w", summary.TargetDate, err)
	}
	summary.Candidates = len(items)

	for i := range items {
		item := &items[i]
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		n, err := s.ensureReminder(ctx, item, today)
		if err != nil {
			summary.Failed++
			s.log.Error("reminder failed",
				zap.String("item_id", item.ID.String()),
				zap.String("target_date", summary.TargetDate),
				zap.Error(err),
			)
			continue
		}
		if n == nil {
			summary.Skipped++
			continue
		}
		summary.Created++
		s.afterCreate(ctx, item, n)
	}

	s.log.Info("reminder run finished",
		zap.String("run_date", summary.RunDate),
		zap.Int("candidates", summary.Candidates),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// ensureReminder creates the reminder of item for day unless one exists.
// It returns nil, nil when the reminder was already there.
func (s *reminderService) ensureReminder(ctx context.Context, item *models.OrderItem, day time.Time) (*models.Notification, error) {
	exists, err := s.notifications.ExistsForDay(ctx, item.ID, models.NotificationAppointmentReminder, day)
	if err != nil {
		return nil, fmt.Errorf("check existing reminder: %w", err)
	}
	if exists {
		return nil, nil
	}

	scheduled := day.AddDate(0, 0, 1)
	if item.ScheduledDate != nil {
		scheduled = *item.ScheduledDate
	}
	dedupe := day
	n := &models.Notification{
		OrderItemID: item.ID,
		UserID:      item.UserID,
		Type:        models.NotificationAppointmentReminder,
		Message:     ReminderMessage(item, scheduled),
		DedupeDate:  &dedupe,
	}
	created, err := s.notifications.CreateIfAbsent(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("create reminder: %w", err)
	}
	if !created {
		return nil, nil
	}
	return n, nil
}

func (s *reminderService) afterCreate(ctx context.Context, item *models.OrderItem, n *models.Notification) {
	if s.delivery != nil {
		// failures are logged by the delivery service
		_ = s.delivery.Deliver(ctx, n)
	}
	if s.events == nil {
		return
	}
	e := ReminderCreatedEvent{
		NotificationID: n.ID,
		OrderItemID:    item.ID,
		UserID:         item.UserID,
		Message:        n.Message,
		CreatedAt:      s.now(),
	}
	if item.ScheduledDate != nil {
		e.ScheduledDate = item.ScheduledDate.Format(lifecycle.DateLayout)
	}
	if err := s.events.PublishReminderCreated(ctx, e); err != nil {
		s.log.Warn("publish reminder event failed", zap.String("item_id", item.ID.String()), zap.Error(err))
	}
}
