package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"tailor_tracker/internal/services"
)

// Scheduler runs the reminder job once a day at a fixed local hour.
type Scheduler struct {
	reminders services.ReminderService
	hour      int
	loc       *time.Location
	log       *zap.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

func New(reminders services.ReminderService, hour int, loc *time.Location, log *zap.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if hour < 0 || hour > 23 {
		hour = 8
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		reminders: reminders,
		hour:      hour,
		loc:       loc,
		log:       log.Named("scheduler"),
		stopCh:    make(chan struct{}),
		now:       time.Now,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting reminder scheduler", zap.Int("hour", s.hour), zap.String("timezone", s.loc.String()))
	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.log.Info("stopping reminder scheduler")
		close(s.stopCh)
	})
}

func (s *Scheduler) loop(ctx context.Context) {
	for {
		next := NextRun(s.now(), s.hour, s.loc)
		timer := time.NewTimer(time.Until(next))

		select {
		case <-timer.C:
			if _, err := s.RunOnceNow(ctx); err != nil {
				s.log.Error("daily reminder run failed", zap.Error(err))
			}
		case <-s.stopCh:
			timer.Stop()
			s.log.Info("reminder scheduler stopped")
			return
		case <-ctx.Done():
			timer.Stop()
			s.log.Info("reminder scheduler cancelled")
			return
		}
	}
}

// RunOnceNow runs the reminder job immediately.
func (s *Scheduler) RunOnceNow(ctx context.Context) (*services.ReminderRunSummary, error) {
	return s.reminders.RunDaily(ctx)
}

// NextRun returns the first moment strictly after now at hour:00 in loc.
func NextRun(now time.Time, hour int, loc *time.Location) time.Time {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(local.Year(), local.Month(), local.Day()+1, hour, 0, 0, 0, loc)
	}
	return next
}
