package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"tailor_tracker/internal/services"
)

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"before the hour", time.Date(2026, 5, 1, 6, 30, 0, 0, loc), time.Date(2026, 5, 1, 8, 0, 0, 0, loc)},
		{"exactly at the hour", time.Date(2026, 5, 1, 8, 0, 0, 0, loc), time.Date(2026, 5, 2, 8, 0, 0, 0, loc)},
		{"after the hour", time.Date(2026, 5, 31, 21, 0, 0, 0, loc), time.Date(2026, 6, 1, 8, 0, 0, 0, loc)},
		{"utc input", time.Date(2026, 5, 1, 1, 0, 0, 0, time.UTC), time.Date(2026, 5, 2, 8, 0, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextRun(tt.now, 8, loc); !got.Equal(tt.want) {
				t.Fatalf("NextRun() = %v; want %v", got, tt.want)
			}
		})
	}
}

type countingReminders struct{ runs atomic.Int32 }

func (c *countingReminders) RunDaily(ctx context.Context) (*services.ReminderRunSummary, error) {
	c.runs.Add(1)
	return &services.ReminderRunSummary{}, nil
}

func (c *countingReminders) RunFor(ctx context.Context, now time.Time) (*services.ReminderRunSummary, error) {
	return c.RunDaily(ctx)
}

func TestSchedulerStops(t *testing.T) {
	rem := &countingReminders{}
	s := New(rem, 8, time.UTC, zap.NewNop())
	s.Start(context.Background())
	s.Stop()
	s.Stop()

	if _, err := s.RunOnceNow(context.Background()); err != nil {
		t.Fatalf("RunOnceNow: %v", err)
	}
	if rem.runs.Load() != 1 {
		t.Fatalf("runs = %d; want 1", rem.runs.Load())
	}
}

func TestNewDefaults(t *testing.T) {
	rem := &countingReminders{}
	s := New(rem, 42, nil, nil)
	if s.hour != 8 || s.loc != time.UTC {
		t.Fatalf("hour = %d loc = %v; want 8 UTC", s.hour, s.loc)
	}
	s.Start(context.Background())
	s.Stop()
	if _, err := s.RunOnceNow(context.Background()); err != nil {
		t.Fatalf("RunOnceNow: %v", err)
	}
}
