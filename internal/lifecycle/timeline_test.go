package lifecycle

import (
	"testing"
	"time"
)

var (
	ordered = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	updated = time.Date(2026, time.March, 9, 15, 30, 0, 0, time.UTC)
)

func completedCount(ms []Milestone) int {
	n := 0
	for _, m := range ms {
		if m.Completed {
			n++
		}
	}
	return n
}

func TestProjectDefaultFlow(t *testing.T) {
	ms := Project(Repair, StatusConfirmed, updated, ordered)
	if len(ms) != 5 {
		t.Fatalf("len = %d; want 5", len(ms))
	}

	want := []Milestone{
		{"Order Placed", true, "Mar 2, 2026"},
		{"Price Confirmation", true, "Mar 9, 2026"},
		{"In Progress", true, "Mar 9, 2026"},
		{"Ready to Pick Up", false, PendingDate},
		{"Completed", false, PendingDate},
	}
	for i := range want {
		if ms[i] != want[i] {
			t.Errorf("milestone %d = %+v; want %+v", i, ms[i], want[i])
		}
	}
}

func TestProjectAcceptedSitsOnFirstMilestone(t *testing.T) {
	ms := Project(DryCleaning, StatusAccepted, updated, ordered)
	if completedCount(ms) != 1 || !ms[0].Completed {
		t.Fatalf("Project(accepted) = %+v", ms)
	}
}

func TestProjectNormalizesSpelling(t *testing.T) {
	a := Project(Repair, "ready_to_pickup", updated, ordered)
	b := Project(Repair, StatusReadyForPickup, updated, ordered)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("milestone %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
	if completedCount(a) != 4 {
		t.Fatalf("completed = %d; want 4", completedCount(a))
	}
}

func TestProjectCompletedMarksEverything(t *testing.T) {
	for _, st := range ServiceTypes() {
		ms := Project(st, StatusCompleted, updated, ordered)
		if completedCount(ms) != len(ms) {
			t.Errorf("%s: completed = %d of %d", st, completedCount(ms), len(ms))
		}
	}
}

func TestProjectUnknownStatusMarksNothing(t *testing.T) {
	for _, s := range []Status{"misplaced", StatusCancelled, StatusPriceDeclined} {
		ms := Project(Repair, s, updated, ordered)
		if completedCount(ms) != 0 {
			t.Errorf("%q: completed = %d; want 0", s, completedCount(ms))
		}
		if ms[0].Date != "Mar 2, 2026" {
			t.Errorf("%q: first milestone date = %q", s, ms[0].Date)
		}
	}
}

func TestProjectRental(t *testing.T) {
	ms := Project(Rental, StatusPickedUp, updated, ordered)
	labels := []string{"Order Placed", "Ready to Pick Up", "Rented", "Returned", "Completed"}
	for i, l := range labels {
		if ms[i].Label != l {
			t.Fatalf("milestone %d label = %q; want %q", i, ms[i].Label, l)
		}
	}
	if completedCount(ms) != 3 {
		t.Fatalf("completed = %d; want 3", completedCount(ms))
	}
}

func TestProjectFallsBackToOrderDate(t *testing.T) {
	ms := Project(Repair, StatusCompleted, time.Time{}, ordered)
	for _, m := range ms {
		if m.Date != "Mar 2, 2026" {
			t.Fatalf("milestone %q date = %q", m.Label, m.Date)
		}
	}
}

func TestScheduledDate(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]any
		want   string
		wantOK bool
	}{
		{"appointment", map[string]any{"appointmentDate": "2026-05-04"}, "2026-05-04", true},
		{"appointment wins over pickup", map[string]any{"appointmentDate": "2026-05-04", "pickupDate": "2026-05-10"}, "2026-05-04", true},
		{"pickup", map[string]any{"pickupDate": "2026-05-10T09:00:00Z"}, "2026-05-10", true},
		{"rental start", map[string]any{"rentalStartDate": "2026-06-01T00:00:00.000Z"}, "2026-06-01", true},
		{"garbage skipped", map[string]any{"appointmentDate": "soon", "pickupDate": "2026-05-10"}, "2026-05-10", true},
		{"nothing scheduled", map[string]any{"damageLevel": "minor"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ScheduledDate(tt.data)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v; want %v", ok, tt.wantOK)
			}
			if ok && got.Format(DateLayout) != tt.want {
				t.Fatalf("ScheduledDate() = %s; want %s", got.Format(DateLayout), tt.want)
			}
		})
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	// 20:00 UTC on the 1st is already the 2nd at UTC+8.
	got := Day(time.Date(2026, 1, 1, 20, 0, 0, 0, time.UTC), loc)
	if got.Format(DateLayout) != "2026-01-02" || got.Location() != time.UTC {
		t.Fatalf("Day() = %v", got)
	}
}
