package lifecycle

import (
	"strings"
	"time"
)

// DateLayout is the calendar day format used for scheduled dates and
// reminder dedupe keys.
const DateLayout = "2006-01-02"

// Attribute keys that may carry the date an item is scheduled for, in order
// of precedence.
var scheduleKeys = []string{"appointmentDate", "pickupDate", "rentalStartDate"}

// ScheduledDate extracts the calendar day an item is booked for from its
// attributes. The result is midnight UTC of that day.
func ScheduledDate(data map[string]any) (time.Time, bool) {
	for _, key := range scheduleKeys {
		raw := strings.TrimSpace(attrString(data, key))
		if raw == "" {
			continue
		}
		if d, ok := parseDay(raw); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// Day truncates t to its calendar day in loc, expressed as midnight UTC.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func parseDay(raw string) (time.Time, bool) {
	if d, err := time.Parse(DateLayout, raw); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return Day(ts, nil), true
	}
	if len(raw) > len(DateLayout) {
		if d, err := time.Parse(DateLayout, raw[:len(DateLayout)]); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
