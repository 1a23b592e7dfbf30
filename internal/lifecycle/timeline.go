package lifecycle

import "time"

// PendingDate is shown for milestones that have not been reached.
const PendingDate = "Pending"

const timelineDateLayout = "Jan 2, 2006"

// Milestone is one step of the customer-facing progress timeline.
type Milestone struct {
	Label     string `json:"step_label"`
	Completed bool   `json:"completed"`
	Date      string `json:"date"`
}

type milestone struct {
	label string
	key   Status
}

var defaultMilestones = []milestone{
	{"Order Placed", StatusPending},
	{"Price Confirmation", StatusPriceConfirmation},
	{"In Progress", StatusConfirmed},
	{"Ready to Pick Up", StatusReadyForPickup},
	{"Completed", StatusCompleted},
}

var rentalMilestones = []milestone{
	{"Order Placed", StatusPending},
	{"Ready to Pick Up", StatusReadyForPickup},
	{"Rented", StatusRented},
	{"Returned", StatusReturned},
	{"Completed", StatusCompleted},
}

// Statuses without a milestone of their own, placed on the milestone they
// belong to.
var milestoneAliases = map[Status]Status{
	StatusAccepted: StatusPending,
	StatusPickedUp: StatusRented,
}

func milestonesFor(t ServiceType) []milestone {
	if t == Rental {
		return rentalMilestones
	}
	return defaultMilestones
}

// MilestoneIndex returns the milestone position reached by status s, or -1
// when s has no milestone (unknown values and rejections).
func MilestoneIndex(t ServiceType, s Status) int {
	key := Normalize(string(s))
	if alias, ok := milestoneAliases[key]; ok {
		key = alias
	}
	for i, m := range milestonesFor(t) {
		if m.key == key {
			return i
		}
	}
	return -1
}

// Project builds the milestone list for an item of type t currently in
// status current.
func Project(t ServiceType, current Status, statusUpdatedAt, orderDate time.Time) []Milestone {
	steps := milestonesFor(t)
	idx := MilestoneIndex(t, current)

	reached := statusUpdatedAt
	if reached.IsZero() {
		reached = orderDate
	}

	out := make([]Milestone, len(steps))
	for i, m := range steps {
		ms := Milestone{Label: m.label, Completed: i <= idx, Date: PendingDate}
		switch {
		case i == 0:
			ms.Date = formatTimelineDate(orderDate)
		case ms.Completed:
			ms.Date = formatTimelineDate(reached)
		}
		out[i] = ms
	}
	return out
}

func formatTimelineDate(t time.Time) string {
	if t.IsZero() {
		return PendingDate
	}
	return t.Format(timelineDateLayout)
}
