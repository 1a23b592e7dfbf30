package lifecycle

import "slices"

// Classification groups statuses for display filters only.
type Classification string

const (
	ClassPending    Classification = "pending"
	ClassInProgress Classification = "in-progress"
	ClassCompleted  Classification = "completed"
	ClassRejected   Classification = "rejected"
)

// StatusMeta is the customer-facing description of a status.
type StatusMeta struct {
	Key            Status         `json:"key"`
	Label          string         `json:"label"`
	Classification Classification `json:"classification"`
}

var statusMeta = map[Status]StatusMeta{
	StatusPending:           {StatusPending, "Pending", ClassPending},
	StatusAccepted:          {StatusAccepted, "Accepted", ClassInProgress},
	StatusPriceConfirmation: {StatusPriceConfirmation, "Awaiting Price Confirmation", ClassPending},
	StatusConfirmed:         {StatusConfirmed, "In Progress", ClassInProgress},
	StatusReadyForPickup:    {StatusReadyForPickup, "To Pick up", ClassInProgress},
	StatusPickedUp:          {StatusPickedUp, "Picked Up", ClassInProgress},
	StatusRented:            {StatusRented, "Rented", ClassInProgress},
	StatusReturned:          {StatusReturned, "Returned", ClassInProgress},
	StatusCompleted:         {StatusCompleted, "Completed", ClassCompleted},
	StatusCancelled:         {StatusCancelled, "Rejected", ClassRejected},
	StatusPriceDeclined:     {StatusPriceDeclined, "Price Declined", ClassRejected},
}

// Meta returns the label and classification of s. Unknown statuses keep
// their raw key as label and are classified as pending.
func Meta(s Status) StatusMeta {
	if m, ok := statusMeta[Normalize(string(s))]; ok {
		return m
	}
	return StatusMeta{Key: s, Label: string(s), Classification: ClassPending}
}

// Flow is the ordered sequence of statuses for one service type.
type Flow struct {
	ServiceType ServiceType
	Steps       []Status
	// Conditional is the step entered only through price reconciliation,
	// empty when the flow has none.
	Conditional Status
}

var flows = map[ServiceType]Flow{
	Repair:        tailoringFlow(Repair),
	Customization: tailoringFlow(Customization),
	DryCleaning:   tailoringFlow(DryCleaning),
	Rental: {
		ServiceType: Rental,
		Steps: []Status{
			StatusPending,
			StatusReadyForPickup,
			StatusPickedUp,
			StatusRented,
			StatusReturned,
			StatusCompleted,
		},
	},
}

func tailoringFlow(t ServiceType) Flow {
	return Flow{
		ServiceType: t,
		Steps: []Status{
			StatusPending,
			StatusAccepted,
			StatusPriceConfirmation,
			StatusConfirmed,
			StatusReadyForPickup,
			StatusCompleted,
		},
		Conditional: StatusPriceConfirmation,
	}
}

// FlowFor returns a copy of the flow registered for t.
func FlowFor(t ServiceType) (Flow, bool) {
	f, ok := flows[t]
	if !ok {
		return Flow{}, false
	}
	f.Steps = slices.Clone(f.Steps)
	return f, true
}

// Index returns the position of s in the flow's steps, or -1.
func (f Flow) Index(s Status) int {
	return slices.Index(f.Steps, s)
}

// Contains reports whether an item of this flow may ever hold s: any step
// plus the terminal exits.
func (f Flow) Contains(s Status) bool {
	if f.Index(s) >= 0 || s == StatusCancelled {
		return true
	}
	return s == StatusPriceDeclined && f.Conditional != ""
}

// HasPriceConfirmation reports whether the flow carries the reconciliation
// detour.
func (f Flow) HasPriceConfirmation() bool { return f.Conditional != "" }

// Statuses lists the metadata of every status an item of type t can hold, in
// flow order followed by the terminal exits.
func Statuses(t ServiceType) []StatusMeta {
	f, ok := flows[t]
	if !ok {
		return nil
	}
	out := make([]StatusMeta, 0, len(f.Steps)+2)
	for _, s := range f.Steps {
		out = append(out, statusMeta[s])
	}
	out = append(out, statusMeta[StatusCancelled])
	if f.HasPriceConfirmation() {
		out = append(out, statusMeta[StatusPriceDeclined])
	}
	return out
}

// ServiceTypes lists the registered service types in a stable order.
func ServiceTypes() []ServiceType {
	return []ServiceType{Repair, Customization, DryCleaning, Rental}
}
