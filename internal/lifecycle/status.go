package lifecycle

import (
	"fmt"
	"sort"
	"strings"
)

// ServiceType selects the status flow and the pricing formula of an item.
type ServiceType string

const (
	Repair        ServiceType = "repair"
	Customization ServiceType = "customization"
	DryCleaning   ServiceType = "dry_cleaning"
	Rental        ServiceType = "rental"
)

func (t ServiceType) IsValid() bool {
	switch t {
	case Repair, Customization, DryCleaning, Rental:
		return true
	default:
		return false
	}
}

func (t ServiceType) String() string { return string(t) }

// ParseServiceType accepts the canonical keys in any case, with spaces or
// dashes in place of underscores ("Dry Cleaning", "dry-cleaning").
func ParseServiceType(raw string) (ServiceType, error) {
	t := ServiceType(canonicalKey(raw))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownServiceType, raw)
	}
	return t, nil
}

// Status is the approval status of an order item.
type Status string

const (
	StatusPending           Status = "pending"
	StatusAccepted          Status = "accepted"
	StatusPriceConfirmation Status = "price_confirmation"
	StatusConfirmed         Status = "confirmed"
	StatusReadyForPickup    Status = "ready_for_pickup"
	StatusPickedUp          Status = "picked_up"
	StatusRented            Status = "rented"
	StatusReturned          Status = "returned"
	StatusCompleted         Status = "completed"
	StatusCancelled         Status = "cancelled"
	StatusPriceDeclined     Status = "price_declined"
)

// Spelling variants seen in stored data, mapped to their canonical key.
var statusAliases = map[string]Status{
	"pending_review":    StatusPending,
	"ready_to_pickup":   StatusReadyForPickup,
	"ready_to_pick_up":  StatusReadyForPickup,
	"ready_for_pick_up": StatusReadyForPickup,
	"canceled":          StatusCancelled,
}

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusPriceConfirmation, StatusConfirmed,
		StatusReadyForPickup, StatusPickedUp, StatusRented, StatusReturned,
		StatusCompleted, StatusCancelled, StatusPriceDeclined:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusPriceDeclined:
		return true
	default:
		return false
	}
}

// Normalize maps a raw status value onto its canonical key. Unknown values
// are returned canonicalized but otherwise untouched; the empty string stays
// empty.
func Normalize(raw string) Status {
	key := canonicalKey(raw)
	if alias, ok := statusAliases[key]; ok {
		return alias
	}
	return Status(key)
}

// Spellings returns every stored value that normalizes to s: the canonical
// key first, then its known aliases in sorted order.
func Spellings(s Status) []string {
	out := []string{string(s)}
	var aliases []string
	for raw, canonical := range statusAliases {
		if canonical == s {
			aliases = append(aliases, raw)
		}
	}
	sort.Strings(aliases)
	return append(out, aliases...)
}

// SpellingsOf flattens Spellings over several statuses.
func SpellingsOf(statuses []Status) []string {
	var out []string
	for _, s := range statuses {
		out = append(out, Spellings(s)...)
	}
	return out
}

// ParseStatus normalizes raw and rejects values outside the enumeration.
func ParseStatus(raw string) (Status, error) {
	s := Normalize(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return s, nil
}

func canonicalKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	return key
}
