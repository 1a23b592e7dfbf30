package lifecycle

import "fmt"

// NextStatus returns the status that follows current in the flow of t.
// The second result is false when current is terminal or not part of the
// flow. The conditional price step is never returned: it is entered only
// through Reconcile, and cancellation only through an explicit action.
func NextStatus(current Status, t ServiceType) (Status, bool) {
	f, ok := flows[t]
	if !ok {
		return "", false
	}

	cur := Normalize(string(current))
	if cur == "" {
		cur = StatusPending
	}

	if f.HasPriceConfirmation() {
		switch cur {
		case StatusPending:
			return StatusAccepted, true
		case StatusAccepted:
			return StatusConfirmed, true
		case f.Conditional:
			return StatusAccepted, true
		}
	}

	i := f.Index(cur)
	if i < 0 || i == len(f.Steps)-1 {
		return "", false
	}
	next := f.Steps[i+1]
	if next == f.Conditional {
		return "", false
	}
	return next, true
}

// CanApply validates an explicit staff action moving an item of type t from
// one status to another. Allowed: a no-op, the natural next step,
// cancellation from any non-terminal status, and completion from any
// non-terminal status other than the pending price confirmation.
func CanApply(t ServiceType, from, to Status) error {
	f, ok := flows[t]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownServiceType, t)
	}

	from = Normalize(string(from))
	if from == "" {
		from = StatusPending
	}
	to = Normalize(string(to))

	if from.IsTerminal() {
		if to == from {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrTerminalStatus, from)
	}
	if to == from {
		return nil
	}
	if to == StatusCancelled {
		return nil
	}
	if f.HasPriceConfirmation() && from == f.Conditional {
		return ErrAwaitingPriceConfirmation
	}
	if to == StatusCompleted {
		return nil
	}
	if next, ok := NextStatus(from, t); ok && next == to {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s for %s", ErrInvalidTransition, from, to, t)
}

// ResolvePriceConfirmation returns the status that follows the customer's
// answer to a pending price confirmation: back into the flow when accepted,
// out of it when declined.
func ResolvePriceConfirmation(t ServiceType, current Status, accept bool) (Status, error) {
	f, ok := flows[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownServiceType, t)
	}
	cur := Normalize(string(current))
	if !f.HasPriceConfirmation() || cur != f.Conditional {
		return "", fmt.Errorf("%w: %s is not awaiting price confirmation", ErrInvalidTransition, cur)
	}
	if !accept {
		return StatusPriceDeclined, nil
	}
	next, _ := NextStatus(cur, t)
	return next, nil
}
