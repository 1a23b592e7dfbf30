package lifecycle

import (
	"errors"
	"testing"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		service ServiceType
		current Status
		want    Status
		wantOK  bool
	}{
		{"empty starts as pending", Repair, "", StatusAccepted, true},
		{"pending to accepted", Repair, StatusPending, StatusAccepted, true},
		{"legacy pending_review", DryCleaning, "pending_review", StatusAccepted, true},
		{"accepted skips price confirmation", Customization, StatusAccepted, StatusConfirmed, true},
		{"price confirmation back to accepted", Repair, StatusPriceConfirmation, StatusAccepted, true},
		{"confirmed to ready", Repair, StatusConfirmed, StatusReadyForPickup, true},
		{"misspelled ready", Repair, "ready_to_pickup", StatusCompleted, true},
		{"completed is terminal", Repair, StatusCompleted, "", false},
		{"cancelled is terminal", Repair, StatusCancelled, "", false},
		{"price declined is terminal", Repair, StatusPriceDeclined, "", false},
		{"unknown status", Repair, "lost_in_mail", "", false},
		{"rental pending to ready", Rental, StatusPending, StatusReadyForPickup, true},
		{"rental ready to picked up", Rental, StatusReadyForPickup, StatusPickedUp, true},
		{"rental picked up to rented", Rental, StatusPickedUp, StatusRented, true},
		{"rental rented to returned", Rental, StatusRented, StatusReturned, true},
		{"rental returned to completed", Rental, StatusReturned, StatusCompleted, true},
		{"rental has no accepted step", Rental, StatusAccepted, "", false},
		{"unknown service type", ServiceType("tailor_made"), StatusPending, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextStatus(tt.current, tt.service)
			if ok != tt.wantOK || got != tt.want {
				t.Fatalf("NextStatus(%q, %q) = %q, %v; want %q, %v", tt.current, tt.service, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNextStatusWalksToCompleted(t *testing.T) {
	for _, st := range ServiceTypes() {
		t.Run(string(st), func(t *testing.T) {
			f, _ := FlowFor(st)
			seen := map[Status]bool{}
			cur := StatusPending
			for cur != StatusCompleted {
				if seen[cur] {
					t.Fatalf("status %q repeated", cur)
				}
				seen[cur] = true
				if len(seen) > len(f.Steps) {
					t.Fatalf("walk longer than the flow: %v", seen)
				}
				next, ok := NextStatus(cur, st)
				if !ok {
					t.Fatalf("walk stopped at %q", cur)
				}
				cur = next
			}
			if _, ok := NextStatus(cur, st); ok {
				t.Fatal("completed should have no next status")
			}
		})
	}
}

func TestNextStatusNeverReturnsDetourOrCancel(t *testing.T) {
	for _, st := range ServiceTypes() {
		f, _ := FlowFor(st)
		for _, s := range f.Steps {
			next, ok := NextStatus(s, st)
			if !ok {
				continue
			}
			if next == StatusPriceConfirmation || next == StatusCancelled {
				t.Errorf("NextStatus(%q, %q) = %q", s, st, next)
			}
			if !f.Contains(next) {
				t.Errorf("NextStatus(%q, %q) = %q which is outside the flow", s, st, next)
			}
		}
	}
}

func TestTerminalStatusesStayTerminal(t *testing.T) {
	for _, st := range ServiceTypes() {
		for _, s := range []Status{StatusCompleted, StatusCancelled, StatusPriceDeclined} {
			if next, ok := NextStatus(s, st); ok {
				t.Errorf("NextStatus(%q, %q) = %q; want no transition", s, st, next)
			}
			if err := CanApply(st, s, StatusPending); !errors.Is(err, ErrTerminalStatus) {
				t.Errorf("CanApply(%q, %q, pending) = %v; want ErrTerminalStatus", st, s, err)
			}
		}
	}
}

func TestCanApply(t *testing.T) {
	tests := []struct {
		name    string
		service ServiceType
		from    Status
		to      Status
		wantErr error
	}{
		{"no-op", Repair, StatusConfirmed, StatusConfirmed, nil},
		{"natural next step", Repair, StatusConfirmed, StatusReadyForPickup, nil},
		{"cancel from pending", Repair, StatusPending, StatusCancelled, nil},
		{"cancel from price confirmation", Repair, StatusPriceConfirmation, StatusCancelled, nil},
		{"cancel rental", Rental, StatusRented, StatusCancelled, nil},
		{"complete early", DryCleaning, StatusAccepted, StatusCompleted, nil},
		{"complete blocked during price confirmation", Repair, StatusPriceConfirmation, StatusCompleted, ErrAwaitingPriceConfirmation},
		{"advance blocked during price confirmation", Repair, StatusPriceConfirmation, StatusConfirmed, ErrAwaitingPriceConfirmation},
		{"staff cannot enter price confirmation", Repair, StatusAccepted, StatusPriceConfirmation, ErrInvalidTransition},
		{"skipping steps", Repair, StatusPending, StatusReadyForPickup, ErrInvalidTransition},
		{"moving backwards", Repair, StatusReadyForPickup, StatusConfirmed, ErrInvalidTransition},
		{"out of flow status", Rental, StatusPending, StatusAccepted, ErrInvalidTransition},
		{"leaving completed", Repair, StatusCompleted, StatusCancelled, ErrTerminalStatus},
		{"unknown service type", ServiceType("x"), StatusPending, StatusAccepted, ErrUnknownServiceType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanApply(tt.service, tt.from, tt.to)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CanApply() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CanApply() error = %v; want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolvePriceConfirmation(t *testing.T) {
	got, err := ResolvePriceConfirmation(Repair, StatusPriceConfirmation, true)
	if err != nil || got != StatusAccepted {
		t.Fatalf("accept = %q, %v; want accepted", got, err)
	}

	got, err = ResolvePriceConfirmation(Repair, StatusPriceConfirmation, false)
	if err != nil || got != StatusPriceDeclined {
		t.Fatalf("decline = %q, %v; want price_declined", got, err)
	}

	if _, err := ResolvePriceConfirmation(Repair, StatusAccepted, true); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resolve outside price confirmation error = %v", err)
	}
	if _, err := ResolvePriceConfirmation(Rental, StatusPriceConfirmation, true); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("resolve for rental error = %v", err)
	}
}
